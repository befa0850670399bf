package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v2"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestUnmarshalYAML() {
	suite.Run("unset fields take defaults", func() {
		var config Config

		suite.Require().NoError(yaml.Unmarshal([]byte("initial_capital: 500000\n"), &config))

		suite.Equal(500000.0, config.InitialCapital)
		suite.Equal(5, config.MaxTradesPerDay)
		suite.Equal("NIFTY 50", config.IndexSymbol)
		suite.Equal("NIFTY", config.Underlying)
		suite.Equal(5000.0, config.Risk.MaxDrawdown)
		suite.Equal(30, config.Risk.MaxOrdersPerMinute)
		suite.True(config.StartTime.IsNone())
		suite.True(config.EndTime.IsNone())
	})

	suite.Run("explicit fields override defaults", func() {
		raw := `
initial_capital: 200000
max_trades_per_day: 10
index_symbol: "NIFTY BANK"
underlying: BANKNIFTY
risk:
  max_drawdown: 10000
  max_orders_per_minute: 60
start_time: 2026-01-01T00:00:00Z
end_time: 2026-03-31T00:00:00Z
`

		var config Config
		suite.Require().NoError(yaml.Unmarshal([]byte(raw), &config))

		suite.Equal(200000.0, config.InitialCapital)
		suite.Equal(10, config.MaxTradesPerDay)
		suite.Equal("NIFTY BANK", config.IndexSymbol)
		suite.Equal("BANKNIFTY", config.Underlying)
		suite.Equal(10000.0, config.Risk.MaxDrawdown)
		suite.Equal(60, config.Risk.MaxOrdersPerMinute)

		suite.Require().True(config.StartTime.IsSome())
		suite.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap().UTC())
		suite.Require().True(config.EndTime.IsSome())
	})
}

func (suite *ConfigTestSuite) TestValidate() {
	config := DefaultConfig()
	suite.Require().NoError(config.Validate())

	config.InitialCapital = -1
	suite.Error(config.Validate())

	config = DefaultConfig()
	config.IndexSymbol = ""
	suite.Error(config.Validate())
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	suite.Contains(schema, "initial_capital")
	suite.Contains(schema, "max_trades_per_day")
	suite.Contains(schema, "start_time")
}
