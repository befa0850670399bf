package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/risk"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
)

// Config holds the backtest engine configuration, parsed from YAML.
type Config struct {
	InitialCapital  float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0"`
	MaxTradesPerDay int     `yaml:"max_trades_per_day" json:"max_trades_per_day" validate:"gt=0" jsonschema:"title=Max Trades Per Day,description=Daily trade-count ceiling enforced by the scheduler"`
	// IndexSymbol is the primary instrument whose marks the scheduler drives,
	// e.g. "NIFTY 50".
	IndexSymbol string `yaml:"index_symbol" json:"index_symbol" validate:"required" jsonschema:"title=Index Symbol,description=Primary instrument symbol"`
	// Underlying is the index name used in canonical option symbols,
	// e.g. "NIFTY".
	Underlying string                     `yaml:"underlying" json:"underlying" validate:"required" jsonschema:"title=Underlying,description=Underlying name used in canonical option symbols"`
	Risk       risk.Config                `yaml:"risk" json:"risk" jsonschema:"title=Risk Limits,description=Risk gate limits"`
	StartTime  optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest period"`
	EndTime    optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest period"`
}

// DefaultConfig returns the configuration used when fields are omitted.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  100000.0,
		MaxTradesPerDay: 5,
		IndexSymbol:     "NIFTY 50",
		Underlying:      "NIFTY",
		Risk:            risk.DefaultConfig(),
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		InitialCapital  float64     `yaml:"initial_capital"`
		MaxTradesPerDay int         `yaml:"max_trades_per_day"`
		IndexSymbol     string      `yaml:"index_symbol"`
		Underlying      string      `yaml:"underlying"`
		Risk            risk.Config `yaml:"risk"`
		StartTime       *time.Time  `yaml:"start_time"`
		EndTime         *time.Time  `yaml:"end_time"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	defaults := DefaultConfig()

	c.InitialCapital = raw.InitialCapital
	if c.InitialCapital == 0 {
		c.InitialCapital = defaults.InitialCapital
	}

	c.MaxTradesPerDay = raw.MaxTradesPerDay
	if c.MaxTradesPerDay == 0 {
		c.MaxTradesPerDay = defaults.MaxTradesPerDay
	}

	c.IndexSymbol = raw.IndexSymbol
	if c.IndexSymbol == "" {
		c.IndexSymbol = defaults.IndexSymbol
	}

	c.Underlying = raw.Underlying
	if c.Underlying == "" {
		c.Underlying = defaults.Underlying
	}

	c.Risk = raw.Risk
	if c.Risk.MaxDrawdown == 0 {
		c.Risk.MaxDrawdown = defaults.Risk.MaxDrawdown
	}

	if c.Risk.MaxOrdersPerMinute == 0 {
		c.Risk.MaxOrdersPerMinute = defaults.Risk.MaxOrdersPerMinute
	}

	c.StartTime = optional.None[time.Time]()
	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	c.EndTime = optional.None[time.Time]()
	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks the parsed configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-engine-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON returns the config JSON schema as an indented string.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema := c.GenerateSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to marshal config schema", err)
	}

	return string(data), nil
}
