package broker_test

import (
	"testing"

	"github.com/anizeninc-lab/trading-algo/internal/broker"
	"github.com/anizeninc-lab/trading-algo/internal/broker/simulated"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type FactoryTestSuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactoryTestSuite))
}

func (suite *FactoryTestSuite) TestCreate() {
	factory := broker.Factory{
		"backtest": func() (broker.Broker, error) {
			return simulated.NewDriver(simulated.Options{InitialCapital: 100000}, nil, logger.NewNopLogger()), nil
		},
	}

	suite.Run("registered names construct", func() {
		backend, err := factory.Create("backtest")
		suite.Require().NoError(err)
		suite.Equal(100000.0, backend.GetFunds().Equity)
	})

	suite.Run("unknown names fail", func() {
		_, err := factory.Create("zerodha")
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
	})
}
