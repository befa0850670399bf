package strategy

import (
	"testing"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/broker/simulated"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/stretchr/testify/suite"
)

type SurvivorTestSuite struct {
	suite.Suite
}

func TestSurvivorSuite(t *testing.T) {
	suite.Run(t, new(SurvivorTestSuite))
}

func (suite *SurvivorTestSuite) newSurvivorFixture() (*Survivor, *simulated.Driver) {
	driver := simulated.NewDriver(simulated.Options{
		Underlying:     "NIFTY",
		InitialCapital: 1000000,
	}, nil, logger.NewNopLogger())
	driver.SetCurrentTime(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))

	survivor := NewSurvivor(driver, DefaultSurvivorConfig(), logger.NewNopLogger())
	suite.Require().NoError(survivor.OnStart())

	return survivor, driver
}

func tickAt(price float64) types.Tick {
	return types.Tick{LastPrice: price, Timestamp: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)}
}

func (suite *SurvivorTestSuite) TestNoPrefixNoTrades() {
	survivor, driver := suite.newSurvivorFixture()

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))
	suite.Require().NoError(survivor.OnTick(tickAt(20100)))

	suite.Empty(driver.GetTradeBook())
}

func (suite *SurvivorTestSuite) TestFirstTickOnlyArms() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))

	suite.Empty(driver.GetTradeBook())
}

func (suite *SurvivorTestSuite) TestUpMoveSellsPut() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")
	driver.SetPrice("NIFTY26JAN20050PE", 150)

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))
	suite.Require().NoError(survivor.OnTick(tickAt(20060)))

	trades := driver.GetTradeBook()
	suite.Require().Len(trades, 1)
	suite.Equal("NIFTY26JAN20050PE", trades[0].Order.Symbol)
	suite.Equal(types.TransactionTypeSell, trades[0].Order.TransactionType)
	suite.Equal(25.0, trades[0].ExecutedQty)
	suite.Equal(150.0, trades[0].ExecutedPrice)

	// the reference re-arms at the triggering price
	suite.Require().NoError(survivor.OnTick(tickAt(20060)))
	suite.Len(driver.GetTradeBook(), 1)
}

func (suite *SurvivorTestSuite) TestDownMoveSellsCall() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")
	driver.SetPrice("NIFTY26JAN19950CE", 180)

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))
	suite.Require().NoError(survivor.OnTick(tickAt(19940)))

	trades := driver.GetTradeBook()
	suite.Require().Len(trades, 1)
	suite.Equal("NIFTY26JAN19950CE", trades[0].Order.Symbol)
	suite.Equal(25.0, trades[0].ExecutedQty)
}

func (suite *SurvivorTestSuite) TestMoveScalesQuantity() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")
	driver.SetPrice("NIFTY26JAN20150PE", 110)

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))
	// 130 points is two full gaps
	suite.Require().NoError(survivor.OnTick(tickAt(20130)))

	trades := driver.GetTradeBook()
	suite.Require().Len(trades, 1)
	suite.Equal(50.0, trades[0].ExecutedQty)
}

func (suite *SurvivorTestSuite) TestMultiplierIsCapped() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")
	driver.SetPrice("NIFTY26JAN20350PE", 90)

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))
	// 350 points is seven gaps, capped at five
	suite.Require().NoError(survivor.OnTick(tickAt(20350)))

	trades := driver.GetTradeBook()
	suite.Require().Len(trades, 1)
	suite.Equal(125.0, trades[0].ExecutedQty)
}

func (suite *SurvivorTestSuite) TestRejectionKeepsReference() {
	survivor, driver := suite.newSurvivorFixture()
	survivor.RefreshInstruments("NIFTY26JAN")

	suite.Require().NoError(survivor.OnTick(tickAt(20000)))

	// no mark for the contract, so the sale is rejected
	suite.Require().NoError(survivor.OnTick(tickAt(20060)))
	suite.Empty(driver.GetTradeBook())

	// once a price exists the unchanged reference re-triggers
	driver.SetPrice("NIFTY26JAN20050PE", 150)
	suite.Require().NoError(survivor.OnTick(tickAt(20060)))
	suite.Len(driver.GetTradeBook(), 1)
}

func (suite *SurvivorTestSuite) TestConfigDefaults() {
	config := DefaultSurvivorConfig()
	suite.Require().NoError(config.Validate())

	config.PeGap = -1
	suite.Error(config.Validate())
}
