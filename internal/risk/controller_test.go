package risk

import (
	"testing"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// recordingBackend accepts everything and counts what reaches the venue.
type recordingBackend struct {
	placed    int
	cancelled int
	modified  int
}

func (b *recordingBackend) PlaceOrder(_ types.OrderRequest) types.OrderResponse {
	b.placed++

	return types.Accepted("BT1")
}

func (b *recordingBackend) CancelOrder(orderID string) types.OrderResponse {
	b.cancelled++

	return types.Accepted(orderID)
}

func (b *recordingBackend) ModifyOrder(orderID string, _ types.OrderRequest) types.OrderResponse {
	b.modified++

	return types.Accepted(orderID)
}

func (b *recordingBackend) GetQuote(symbol string) types.Quote {
	return types.Quote{Symbol: symbol}
}

func (b *recordingBackend) GetPositions() []types.Position { return nil }

func (b *recordingBackend) GetFunds() types.Funds { return types.Funds{} }

func (b *recordingBackend) GetOptionChain(_ string, _ time.Time) optional.Option[types.OptionChainSnapshot] {
	return optional.None[types.OptionChainSnapshot]()
}

func (b *recordingBackend) DownloadInstruments() error { return nil }

func (b *recordingBackend) GetInstruments() []types.Instrument { return nil }

func sellRequest() types.OrderRequest {
	return types.OrderRequest{
		Symbol:          "NIFTY26JAN20000CE",
		Exchange:        types.ExchangeNFO,
		TransactionType: types.TransactionTypeSell,
		Quantity:        50,
		OrderType:       types.OrderTypeMarket,
	}
}

type ControllerTestSuite struct {
	suite.Suite
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (suite *ControllerTestSuite) TestDrawdownLatch() {
	suite.Run("loss below the limit keeps orders flowing", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		gate.UpdateGlobalPnL(-4999, 0)

		suite.False(gate.IsHalted())
		suite.True(gate.PlaceOrder(sellRequest()).IsOK())
		suite.Equal(1, backend.placed)
	})

	suite.Run("combined loss at the limit halts placement", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		gate.UpdateGlobalPnL(-3000, -2000)

		suite.Require().True(gate.IsHalted())

		response := gate.PlaceOrder(sellRequest())
		suite.Equal(types.OrderStatusRejected, response.Status)
		suite.Equal(errors.ErrCodeRiskHalted, response.Code)
		suite.Zero(backend.placed)
	})

	suite.Run("the latch never resets on recovery", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		gate.UpdateGlobalPnL(-6000, 0)
		gate.UpdateGlobalPnL(10000, 0)

		suite.True(gate.IsHalted())
		suite.Equal(types.OrderStatusRejected, gate.PlaceOrder(sellRequest()).Status)
	})

	suite.Run("halt blocks modification but never cancellation", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		gate.UpdateGlobalPnL(-6000, 0)

		suite.Equal(types.OrderStatusRejected, gate.ModifyOrder("BT1", sellRequest()).Status)
		suite.Zero(backend.modified)

		suite.True(gate.CancelOrder("BT1").IsOK())
		suite.Equal(1, backend.cancelled)
	})
}

func (suite *ControllerTestSuite) TestVelocityWindow() {
	suite.Run("orders beyond the window limit are rejected", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		clock := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
		gate.SetClock(func() time.Time { return clock })

		for i := 0; i < 30; i++ {
			suite.Require().True(gate.PlaceOrder(sellRequest()).IsOK())
		}

		response := gate.PlaceOrder(sellRequest())
		suite.Equal(types.OrderStatusRejected, response.Status)
		suite.Equal(errors.ErrCodeVelocityExceeded, response.Code)
		suite.Equal(30, backend.placed)
	})

	suite.Run("the window slides rather than resets", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		clock := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
		gate.SetClock(func() time.Time { return clock })

		for i := 0; i < 30; i++ {
			suite.Require().True(gate.PlaceOrder(sellRequest()).IsOK())
		}

		suite.Require().Equal(types.OrderStatusRejected, gate.PlaceOrder(sellRequest()).Status)

		// one second past the window the oldest entries expire
		clock = clock.Add(velocityWindow + time.Second)

		suite.True(gate.PlaceOrder(sellRequest()).IsOK())
		suite.Equal(31, backend.placed)
	})

	suite.Run("rejected orders do not consume window slots", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, Config{MaxDrawdown: 5000, MaxOrdersPerMinute: 2}, logger.NewNopLogger())

		clock := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
		gate.SetClock(func() time.Time { return clock })

		suite.Require().True(gate.PlaceOrder(sellRequest()).IsOK())
		suite.Require().True(gate.PlaceOrder(sellRequest()).IsOK())
		suite.Require().Equal(types.OrderStatusRejected, gate.PlaceOrder(sellRequest()).Status)

		clock = clock.Add(velocityWindow + time.Second)

		// both admitted slots expired together; rejections added nothing
		suite.True(gate.PlaceOrder(sellRequest()).IsOK())
		suite.True(gate.PlaceOrder(sellRequest()).IsOK())
	})

	suite.Run("a stepped clock keeps daily orders outside the window", func() {
		backend := &recordingBackend{}
		gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

		clock := time.Date(2026, time.January, 5, 9, 15, 0, 0, time.UTC)
		gate.SetClock(func() time.Time { return clock })

		// one order per day for forty days never accumulates window entries
		for i := 0; i < 40; i++ {
			suite.Require().True(gate.PlaceOrder(sellRequest()).IsOK())

			clock = clock.AddDate(0, 0, 1)
		}

		suite.Equal(40, backend.placed)
	})
}

func (suite *ControllerTestSuite) TestDelegation() {
	backend := &recordingBackend{}
	gate := NewController(backend, DefaultConfig(), logger.NewNopLogger())

	suite.Equal("NIFTY 50", gate.GetQuote("NIFTY 50").Symbol)
	suite.Nil(gate.GetPositions())
	suite.NoError(gate.DownloadInstruments())
	suite.True(gate.GetOptionChain("NIFTY", time.Now()).IsNone())
}
