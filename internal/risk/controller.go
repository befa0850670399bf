// Package risk provides the admission-control gate that wraps an execution
// backend. Orders pass through a drawdown latch and a sliding velocity
// window before they reach the venue.
package risk

import (
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/broker"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

const velocityWindow = 60 * time.Second

// Config holds the risk limits for a Controller.
type Config struct {
	// MaxDrawdown is the magnitude of combined P&L loss that permanently
	// halts order placement.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// MaxOrdersPerMinute caps accepted orders inside the sliding 60-second
	// window.
	MaxOrdersPerMinute int `yaml:"max_orders_per_minute" json:"max_orders_per_minute"`
}

// DefaultConfig returns the standing account limits.
func DefaultConfig() Config {
	return Config{
		MaxDrawdown:        5000.0,
		MaxOrdersPerMinute: 30,
	}
}

// Controller guards a Broker with admission control. Once the drawdown latch
// trips, it stays tripped for the lifetime of the controller; there is no
// automatic recovery.
type Controller struct {
	broker broker.Broker
	logger *logger.Logger
	config Config

	globalPnL       float64
	halted          bool
	orderTimestamps []time.Time

	// now is the clock; injectable for tests.
	now func() time.Time
}

// NewController wraps the given backend with admission control.
func NewController(backend broker.Broker, config Config, logger *logger.Logger) *Controller {
	return &Controller{
		broker:          backend,
		logger:          logger,
		config:          config,
		globalPnL:       0,
		halted:          false,
		orderTimestamps: nil,
		now:             time.Now,
	}
}

// SetClock overrides the clock driving the velocity window. Backtests pin it
// to the simulated clock so the window slides in replay time rather than
// wall time.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// UpdateGlobalPnL feeds the latest aggregate realized and unrealized P&L.
// A combined loss at or beyond the configured drawdown trips the halt latch.
func (c *Controller) UpdateGlobalPnL(realized float64, unrealized float64) {
	c.globalPnL = realized + unrealized

	if c.globalPnL <= -c.config.MaxDrawdown {
		if !c.halted {
			c.logger.Error("risk halt: global max drawdown breached",
				zap.Float64("global_pnl", c.globalPnL),
				zap.Float64("max_drawdown", c.config.MaxDrawdown),
			)
		}

		c.halted = true
	}
}

// IsHalted reports whether the drawdown latch has tripped.
func (c *Controller) IsHalted() bool {
	return c.halted
}

// checkVelocity admits an order into the sliding window, pruning entries
// older than the window first.
func (c *Controller) checkVelocity() bool {
	now := c.now()

	live := c.orderTimestamps[:0]

	for _, ts := range c.orderTimestamps {
		if now.Sub(ts) < velocityWindow {
			live = append(live, ts)
		}
	}

	c.orderTimestamps = live

	if len(c.orderTimestamps) >= c.config.MaxOrdersPerMinute {
		c.logger.Error("risk halt: order velocity exceeded",
			zap.Int("window_count", len(c.orderTimestamps)),
			zap.Int("max_per_minute", c.config.MaxOrdersPerMinute),
		)

		return false
	}

	c.orderTimestamps = append(c.orderTimestamps, now)

	return true
}

// PlaceOrder implements broker.Broker. Rejected outright, without
// forwarding, when halted or when the velocity window is full.
func (c *Controller) PlaceOrder(request types.OrderRequest) types.OrderResponse {
	if c.halted {
		c.logger.Warn("order rejected: risk system halted", zap.String("symbol", request.Symbol))

		return types.Rejected(errors.ErrCodeRiskHalted, "risk system halted")
	}

	if !c.checkVelocity() {
		return types.Rejected(errors.ErrCodeVelocityExceeded, "velocity limit exceeded")
	}

	return c.broker.PlaceOrder(request)
}

// CancelOrder implements broker.Broker. Cancellations are never blocked,
// even while halted, since they only reduce exposure.
func (c *Controller) CancelOrder(orderID string) types.OrderResponse {
	return c.broker.CancelOrder(orderID)
}

// ModifyOrder implements broker.Broker.
func (c *Controller) ModifyOrder(orderID string, request types.OrderRequest) types.OrderResponse {
	if c.halted {
		return types.Rejected(errors.ErrCodeRiskHalted, "risk system halted")
	}

	return c.broker.ModifyOrder(orderID, request)
}

// GetQuote implements broker.Broker.
func (c *Controller) GetQuote(symbol string) types.Quote {
	return c.broker.GetQuote(symbol)
}

// GetPositions implements broker.Broker.
func (c *Controller) GetPositions() []types.Position {
	return c.broker.GetPositions()
}

// GetFunds implements broker.Broker.
func (c *Controller) GetFunds() types.Funds {
	return c.broker.GetFunds()
}

// GetOptionChain implements broker.Broker.
func (c *Controller) GetOptionChain(symbol string, asof time.Time) optional.Option[types.OptionChainSnapshot] {
	return c.broker.GetOptionChain(symbol, asof)
}

// DownloadInstruments implements broker.Broker.
func (c *Controller) DownloadInstruments() error {
	return c.broker.DownloadInstruments()
}

// GetInstruments implements broker.Broker.
func (c *Controller) GetInstruments() []types.Instrument {
	return c.broker.GetInstruments()
}

var _ broker.Broker = (*Controller)(nil)
