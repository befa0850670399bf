package broker

import (
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/moznion/go-optional"
)

// Broker is the execution backend contract the core depends on. Any live or
// simulated venue must implement exactly this set; the core never depends on
// venue-specific details.
type Broker interface {
	// PlaceOrder submits an order. Rejections come back as structured
	// OrderResponse values so strategies can branch on them.
	PlaceOrder(request types.OrderRequest) types.OrderResponse
	// CancelOrder cancels an order by id.
	CancelOrder(orderID string) types.OrderResponse
	// ModifyOrder modifies a resting order by id.
	ModifyOrder(orderID string, request types.OrderRequest) types.OrderResponse
	// GetQuote returns the latest known quote for a symbol.
	GetQuote(symbol string) types.Quote
	// GetPositions returns the current open positions.
	GetPositions() []types.Position
	// GetFunds returns the derived account state.
	GetFunds() types.Funds
	// GetOptionChain returns the near-month option chain snapshot as of the
	// given instant.
	GetOptionChain(symbol string, asof time.Time) optional.Option[types.OptionChainSnapshot]
	// DownloadInstruments refreshes the tradable instrument table.
	DownloadInstruments() error
	// GetInstruments returns the current instrument table.
	GetInstruments() []types.Instrument
}

// Factory maps backend names to constructors. It is passed explicitly at
// construction; there is no process-wide registry.
type Factory map[string]func() (Broker, error)

// Create builds the backend registered under name.
func (f Factory) Create(name string) (Broker, error) {
	constructor, ok := f[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown broker %q", name)
	}

	return constructor()
}
