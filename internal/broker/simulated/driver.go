// Package simulated implements the Broker contract against an in-memory
// ledger, resolving execution prices from simulated marks and historical
// data instead of a live venue.
package simulated

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/broker"
	"github.com/anizeninc-lab/trading-algo/internal/datasource"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultLotSize is the contract multiplier used to convert raw
	// quantity into margin-chargeable units.
	DefaultLotSize = 50.0
	// DefaultMarginPerLot is the fixed margin heuristic charged per short lot.
	DefaultMarginPerLot = 100000.0
)

// Options configures a simulated driver.
type Options struct {
	// Underlying is the index name used for canonical symbol parsing,
	// e.g. "NIFTY".
	Underlying string
	// InitialCapital seeds the cash ledger.
	InitialCapital float64
	// LotSize is the contract multiplier for the margin heuristic.
	LotSize float64
	// MarginPerLot is the margin charged per short lot.
	MarginPerLot float64
}

// Driver is the simulated execution backend. It holds cash, positions, the
// order and trade logs, the simulated clock and the symbol marks. Every
// accepted order fills immediately and fully at the resolved mark; there are
// no partial fills and no resting orders.
type Driver struct {
	logger *logger.Logger
	hist   datasource.HistoricalData
	opts   Options

	cash        float64
	positions   map[string]*types.Position
	orders      []types.Order
	trades      []types.Trade
	marks       map[string]float64
	now         time.Time
	instruments []types.Instrument
}

// NewDriver creates a simulated driver. The historical data provider may be
// nil; price resolution then relies solely on marks set via SetPrice.
func NewDriver(opts Options, hist datasource.HistoricalData, logger *logger.Logger) *Driver {
	if opts.Underlying == "" {
		opts.Underlying = "NIFTY"
	}

	if opts.LotSize == 0 {
		opts.LotSize = DefaultLotSize
	}

	if opts.MarginPerLot == 0 {
		opts.MarginPerLot = DefaultMarginPerLot
	}

	return &Driver{
		logger:      logger,
		hist:        hist,
		opts:        opts,
		cash:        opts.InitialCapital,
		positions:   make(map[string]*types.Position),
		orders:      nil,
		trades:      nil,
		marks:       make(map[string]float64),
		now:         time.Time{},
		instruments: nil,
	}
}

// SetHistoricalData attaches a historical data provider for price fallback.
func (d *Driver) SetHistoricalData(hist datasource.HistoricalData) {
	d.hist = hist
}

// SetCurrentTime advances the simulated clock.
func (d *Driver) SetCurrentTime(t time.Time) {
	d.now = t
}

// CurrentTime returns the simulated clock.
func (d *Driver) CurrentTime() time.Time {
	return d.now
}

// SetPrice updates the mark for a symbol and recomputes the unrealized P&L
// of any open position on it.
func (d *Driver) SetPrice(symbol string, price float64) {
	d.marks[symbol] = price

	if pos, ok := d.positions[symbol]; ok {
		pos.MarkToMarket(price)
	}
}

// PlaceOrder implements broker.Broker. The execution price is the current
// mark, falling back to historical lookups for option and index symbols.
// Sell orders are subject to the per-lot margin heuristic.
func (d *Driver) PlaceOrder(request types.OrderRequest) types.OrderResponse {
	if err := request.Validate(); err != nil {
		return types.Rejected(errors.ErrCodeInvalidOrderRequest, err.Error())
	}

	price := d.resolvePrice(request.Symbol)
	if price == 0 {
		d.logger.Warn("order rejected: no price available", zap.String("symbol", request.Symbol))

		return types.Rejected(errors.ErrCodeNoPriceAvailable, fmt.Sprintf("no price for %s", request.Symbol))
	}

	if request.TransactionType == types.TransactionTypeSell {
		required := request.Quantity / d.opts.LotSize * d.opts.MarginPerLot

		funds := d.GetFunds()
		if required > funds.AvailableMargin() {
			d.logger.Warn("order rejected: insufficient margin",
				zap.String("symbol", request.Symbol),
				zap.Float64("required", required),
				zap.Float64("available", funds.AvailableMargin()),
			)

			return types.Rejected(errors.ErrCodeInsufficientMargin, "insufficient margin")
		}
	}

	order := types.Order{
		OrderID:         fmt.Sprintf("BT%d", len(d.orders)+1),
		Symbol:          request.Symbol,
		Exchange:        request.Exchange,
		TransactionType: request.TransactionType,
		Quantity:        request.Quantity,
		OrderType:       request.OrderType,
		Price:           price,
		Status:          types.OrderStatusComplete,
		Timestamp:       d.now,
		Tag:             request.Tag,
	}
	d.orders = append(d.orders, order)

	d.applyFill(order)

	return types.Accepted(order.OrderID)
}

// applyFill mutates cash and positions for an instantaneous full fill and
// appends the trade record.
func (d *Driver) applyFill(order types.Order) {
	qty := decimal.NewFromFloat(order.Quantity)
	price := decimal.NewFromFloat(order.Price)
	tradeValue := qty.Mul(price)

	cash := decimal.NewFromFloat(d.cash)

	if order.TransactionType == types.TransactionTypeBuy {
		d.cash, _ = cash.Sub(tradeValue).Float64()
		d.applyBuy(order)
	} else {
		d.cash, _ = cash.Add(tradeValue).Float64()
		d.applySell(order)
	}

	if pos, ok := d.positions[order.Symbol]; ok {
		mark, marked := d.marks[order.Symbol]
		if !marked || mark == 0 {
			mark = order.Price
		}

		pos.MarkToMarket(mark)
	}

	d.trades = append(d.trades, types.Trade{
		Order:         order,
		ExecutedAt:    order.Timestamp,
		ExecutedQty:   order.Quantity,
		ExecutedPrice: order.Price,
	})
}

func (d *Driver) applyBuy(order types.Order) {
	pos, ok := d.positions[order.Symbol]
	if !ok {
		d.positions[order.Symbol] = newPosition(order, order.Quantity)

		return
	}

	newQty := pos.QuantityTotal + order.Quantity

	switch {
	case newQty == 0:
		// flat positions are removed, never stored
		delete(d.positions, order.Symbol)

		return
	case pos.QuantityTotal > 0:
		pos.AveragePrice = blendAverage(pos.QuantityTotal, pos.AveragePrice, order.Quantity, order.Price)
	case newQty > 0:
		// short flipped to long: close the old lot, open fresh at the
		// traded price
		pos.AveragePrice = order.Price
	}

	pos.QuantityTotal = newQty
	pos.QuantityAvailable = newQty
}

func (d *Driver) applySell(order types.Order) {
	pos, ok := d.positions[order.Symbol]
	if !ok {
		// direct shorting opens a negative-quantity position
		d.positions[order.Symbol] = newPosition(order, -order.Quantity)

		return
	}

	newQty := pos.QuantityTotal - order.Quantity

	switch {
	case newQty == 0:
		delete(d.positions, order.Symbol)

		return
	case pos.QuantityTotal < 0:
		pos.AveragePrice = blendAverage(-pos.QuantityTotal, pos.AveragePrice, order.Quantity, order.Price)
	case newQty < 0:
		// long flipped to short
		pos.AveragePrice = order.Price
	}

	pos.QuantityTotal = newQty
	pos.QuantityAvailable = newQty
}

// blendAverage is the quantity-weighted mean of the existing lot and the new
// fill. Quantities are passed as positive magnitudes.
func blendAverage(oldQty, oldAvg, fillQty, fillPrice float64) float64 {
	oldValue := decimal.NewFromFloat(oldQty).Mul(decimal.NewFromFloat(oldAvg))
	fillValue := decimal.NewFromFloat(fillQty).Mul(decimal.NewFromFloat(fillPrice))
	total := decimal.NewFromFloat(oldQty).Add(decimal.NewFromFloat(fillQty))

	avg, _ := oldValue.Add(fillValue).Div(total).Float64()

	return avg
}

func newPosition(order types.Order, signedQty float64) *types.Position {
	return &types.Position{
		Symbol:            order.Symbol,
		Exchange:          order.Exchange,
		QuantityTotal:     signedQty,
		QuantityAvailable: signedQty,
		AveragePrice:      order.Price,
		PnL:               0,
		ProductType:       types.ProductTypeMargin,
	}
}

// CancelOrder implements broker.Broker. The driver has no resting orders,
// so cancellation reports success as already filled.
func (d *Driver) CancelOrder(orderID string) types.OrderResponse {
	return types.OrderResponse{
		Status:  types.OrderStatusComplete,
		OrderID: orderID,
		Message: "order already executed or cancelled",
	}
}

// ModifyOrder implements broker.Broker. Unsupported: there is no resting
// state to modify.
func (d *Driver) ModifyOrder(orderID string, _ types.OrderRequest) types.OrderResponse {
	return types.OrderResponse{
		Status:  types.OrderStatusRejected,
		OrderID: orderID,
		Code:    errors.ErrCodeOrderUnsupported,
		Message: "modification not supported by the simulated driver",
	}
}

// resolvePrice resolves the latest mark for a symbol, consulting the
// historical provider for option and index symbols when no mark exists.
func (d *Driver) resolvePrice(symbol string) float64 {
	if price, ok := d.marks[symbol]; ok && price != 0 {
		return price
	}

	if d.hist == nil || d.now.IsZero() {
		return 0
	}

	if datasource.IsOptionSymbol(d.opts.Underlying, symbol) {
		return d.hist.GetOptionPrice(symbol, d.now)
	}

	if strings.Contains(symbol, d.opts.Underlying) {
		return d.hist.GetIndexPrice(d.now).TakeOr(0)
	}

	return 0
}

// GetQuote implements broker.Broker.
func (d *Driver) GetQuote(symbol string) types.Quote {
	exchange := types.ExchangeNSE
	if datasource.IsOptionSymbol(d.opts.Underlying, symbol) {
		exchange = types.ExchangeNFO
	}

	name := symbol
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}

	return types.Quote{
		Symbol:    name,
		Exchange:  exchange,
		LastPrice: d.resolvePrice(symbol),
		Timestamp: d.now,
	}
}

// GetPositions implements broker.Broker. Positions are returned as copies
// sorted by symbol so callers cannot mutate the ledger.
func (d *Driver) GetPositions() []types.Position {
	positions := make([]types.Position, 0, len(d.positions))
	for _, pos := range d.positions {
		positions = append(positions, *pos)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions
}

// HeldSymbols returns the symbols with open positions, sorted.
func (d *Driver) HeldSymbols() []string {
	symbols := make([]string, 0, len(d.positions))
	for symbol := range d.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// GetFunds implements broker.Broker. Funds are derived on demand:
// equity = cash + sum over positions of (P&L + entry value); used margin is
// the per-lot heuristic summed over short positions.
func (d *Driver) GetFunds() types.Funds {
	equity := decimal.NewFromFloat(d.cash)
	usedMargin := decimal.Zero

	for _, pos := range d.positions {
		equity = equity.
			Add(decimal.NewFromFloat(pos.PnL)).
			Add(decimal.NewFromFloat(pos.NotionalValue()))

		if pos.IsShort() {
			lots := decimal.NewFromFloat(-pos.QuantityTotal).Div(decimal.NewFromFloat(d.opts.LotSize))
			usedMargin = usedMargin.Add(lots.Mul(decimal.NewFromFloat(d.opts.MarginPerLot)))
		}
	}

	equityF, _ := equity.Float64()
	marginF, _ := usedMargin.Float64()

	return types.Funds{
		AvailableCash: d.cash,
		Equity:        equityF,
		UsedMargin:    marginF,
		Net:           equityF,
	}
}

// GetOptionChain implements broker.Broker.
func (d *Driver) GetOptionChain(_ string, asof time.Time) optional.Option[types.OptionChainSnapshot] {
	if d.hist == nil {
		return optional.None[types.OptionChainSnapshot]()
	}

	return d.hist.GetOptionChain(asof)
}

// DownloadInstruments implements broker.Broker. It materializes the
// instrument table from the current option chain.
func (d *Driver) DownloadInstruments() error {
	if d.hist == nil || d.now.IsZero() {
		return nil
	}

	chain := d.hist.GetOptionChain(d.now)
	if chain.IsNone() {
		return nil
	}

	snapshot := chain.Unwrap()
	instruments := make([]types.Instrument, 0, len(snapshot.Calls)+len(snapshot.Puts))

	for _, row := range append(snapshot.Calls, snapshot.Puts...) {
		instruments = append(instruments, types.Instrument{
			Symbol:         row.Symbol,
			Strike:         row.Strike,
			LotSize:        d.opts.LotSize,
			InstrumentType: row.OptionType,
			Segment:        "NFO-OPT",
		})
	}

	d.instruments = instruments

	return nil
}

// GetInstruments implements broker.Broker.
func (d *Driver) GetInstruments() []types.Instrument {
	return d.instruments
}

// SetInstruments overrides the instrument table. Useful when no chain data
// is loaded.
func (d *Driver) SetInstruments(instruments []types.Instrument) {
	d.instruments = instruments
}

// GetOrderBook returns the order log.
func (d *Driver) GetOrderBook() []types.Order {
	return append([]types.Order(nil), d.orders...)
}

// GetTradeBook returns the trade log.
func (d *Driver) GetTradeBook() []types.Trade {
	return append([]types.Trade(nil), d.trades...)
}

// TradeCount returns the length of the trade log. The scheduler uses the
// before/after delta of this count to charge its daily throttle.
func (d *Driver) TradeCount() int {
	return len(d.trades)
}

// Reset clears the ledger back to a fresh state with the given capital.
func (d *Driver) Reset(initialCapital float64) {
	d.cash = initialCapital
	d.opts.InitialCapital = initialCapital
	d.positions = make(map[string]*types.Position)
	d.orders = nil
	d.trades = nil
	d.marks = make(map[string]float64)
	d.now = time.Time{}
	d.instruments = nil
}

var _ broker.Broker = (*Driver)(nil)
