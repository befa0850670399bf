package types

import "github.com/shopspring/decimal"

// Position represents the current holding for a symbol. The sign of
// QuantityTotal determines direction: positive is long, negative is short.
// A position with zero quantity is never stored; it is removed from the
// ledger instead. AveragePrice is only meaningful while the quantity is
// non-zero.
type Position struct {
	Symbol            string      `yaml:"symbol" json:"symbol"`
	Exchange          Exchange    `yaml:"exchange" json:"exchange"`
	QuantityTotal     float64     `yaml:"quantity_total" json:"quantity_total"`
	QuantityAvailable float64     `yaml:"quantity_available" json:"quantity_available"`
	AveragePrice      float64     `yaml:"average_price" json:"average_price"`
	PnL               float64     `yaml:"pnl" json:"pnl"`
	ProductType       ProductType `yaml:"product_type" json:"product_type"`
}

// IsShort reports whether the position is a short position.
func (p *Position) IsShort() bool {
	return p.QuantityTotal < 0
}

// MarkToMarket recomputes the unrealized P&L of the position against the
// given mark: (mark - average) * quantity for longs, mirrored for shorts.
func (p *Position) MarkToMarket(mark float64) {
	markDec := decimal.NewFromFloat(mark)
	avgDec := decimal.NewFromFloat(p.AveragePrice)
	qtyDec := decimal.NewFromFloat(p.QuantityTotal)

	if p.IsShort() {
		p.PnL, _ = avgDec.Sub(markDec).Mul(qtyDec.Abs()).Float64()
		return
	}

	p.PnL, _ = markDec.Sub(avgDec).Mul(qtyDec).Float64()
}

// NotionalValue is quantity * average price, the position's entry value.
func (p *Position) NotionalValue() float64 {
	value, _ := decimal.NewFromFloat(p.QuantityTotal).
		Mul(decimal.NewFromFloat(p.AveragePrice)).
		Float64()

	return value
}

// Funds is the derived account state. It is never stored; the driver
// recomputes it on demand from cash and open positions.
type Funds struct {
	AvailableCash float64 `yaml:"available_cash" json:"available_cash"`
	Equity        float64 `yaml:"equity" json:"equity"`
	UsedMargin    float64 `yaml:"used_margin" json:"used_margin"`
	Net           float64 `yaml:"net" json:"net"`
}

// AvailableMargin is the equity not already pledged as margin.
func (f Funds) AvailableMargin() float64 {
	return f.Equity - f.UsedMargin
}
