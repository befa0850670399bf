package types

import "time"

// Quote is the latest known price view for a symbol.
type Quote struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Exchange  Exchange  `yaml:"exchange" json:"exchange"`
	LastPrice float64   `yaml:"last_price" json:"last_price"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// Tick is the price event delivered to a strategy callback.
type Tick struct {
	LastPrice float64   `yaml:"last_price" json:"last_price"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// IndexBar is one daily bar of the index series.
type IndexBar struct {
	Date  time.Time `yaml:"date" json:"date"`
	Open  float64   `yaml:"open" json:"open"`
	High  float64   `yaml:"high" json:"high"`
	Low   float64   `yaml:"low" json:"low"`
	Close float64   `yaml:"close" json:"close"`
}

// SubTicks expands the bar into the ordered intraday price path used by the
// scheduler: Open, High, Low, Close when the bar carries a full OHLC set,
// otherwise the single closing price. The fixed ordering is a deliberate
// approximation of intraday path dependency from daily bars.
func (b IndexBar) SubTicks() []float64 {
	if b.Open == 0 && b.High == 0 && b.Low == 0 {
		return []float64{b.Close}
	}

	return []float64{b.Open, b.High, b.Low, b.Close}
}

// Instrument is one tradable contract row from the instrument table the
// driver materializes out of the option chain.
type Instrument struct {
	Symbol         string  `yaml:"symbol" json:"symbol"`
	Strike         float64 `yaml:"strike" json:"strike"`
	LotSize        float64 `yaml:"lot_size" json:"lot_size"`
	InstrumentType string  `yaml:"instrument_type" json:"instrument_type"`
	Segment        string  `yaml:"segment" json:"segment"`
}
