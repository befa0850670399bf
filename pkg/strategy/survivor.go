// Package strategy ships the strategies bundled with the backtester.
package strategy

import (
	"fmt"

	"github.com/anizeninc-lab/trading-algo/internal/broker"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/runtime"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// SurvivorConfig tunes the option-selling behaviour.
type SurvivorConfig struct {
	// IndexSymbol is the underlying index the strategy watches.
	IndexSymbol string `yaml:"index_symbol" json:"index_symbol" validate:"required"`
	// PeGap is the upward index move, in points, that triggers a put sale.
	PeGap float64 `yaml:"pe_gap" json:"pe_gap" validate:"gt=0"`
	// CeGap is the downward index move, in points, that triggers a call sale.
	CeGap float64 `yaml:"ce_gap" json:"ce_gap" validate:"gt=0"`
	// PeQuantity is the base put quantity per trigger.
	PeQuantity float64 `yaml:"pe_quantity" json:"pe_quantity" validate:"gt=0"`
	// CeQuantity is the base call quantity per trigger.
	CeQuantity float64 `yaml:"ce_quantity" json:"ce_quantity" validate:"gt=0"`
	// SellMultiplierThreshold caps how many gap multiples a single trigger
	// may scale the base quantity by.
	SellMultiplierThreshold int `yaml:"sell_multiplier_threshold" json:"sell_multiplier_threshold" validate:"gt=0"`
	// StrikeStep is the strike grid the sold contracts snap to.
	StrikeStep float64 `yaml:"strike_step" json:"strike_step" validate:"gt=0"`
}

// DefaultSurvivorConfig returns the stock tuning for daily NIFTY bars.
func DefaultSurvivorConfig() SurvivorConfig {
	return SurvivorConfig{
		IndexSymbol:             "NIFTY 50",
		PeGap:                   50,
		CeGap:                   50,
		PeQuantity:              25,
		CeQuantity:              25,
		SellMultiplierThreshold: 5,
		StrikeStep:              50,
	}
}

// UnmarshalYAML fills unset fields with defaults.
func (c *SurvivorConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		IndexSymbol             string  `yaml:"index_symbol"`
		PeGap                   float64 `yaml:"pe_gap"`
		CeGap                   float64 `yaml:"ce_gap"`
		PeQuantity              float64 `yaml:"pe_quantity"`
		CeQuantity              float64 `yaml:"ce_quantity"`
		SellMultiplierThreshold int     `yaml:"sell_multiplier_threshold"`
		StrikeStep              float64 `yaml:"strike_step"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	defaults := DefaultSurvivorConfig()

	c.IndexSymbol = raw.IndexSymbol
	if c.IndexSymbol == "" {
		c.IndexSymbol = defaults.IndexSymbol
	}

	c.PeGap = raw.PeGap
	if c.PeGap == 0 {
		c.PeGap = defaults.PeGap
	}

	c.CeGap = raw.CeGap
	if c.CeGap == 0 {
		c.CeGap = defaults.CeGap
	}

	c.PeQuantity = raw.PeQuantity
	if c.PeQuantity == 0 {
		c.PeQuantity = defaults.PeQuantity
	}

	c.CeQuantity = raw.CeQuantity
	if c.CeQuantity == 0 {
		c.CeQuantity = defaults.CeQuantity
	}

	c.SellMultiplierThreshold = raw.SellMultiplierThreshold
	if c.SellMultiplierThreshold == 0 {
		c.SellMultiplierThreshold = defaults.SellMultiplierThreshold
	}

	c.StrikeStep = raw.StrikeStep
	if c.StrikeStep == 0 {
		c.StrikeStep = defaults.StrikeStep
	}

	return nil
}

// Validate checks the configuration.
func (c *SurvivorConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid survivor config", err)
	}

	return nil
}

// Survivor sells out-of-the-money options against sustained index moves:
// an upward move of PeGap points sells puts, a downward move of CeGap points
// sells calls. Each side keeps its own reference price and re-arms at the
// triggering tick.
type Survivor struct {
	broker broker.Broker
	config SurvivorConfig
	logger *logger.Logger

	prefix string
	peRef  optional.Option[float64]
	ceRef  optional.Option[float64]
}

// NewSurvivor creates the strategy against an execution backend.
func NewSurvivor(b broker.Broker, config SurvivorConfig, log *logger.Logger) *Survivor {
	return &Survivor{
		broker: b,
		config: config,
		logger: log,
		prefix: "",
		peRef:  optional.None[float64](),
		ceRef:  optional.None[float64](),
	}
}

// Name implements runtime.Strategy.
func (s *Survivor) Name() string {
	return "survivor"
}

// OnStart implements runtime.Strategy.
func (s *Survivor) OnStart() error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.peRef = optional.None[float64]()
	s.ceRef = optional.None[float64]()

	if err := s.broker.DownloadInstruments(); err != nil {
		s.logger.Warn("instrument download failed", zap.Error(err))
	}

	s.logger.Info("Survivor armed",
		zap.Float64("pe_gap", s.config.PeGap),
		zap.Float64("ce_gap", s.config.CeGap),
	)

	return nil
}

// OnTick implements runtime.Strategy.
func (s *Survivor) OnTick(tick types.Tick) error {
	price := tick.LastPrice
	if price == 0 || s.prefix == "" {
		return nil
	}

	if s.peRef.IsNone() {
		s.peRef = optional.Some(price)
		s.ceRef = optional.Some(price)

		return nil
	}

	if move := price - s.peRef.Unwrap(); move >= s.config.PeGap {
		if s.sell(types.OptionTypePut, price, move, s.config.PeGap, s.config.PeQuantity) {
			s.peRef = optional.Some(price)
		}
	}

	if move := s.ceRef.Unwrap() - price; move >= s.config.CeGap {
		if s.sell(types.OptionTypeCall, price, move, s.config.CeGap, s.config.CeQuantity) {
			s.ceRef = optional.Some(price)
		}
	}

	return nil
}

// sell submits one scaled sell order and reports whether it was accepted.
func (s *Survivor) sell(optionType string, price, move, gap, baseQty float64) bool {
	multiplier := int(move / gap)
	if multiplier > s.config.SellMultiplierThreshold {
		multiplier = s.config.SellMultiplierThreshold
	}

	strike := s.roundStrike(price)
	symbol := fmt.Sprintf("%s%d%s", s.prefix, int(strike), optionType)
	quantity := baseQty * float64(multiplier)

	response := s.broker.PlaceOrder(types.OrderRequest{
		Symbol:          symbol,
		Exchange:        types.ExchangeNFO,
		TransactionType: types.TransactionTypeSell,
		Quantity:        quantity,
		OrderType:       types.OrderTypeMarket,
		ProductType:     types.ProductTypeMargin,
		Tag:             "survivor",
	})
	if !response.IsOK() {
		s.logger.Warn("sell rejected",
			zap.String("symbol", symbol),
			zap.Float64("quantity", quantity),
			zap.String("reason", response.Message),
		)

		return false
	}

	s.logger.Info("Sold option",
		zap.String("symbol", symbol),
		zap.Float64("quantity", quantity),
		zap.String("order_id", response.OrderID),
	)

	return true
}

func (s *Survivor) roundStrike(price float64) float64 {
	step := s.config.StrikeStep

	return float64(int(price/step+0.5)) * step
}

// OnStop implements runtime.Strategy.
func (s *Survivor) OnStop() error {
	s.logger.Info("Survivor stopped")

	return nil
}

// RefreshInstruments implements runtime.Strategy. The scheduler calls it when
// the near-month contract rolls; pending references survive the roll.
func (s *Survivor) RefreshInstruments(symbolPrefix string) {
	if s.prefix != "" {
		s.logger.Info("Contract prefix rolled",
			zap.String("from", s.prefix),
			zap.String("to", symbolPrefix),
		)
	}

	s.prefix = symbolPrefix
}

var _ runtime.Strategy = (*Survivor)(nil)
