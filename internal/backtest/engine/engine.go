// Package engine implements the tick scheduler: it replays the historical
// index series through the simulated execution driver, expanding daily bars
// into ordered sub-ticks and driving the strategy callback under a per-date
// trade throttle.
package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/broker"
	"github.com/anizeninc-lab/trading-algo/internal/broker/simulated"
	"github.com/anizeninc-lab/trading-algo/internal/datasource"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/risk"
	"github.com/anizeninc-lab/trading-algo/internal/runtime"
	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// OnProcessDataCallback is called after each processed row.
type OnProcessDataCallback func(current int, total int)

const dateKeyLayout = "2006-01-02"

// BacktestEngine replays historical rows through the simulated driver and a
// strategy callback. Backtest mode is single-threaded and deterministic:
// ticks are delivered strictly sequentially and each callback runs to
// completion before the next tick is produced.
type BacktestEngine struct {
	config        Config
	log           *logger.Logger
	hist          datasource.HistoricalData
	driver        *simulated.Driver
	gate          *risk.Controller
	strategy      runtime.Strategy
	resultsFolder string

	dailyTradeCount map[string]int
	currentPrefix   string
}

// NewBacktestEngine creates an uninitialized engine.
func NewBacktestEngine() *BacktestEngine {
	return &BacktestEngine{
		config:          DefaultConfig(),
		log:             nil,
		hist:            nil,
		driver:          nil,
		gate:            nil,
		strategy:        nil,
		resultsFolder:   "",
		dailyTradeCount: make(map[string]int),
		currentPrefix:   "",
	}
}

// Initialize parses the YAML configuration and builds the execution driver
// and risk gate.
func (e *BacktestEngine) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &e.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	if e.log == nil {
		var loggerError error

		e.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return loggerError
		}
	}

	e.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	e.driver = simulated.NewDriver(simulated.Options{
		Underlying:     e.config.Underlying,
		InitialCapital: e.config.InitialCapital,
		LotSize:        simulated.DefaultLotSize,
		MarginPerLot:   simulated.DefaultMarginPerLot,
	}, e.hist, e.log)

	e.gate = risk.NewController(e.driver, e.config.Risk, e.log)

	// the velocity window must slide in simulated time, not wall time, or a
	// replay compresses weeks of orders into one real minute
	e.gate.SetClock(e.driver.CurrentTime)

	return nil
}

// SetLogger overrides the engine logger. Call before Initialize so the
// driver and risk gate inherit it.
func (e *BacktestEngine) SetLogger(log *logger.Logger) {
	e.log = log
}

// Logger returns the engine logger. Nil before Initialize.
func (e *BacktestEngine) Logger() *logger.Logger {
	return e.log
}

// SetDataSource attaches the historical data provider used for index bars,
// option chains and price fallback.
func (e *BacktestEngine) SetDataSource(hist datasource.HistoricalData) error {
	e.hist = hist

	if e.driver != nil {
		e.driver.SetHistoricalData(hist)
	}

	return nil
}

// SetStrategy attaches the strategy receiving tick callbacks.
func (e *BacktestEngine) SetStrategy(strategy runtime.Strategy) error {
	e.strategy = strategy

	return nil
}

// SetResultsFolder sets the folder where final metrics are persisted. When
// empty, results are returned but not written.
func (e *BacktestEngine) SetResultsFolder(folder string) error {
	e.resultsFolder = folder

	return nil
}

// Broker returns the risk-gated execution backend strategies should trade
// through.
func (e *BacktestEngine) Broker() broker.Broker {
	return e.gate
}

// Driver returns the underlying simulated driver.
func (e *BacktestEngine) Driver() *simulated.Driver {
	return e.driver
}

// GetConfigSchema returns the JSON schema of the engine configuration.
func (e *BacktestEngine) GetConfigSchema() (string, error) {
	return e.config.GenerateSchemaJSON()
}

func (e *BacktestEngine) preRunCheck() error {
	if e.driver == nil || e.gate == nil {
		return errors.New(errors.ErrCodeBacktestConfigError, "engine not initialized")
	}

	if e.strategy == nil {
		return errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy loaded")
	}

	if e.hist == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no data source set")
	}

	return nil
}

// Run replays the historical stream. The first row only seeds the initial
// mark and simulated clock; trading starts on the next row. Input faults are
// reported before any ledger mutation occurs.
func (e *BacktestEngine) Run(onProcessData optional.Option[OnProcessDataCallback]) (types.Result, error) {
	if err := e.preRunCheck(); err != nil {
		return types.Result{}, err
	}

	total, err := e.hist.Count(e.config.StartTime, e.config.EndTime)
	if err != nil {
		return types.Result{}, err
	}

	if total == 0 {
		e.log.Error("Cannot run backtest with empty data")

		return types.Result{}, errors.New(errors.ErrCodeBacktestEmptyData, "historical stream is empty")
	}

	if err := e.strategy.OnStart(); err != nil {
		return types.Result{}, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed to start", e.strategy.Name())
	}

	e.log.Info("Starting backtest loop",
		zap.Int("rows", total),
		zap.Float64("initial_capital", e.config.InitialCapital),
	)

	coldStart := true
	current := 0

	for bar, err := range e.hist.ReadAll(e.config.StartTime, e.config.EndTime) {
		if err != nil {
			return types.Result{}, errors.Wrap(errors.ErrCodeBacktestRunFailed, "failed to read historical row", err)
		}

		e.driver.SetCurrentTime(bar.Date)
		e.checkContractRoll(bar.Date)

		if err := e.driver.DownloadInstruments(); err != nil {
			e.log.Warn("failed to refresh instruments", zap.Error(err))
		}

		if coldStart {
			// first row only seeds the mark and the clock
			e.driver.SetPrice(e.config.IndexSymbol, bar.Close)

			coldStart = false

			e.log.Info("Initialized metrics; trading starts next tick",
				zap.Time("date", bar.Date),
				zap.Float64("price", bar.Close),
			)
		} else {
			if err := e.processBar(bar); err != nil {
				return types.Result{}, err
			}
		}

		funds := e.driver.GetFunds()
		unrealized := 0.0

		for _, pos := range e.driver.GetPositions() {
			unrealized += pos.PnL
		}

		realized := funds.Equity - e.config.InitialCapital - unrealized
		e.gate.UpdateGlobalPnL(realized, unrealized)

		current++

		if onProcessData.IsSome() {
			onProcessData.Unwrap()(current, total)
		}
	}

	result := e.computeResult()

	if e.resultsFolder != "" {
		if err := e.writeResult(result); err != nil {
			return types.Result{}, err
		}
	}

	if err := e.strategy.OnStop(); err != nil {
		e.log.Warn("strategy teardown failed", zap.Error(err))
	}

	return result, nil
}

// processBar expands one bar into its ordered sub-ticks and delivers each to
// the strategy under the per-date throttle.
func (e *BacktestEngine) processBar(bar types.IndexBar) error {
	dateKey := bar.Date.Format(dateKeyLayout)

	for _, price := range bar.SubTicks() {
		e.driver.SetPrice(e.config.IndexSymbol, price)
		e.refreshHeldMarks()

		before := e.driver.TradeCount()

		if e.dailyTradeCount[dateKey] < e.config.MaxTradesPerDay {
			tick := types.Tick{LastPrice: price, Timestamp: bar.Date}

			if err := e.strategy.OnTick(tick); err != nil {
				return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed on tick", e.strategy.Name())
			}
		}

		// charge the throttle by the trade-log delta, not by one: a callback
		// issuing several orders on one tick consumes several slots
		delta := e.driver.TradeCount() - before
		if delta > 0 {
			e.dailyTradeCount[dateKey] += delta

			e.log.Info("Executed trades",
				zap.Int("count", delta),
				zap.Time("date", bar.Date),
				zap.Float64("price", price),
			)
		}
	}

	return nil
}

// refreshHeldMarks re-quotes every held symbol other than the index so
// unrealized P&L tracks the current sub-tick.
func (e *BacktestEngine) refreshHeldMarks() {
	for _, symbol := range e.driver.HeldSymbols() {
		if symbol == e.config.IndexSymbol {
			continue
		}

		quote := e.driver.GetQuote(symbol)
		if quote.LastPrice != 0 {
			e.driver.SetPrice(symbol, quote.LastPrice)
		}
	}
}

// checkContractRoll compares the near-month contract prefix against the one
// the strategy tracks and notifies it exactly once per change.
func (e *BacktestEngine) checkContractRoll(date time.Time) {
	chain := e.hist.GetOptionChain(date)
	if chain.IsNone() {
		return
	}

	prefix := chain.Unwrap().ContractPrefix(e.config.Underlying)
	if prefix == "" || prefix == e.currentPrefix {
		return
	}

	if e.currentPrefix != "" {
		e.log.Info("Rolling contract prefix",
			zap.String("from", e.currentPrefix),
			zap.String("to", prefix),
		)
	}

	e.currentPrefix = prefix
	e.strategy.RefreshInstruments(prefix)
}

func (e *BacktestEngine) computeResult() types.Result {
	funds := e.driver.GetFunds()
	trades := e.driver.GetTradeBook()
	totalPnL := funds.Equity - e.config.InitialCapital

	return types.Result{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		InitialCapital:  e.config.InitialCapital,
		FinalEquity:     funds.Equity,
		TotalPnL:        totalPnL,
		TotalPnLPercent: totalPnL / e.config.InitialCapital * 100,
		TotalTrades:     len(trades),
		Trades:          trades,
	}
}

func (e *BacktestEngine) writeResult(result types.Result) error {
	if err := os.MkdirAll(e.resultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestRunFailed, "failed to create results folder", err)
	}

	path := filepath.Join(e.resultsFolder, "results.yaml")
	if err := types.WriteResult(path, result); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestRunFailed, "failed to persist results", err)
	}

	e.log.Info("Backtest results saved", zap.String("path", path))

	return nil
}
