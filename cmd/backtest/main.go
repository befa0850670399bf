package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anizeninc-lab/trading-algo/internal/backtest/engine"
	"github.com/anizeninc-lab/trading-algo/internal/datasource"
	"github.com/anizeninc-lab/trading-algo/internal/logger"
	"github.com/anizeninc-lab/trading-algo/internal/version"
	"github.com/anizeninc-lab/trading-algo/pkg/strategy"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"
)

// backtestAction wires the historical provider, the simulated venue and the
// survivor strategy together and replays the data.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	indexPath := cmd.String("index")
	cePath := cmd.String("ce")
	pePath := cmd.String("pe")
	configPath := cmd.String("config")
	strategyConfigPath := cmd.String("strategy-config")
	resultsFolder := cmd.String("results")

	engineConfig := ""

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read engine config: %w", err)
		}

		engineConfig = string(data)
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	backtester := engine.NewBacktestEngine()
	backtester.SetLogger(log)

	if err := backtester.Initialize(engineConfig); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	provider, err := datasource.NewDuckDBProvider(cmd.String("underlying"), log)
	if err != nil {
		return fmt.Errorf("failed to create data provider: %w", err)
	}
	defer provider.Close()

	if err := provider.Initialize(indexPath, cePath, pePath); err != nil {
		return fmt.Errorf("failed to load historical data: %w", err)
	}

	if err := backtester.SetDataSource(provider); err != nil {
		return err
	}

	strategyConfig := strategy.DefaultSurvivorConfig()

	if strategyConfigPath != "" {
		data, err := os.ReadFile(strategyConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read strategy config: %w", err)
		}

		if err := yaml.Unmarshal(data, &strategyConfig); err != nil {
			return fmt.Errorf("failed to parse strategy config: %w", err)
		}
	}

	survivor := strategy.NewSurvivor(backtester.Broker(), strategyConfig, log)
	if err := backtester.SetStrategy(survivor); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	callback := engine.OnProcessDataCallback(func(current, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		_ = bar.Set(current)
	})

	result, err := backtester.Run(optional.Some(callback))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Printf("\nBacktest Summary:\n")
	fmt.Printf("Final Equity: %.2f\n", result.FinalEquity)
	fmt.Printf("Total P&L: %.2f (%.2f%%)\n", result.TotalPnL, result.TotalPnLPercent)
	fmt.Printf("Total Trades: %d\n", result.TotalTrades)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay the survivor strategy over historical index and option chain data",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "Path to the index OHLC CSV file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "ce",
				Usage:    "Path to the call option chain CSV file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "pe",
				Usage:    "Path to the put option chain CSV file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "underlying",
				Aliases:  []string{"u"},
				Usage:    "Underlying name used in canonical option symbols",
				Value:    "NIFTY",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine configuration YAML",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "strategy-config",
				Aliases:  []string{"s"},
				Usage:    "Path to the survivor strategy configuration YAML",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "results",
				Aliases:  []string{"r"},
				Usage:    "Folder where results.yaml is written",
				Value:    "backtest_results",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
