package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Result is the final metrics record of a backtest run, computed from the
// execution ledger after the historical stream is exhausted.
type Result struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp       time.Time `yaml:"timestamp" json:"timestamp"`
	InitialCapital  float64   `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity     float64   `yaml:"final_equity" json:"final_equity"`
	TotalPnL        float64   `yaml:"total_pnl" json:"total_pnl"`
	TotalPnLPercent float64   `yaml:"total_pnl_percent" json:"total_pnl_percent"`
	TotalTrades     int       `yaml:"total_trades" json:"total_trades"`
	Trades          []Trade   `yaml:"trades" json:"trades"`
}

// WriteResult persists the result record to the given path as YAML.
func WriteResult(path string, result Result) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result to file: %w", err)
	}

	return nil
}
