// Package runtime defines the strategy contract and the cooperative runner
// that executes strategies in live mode.
package runtime

import "github.com/anizeninc-lab/trading-algo/internal/types"

// Strategy is the callback contract the core consumes from a strategy. The
// core knows nothing about entry/exit logic; it only delivers ticks and
// contract-roll notifications.
type Strategy interface {
	// Name identifies the strategy instance.
	Name() string
	// OnStart is the synchronous setup hook run before the first tick.
	OnStart() error
	// OnTick delivers one price event. The callback runs to completion
	// before the next tick is produced.
	OnTick(tick types.Tick) error
	// OnStop is the synchronous teardown hook run after the loop exits.
	OnStop() error
	// RefreshInstruments notifies the strategy that the near-month contract
	// rolled; symbolPrefix is the new contract-month prefix to track.
	RefreshInstruments(symbolPrefix string)
}

// Status is the lifecycle state of a running strategy.
type Status string

const (
	StatusStopped Status = "Stopped"
	StatusRunning Status = "Running"
	StatusError   Status = "Error"
)
