package datasource

import (
	"time"

	"github.com/anizeninc-lab/trading-algo/internal/types"
	"github.com/moznion/go-optional"
)

// HistoricalData answers point-in-time price and chain queries over the
// loaded historical tables. Implementations degrade softly: a missing date
// or table yields None or the zero sentinel, never a fatal error.
type HistoricalData interface {
	// Initialize loads the index table and, optionally, the call/put option
	// chain tables from CSV files. Empty chain paths are allowed.
	Initialize(indexPath string, cePath string, pePath string) error
	// GetIndexPrice returns the index close for the calendar date of the
	// given instant, forward-filling from the nearest earlier date. None if
	// the table is empty or the date precedes all data.
	GetIndexPrice(t time.Time) optional.Option[float64]
	// GetOptionChain returns the near-month chain snapshot for the calendar
	// date of the given instant, falling back to the most recent earlier
	// date that has data at all.
	GetOptionChain(t time.Time) optional.Option[types.OptionChainSnapshot]
	// GetOptionPrice resolves a canonical option symbol to a price as of the
	// given instant. Returns 0 when nothing is found; callers must treat the
	// zero sentinel as "unknown", never as a tradable price.
	GetOptionPrice(symbol string, t time.Time) float64
	// ReadAll yields the index bars in ascending date order, optionally
	// restricted to [start, end].
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.IndexBar, error) bool)
	// Count returns the number of index bars in the optional [start, end] range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the underlying storage.
	Close() error
}
