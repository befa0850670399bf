package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	OptionTypeCall = "CE"
	OptionTypePut  = "PE"
)

// OptionRow is one strike row of an option chain table.
type OptionRow struct {
	Date            time.Time `yaml:"date" json:"date"`
	Expiry          time.Time `yaml:"expiry" json:"expiry"`
	Strike          float64   `yaml:"strike" json:"strike"`
	OptionType      string    `yaml:"option_type" json:"option_type"`
	LTP             float64   `yaml:"ltp" json:"ltp"`
	Close           float64   `yaml:"close" json:"close"`
	UnderlyingValue float64   `yaml:"underlying_value" json:"underlying_value"`
	// Symbol is the synthesized canonical symbol for the row,
	// e.g. NIFTY26FEB25500CE.
	Symbol string `yaml:"symbol" json:"symbol"`
}

// OptionChainSnapshot is the near-month option chain as of a date. It is
// recomputed per query and never cached across calls.
type OptionChainSnapshot struct {
	Date   time.Time   `yaml:"date" json:"date"`
	Expiry time.Time   `yaml:"expiry" json:"expiry"`
	Calls  []OptionRow `yaml:"calls" json:"calls"`
	Puts   []OptionRow `yaml:"puts" json:"puts"`
}

// ContractPrefix returns the contract-month prefix of the snapshot,
// e.g. NIFTY26FEB, used by the scheduler to detect contract rolls.
// Returns an empty string when the snapshot has no rows.
func (s OptionChainSnapshot) ContractPrefix(underlying string) string {
	if len(s.Calls) == 0 && len(s.Puts) == 0 {
		return ""
	}

	if s.Expiry.IsZero() {
		return ""
	}

	return ContractSymbolPrefix(underlying, s.Expiry)
}

// ContractSymbolPrefix builds the contract-month symbol prefix from the
// underlying name and an expiry, e.g. NIFTY26FEB.
func ContractSymbolPrefix(underlying string, expiry time.Time) string {
	return fmt.Sprintf("%s%s%s",
		underlying,
		expiry.Format("06"),
		strings.ToUpper(expiry.Format("Jan")),
	)
}

// OptionSymbol synthesizes the canonical symbol for a contract:
// underlying + two-digit expiry year + expiry month abbreviation +
// integer strike + option type, e.g. NIFTY26FEB25500CE.
func OptionSymbol(underlying string, expiry time.Time, strike float64, optionType string) string {
	return fmt.Sprintf("%s%d%s", ContractSymbolPrefix(underlying, expiry), int(strike), optionType)
}
