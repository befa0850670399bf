package datasource

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/anizeninc-lab/trading-algo/pkg/errors"
)

var monthAbbrev = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

// ContractRef is the decomposition of a canonical option symbol like
// NIFTY26FEB25500CE.
type ContractRef struct {
	Underlying string
	ExpiryYear int
	ExpiryMon  time.Month
	Strike     float64
	OptionType string
}

// symbolPattern builds the regexp matching canonical symbols for the
// given underlying.
func symbolPattern(underlying string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s(\d{2})([A-Z]{3})(\d+)(CE|PE)$`, regexp.QuoteMeta(underlying)))
}

// ParseOptionSymbol decomposes a canonical option symbol into its contract
// reference parts.
func ParseOptionSymbol(underlying string, symbol string) (ContractRef, error) {
	match := symbolPattern(underlying).FindStringSubmatch(symbol)
	if match == nil {
		return ContractRef{}, errors.Newf(errors.ErrCodeInvalidSymbol, "unparseable option symbol: %s", symbol)
	}

	year, err := strconv.Atoi(match[1])
	if err != nil {
		return ContractRef{}, errors.Wrapf(errors.ErrCodeInvalidSymbol, err, "invalid expiry year in symbol: %s", symbol)
	}

	month, ok := monthAbbrev[match[2]]
	if !ok {
		return ContractRef{}, errors.Newf(errors.ErrCodeInvalidSymbol, "invalid expiry month in symbol: %s", symbol)
	}

	strike, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return ContractRef{}, errors.Wrapf(errors.ErrCodeInvalidSymbol, err, "invalid strike in symbol: %s", symbol)
	}

	return ContractRef{
		Underlying: underlying,
		ExpiryYear: 2000 + year,
		ExpiryMon:  month,
		Strike:     strike,
		OptionType: match[4],
	}, nil
}

// IsOptionSymbol reports whether the symbol looks like a canonical option
// contract for the given underlying.
func IsOptionSymbol(underlying string, symbol string) bool {
	return symbolPattern(underlying).MatchString(symbol)
}
