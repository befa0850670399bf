package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ChainTestSuite struct {
	suite.Suite
}

func TestChainSuite(t *testing.T) {
	suite.Run(t, new(ChainTestSuite))
}

func (suite *ChainTestSuite) TestOptionSymbol() {
	expiry := time.Date(2026, time.February, 26, 0, 0, 0, 0, time.UTC)

	suite.Equal("NIFTY26FEB25500CE", OptionSymbol("NIFTY", expiry, 25500, OptionTypeCall))
	suite.Equal("NIFTY26FEB19500PE", OptionSymbol("NIFTY", expiry, 19500, OptionTypePut))
}

func (suite *ChainTestSuite) TestContractSymbolPrefix() {
	suite.Equal("NIFTY26JAN", ContractSymbolPrefix("NIFTY", time.Date(2026, time.January, 29, 0, 0, 0, 0, time.UTC)))
	suite.Equal("NIFTY26DEC", ContractSymbolPrefix("NIFTY", time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func (suite *ChainTestSuite) TestContractPrefix() {
	expiry := time.Date(2026, time.January, 29, 0, 0, 0, 0, time.UTC)

	suite.Run("populated snapshots report their prefix", func() {
		snapshot := OptionChainSnapshot{
			Expiry: expiry,
			Calls:  []OptionRow{{Strike: 20000}},
		}
		suite.Equal("NIFTY26JAN", snapshot.ContractPrefix("NIFTY"))
	})

	suite.Run("empty snapshots report no prefix", func() {
		snapshot := OptionChainSnapshot{Expiry: expiry}
		suite.Empty(snapshot.ContractPrefix("NIFTY"))
	})

	suite.Run("a zero expiry reports no prefix", func() {
		snapshot := OptionChainSnapshot{Calls: []OptionRow{{Strike: 20000}}}
		suite.Empty(snapshot.ContractPrefix("NIFTY"))
	})
}
