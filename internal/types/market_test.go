package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) TestSubTicks() {
	date := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	suite.Run("full bars expand to open high low close", func() {
		bar := IndexBar{Date: date, Open: 20010, High: 20050, Low: 19990, Close: 20005}
		suite.Equal([]float64{20010, 20050, 19990, 20005}, bar.SubTicks())
	})

	suite.Run("close-only bars expand to a single tick", func() {
		bar := IndexBar{Date: date, Close: 20005}
		suite.Equal([]float64{20005}, bar.SubTicks())
	})
}
