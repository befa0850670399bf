package types

import (
	"testing"

	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/stretchr/testify/suite"
)

func validRequest() OrderRequest {
	return OrderRequest{
		Symbol:          "NIFTY26JAN20000CE",
		Exchange:        ExchangeNFO,
		TransactionType: TransactionTypeSell,
		Quantity:        50,
		OrderType:       OrderTypeMarket,
	}
}

type OrderTestSuite struct {
	suite.Suite
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) TestValidate() {
	suite.Run("a complete request passes", func() {
		request := validRequest()
		suite.NoError(request.Validate())
	})

	suite.Run("missing symbol fails", func() {
		request := validRequest()
		request.Symbol = ""

		err := request.Validate()
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeInvalidOrderRequest, errors.GetCode(err))
	})

	suite.Run("zero quantity fails", func() {
		request := validRequest()
		request.Quantity = 0
		suite.Error(request.Validate())
	})

	suite.Run("unknown transaction type fails", func() {
		request := validRequest()
		request.TransactionType = "HOLD"
		suite.Error(request.Validate())
	})

	suite.Run("unknown exchange fails", func() {
		request := validRequest()
		request.Exchange = "MCX"
		suite.Error(request.Validate())
	})
}

func (suite *OrderTestSuite) TestOrderResponse() {
	accepted := Accepted("BT1")
	suite.True(accepted.IsOK())
	suite.Equal("BT1", accepted.OrderID)

	rejected := Rejected(errors.ErrCodeInsufficientMargin, "insufficient margin")
	suite.False(rejected.IsOK())
	suite.Equal(errors.ErrCodeInsufficientMargin, rejected.Code)
	suite.Equal("insufficient margin", rejected.Message)
}
