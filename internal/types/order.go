package types

import (
	"time"

	"github.com/anizeninc-lab/trading-algo/pkg/errors"
	"github.com/go-playground/validator/v10"
)

type TransactionType string

type OrderType string

type OrderStatus string

type ProductType string

type Exchange string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	OrderStatusComplete OrderStatus = "COMPLETE"
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	ProductTypeMargin   ProductType = "MARGIN"
	ProductTypeDelivery ProductType = "DELIVERY"
)

const (
	ExchangeNSE Exchange = "NSE"
	ExchangeNFO Exchange = "NFO"
)

// OrderRequest is the abstract order a strategy submits to an execution backend.
type OrderRequest struct {
	Symbol          string          `yaml:"symbol" json:"symbol" validate:"required"`
	Exchange        Exchange        `yaml:"exchange" json:"exchange" validate:"required,oneof=NSE NFO"`
	TransactionType TransactionType `yaml:"transaction_type" json:"transaction_type" validate:"required,oneof=BUY SELL"`
	Quantity        float64         `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	OrderType       OrderType       `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	ProductType     ProductType     `yaml:"product_type" json:"product_type"`
	Tag             string          `yaml:"tag" json:"tag"`
}

// Validate validates the OrderRequest struct.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderRequest, "invalid order request", err)
	}

	return nil
}

// OrderResponse is the structured accept/reject result of an order operation.
// Rejections are values, not Go errors, so strategies can branch on them.
type OrderResponse struct {
	Status  OrderStatus      `yaml:"status" json:"status"`
	OrderID string           `yaml:"order_id" json:"order_id"`
	Code    errors.ErrorCode `yaml:"code,omitempty" json:"code,omitempty"`
	Message string           `yaml:"message,omitempty" json:"message,omitempty"`
}

// IsOK reports whether the operation was accepted by the backend.
func (r OrderResponse) IsOK() bool {
	return r.Status == OrderStatusComplete
}

// Accepted builds a successful OrderResponse for the given order id.
func Accepted(orderID string) OrderResponse {
	return OrderResponse{
		Status:  OrderStatusComplete,
		OrderID: orderID,
	}
}

// Rejected builds a rejection OrderResponse carrying a structured error code.
func Rejected(code errors.ErrorCode, message string) OrderResponse {
	return OrderResponse{
		Status:  OrderStatusRejected,
		Code:    code,
		Message: message,
	}
}

// Order is the record of a submitted order. Orders are immutable once created;
// in the simulated driver every order fills instantly and fully.
type Order struct {
	OrderID         string          `yaml:"order_id" json:"order_id"`
	Symbol          string          `yaml:"symbol" json:"symbol"`
	Exchange        Exchange        `yaml:"exchange" json:"exchange"`
	TransactionType TransactionType `yaml:"transaction_type" json:"transaction_type"`
	Quantity        float64         `yaml:"quantity" json:"quantity"`
	OrderType       OrderType       `yaml:"order_type" json:"order_type"`
	Price           float64         `yaml:"price" json:"price"`
	Status          OrderStatus     `yaml:"status" json:"status"`
	Timestamp       time.Time       `yaml:"timestamp" json:"timestamp"`
	Tag             string          `yaml:"tag,omitempty" json:"tag,omitempty"`
}

// Trade is the fill record for an order. The simulated driver fills every
// accepted order immediately, so the executed values mirror the order.
type Trade struct {
	Order         Order     `yaml:"order" json:"order"`
	ExecutedAt    time.Time `yaml:"executed_at" json:"executed_at"`
	ExecutedQty   float64   `yaml:"executed_qty" json:"executed_qty"`
	ExecutedPrice float64   `yaml:"executed_price" json:"executed_price"`
}
