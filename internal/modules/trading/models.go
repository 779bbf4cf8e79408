package trading

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
)

// OrderSide represents the direction of an order
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderSideFromString parses an order side, case-insensitively.
func OrderSideFromString(s string) (OrderSide, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return OrderSideBuy, true
	case "SELL":
		return OrderSideSell, true
	default:
		return "", false
	}
}

// IsBuy returns true for buy orders
func (s OrderSide) IsBuy() bool {
	return s == OrderSideBuy
}

// IsSell returns true for sell orders
func (s OrderSide) IsSell() bool {
	return s == OrderSideSell
}

// OrderType represents the execution style of an order. Only market
// orders are supported; every fill happens at the live quote.
type OrderType string

const OrderTypeMarket OrderType = "MARKET"

// OrderTypeFromString parses an order type. An empty string defaults to
// a market order.
func OrderTypeFromString(s string) (OrderType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "MARKET":
		return OrderTypeMarket, true
	default:
		return "", false
	}
}

// OrderRequest is a request to execute a trade.
type OrderRequest struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Type     string          `json:"type,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderResult reports a filled order.
type OrderResult struct {
	Transaction ledger.Transaction `json:"transaction"`
	Holding     *ledger.Holding    `json:"holding,omitempty"`
	CashBalance decimal.Decimal    `json:"cash_balance"`
}
