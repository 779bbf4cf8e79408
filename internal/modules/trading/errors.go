package trading

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidSide is returned when the order side is not BUY or SELL.
	ErrInvalidSide = errors.New("invalid order side")

	// ErrInvalidOrderType is returned for unsupported order types.
	ErrInvalidOrderType = errors.New("invalid order type")

	// ErrInvalidQuantity is returned when the quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidSymbol is returned when the symbol is empty.
	ErrInvalidSymbol = errors.New("symbol is required")

	// ErrInvalidAmount is returned when a deposit amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// InsufficientFundsError is returned when a buy exceeds available cash.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s",
		e.Required.StringFixed(2), e.Available.StringFixed(2))
}
