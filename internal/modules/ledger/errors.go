package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrHoldingNotFound is returned when a sell references a symbol the
// portfolio does not hold.
var ErrHoldingNotFound = errors.New("holding not found")

// InsufficientHoldingError is returned when a sell asks for more shares
// than the portfolio holds. Owned reports whether any position exists at
// all, so callers can phrase the failure precisely.
type InsufficientHoldingError struct {
	Symbol    string
	Held      decimal.Decimal
	Requested decimal.Decimal
	Owned     bool
}

func (e *InsufficientHoldingError) Error() string {
	if !e.Owned {
		return fmt.Sprintf("no position in %s to sell", e.Symbol)
	}
	return fmt.Sprintf("insufficient quantity of %s: have %s, requested %s",
		e.Symbol, e.Held.String(), e.Requested.String())
}
