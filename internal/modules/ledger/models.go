package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one position in the portfolio, carried at weighted-average cost.
type Holding struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// CostBasis returns quantity * average price.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AveragePrice)
}

// TransactionType distinguishes ledger entries
type TransactionType string

const (
	TransactionBuy     TransactionType = "BUY"
	TransactionSell    TransactionType = "SELL"
	TransactionDeposit TransactionType = "DEPOSIT"
)

// Transaction is one immutable row in the trade log.
type Transaction struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Type      TransactionType `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// TotalValue returns quantity * price for the transaction.
func (t *Transaction) TotalValue() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
