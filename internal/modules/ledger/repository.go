package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Execer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against either, so a trade can bind its holding,
// cash and transaction writes into one atomic unit.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Repository handles database operations for the portfolio ledger
type Repository struct {
	db     Execer
	logger zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db Execer) *Repository {
	return &Repository{
		db:     db,
		logger: log.With().Str("repo", "ledger").Logger(),
	}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{
		db:     tx,
		logger: r.logger,
	}
}

// GetCashBalance returns the account's current cash balance.
func (r *Repository) GetCashBalance() (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRow("SELECT cash_balance FROM account WHERE id = 1").Scan(&raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get cash balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt cash balance %q: %w", raw, err)
	}

	return balance, nil
}

// AdjustCash applies a signed delta to the cash balance.
func (r *Repository) AdjustCash(delta decimal.Decimal) (decimal.Decimal, error) {
	balance, err := r.GetCashBalance()
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := balance.Add(delta)

	_, err = r.db.Exec("UPDATE account SET cash_balance = ? WHERE id = 1", newBalance.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update cash balance: %w", err)
	}

	return newBalance, nil
}

// GetHolding returns the position for a symbol, or ErrHoldingNotFound.
func (r *Repository) GetHolding(symbol string) (*Holding, error) {
	var h Holding
	var qty, avg string

	err := r.db.QueryRow(
		"SELECT symbol, quantity, average_price FROM holdings WHERE symbol = ?",
		symbol,
	).Scan(&h.Symbol, &qty, &avg)

	if err == sql.ErrNoRows {
		return nil, ErrHoldingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s: %w", symbol, err)
	}

	if h.Quantity, err = decimal.NewFromString(qty); err != nil {
		return nil, fmt.Errorf("corrupt quantity for %s: %w", symbol, err)
	}
	if h.AveragePrice, err = decimal.NewFromString(avg); err != nil {
		return nil, fmt.Errorf("corrupt average price for %s: %w", symbol, err)
	}

	return &h, nil
}

// GetAllHoldings returns every position, ordered by symbol.
func (r *Repository) GetAllHoldings() ([]Holding, error) {
	rows, err := r.db.Query(
		"SELECT symbol, quantity, average_price FROM holdings ORDER BY symbol",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		var qty, avg string

		if err := rows.Scan(&h.Symbol, &qty, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if h.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("corrupt quantity for %s: %w", h.Symbol, err)
		}
		if h.AveragePrice, err = decimal.NewFromString(avg); err != nil {
			return nil, fmt.Errorf("corrupt average price for %s: %w", h.Symbol, err)
		}

		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}

// ApplyHoldingDelta adjusts a position by a signed quantity at a trade price.
//
// Buys (positive delta) fold the fill into the weighted-average cost:
//
//	new_avg = (held*avg + delta*price) / (held + delta)
//
// Sells (negative delta) leave the average price untouched; realized P&L
// belongs to the transaction log, not the position. A sell that lands on
// exactly zero removes the row. Overselling fails with
// *InsufficientHoldingError before anything is written.
func (r *Repository) ApplyHoldingDelta(symbol string, qtyDelta, tradePrice decimal.Decimal) (*Holding, error) {
	holding, err := r.GetHolding(symbol)
	if err != nil && err != ErrHoldingNotFound {
		return nil, err
	}

	if holding == nil {
		// Opening a new position - only a buy can do that
		if qtyDelta.IsNegative() || qtyDelta.IsZero() {
			return nil, &InsufficientHoldingError{
				Symbol:    symbol,
				Held:      decimal.Zero,
				Requested: qtyDelta.Neg(),
				Owned:     false,
			}
		}

		h := &Holding{Symbol: symbol, Quantity: qtyDelta, AveragePrice: tradePrice}
		_, err := r.db.Exec(
			"INSERT INTO holdings (symbol, quantity, average_price) VALUES (?, ?, ?)",
			h.Symbol, h.Quantity.String(), h.AveragePrice.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert holding %s: %w", symbol, err)
		}
		return h, nil
	}

	newQty := holding.Quantity.Add(qtyDelta)

	if newQty.IsNegative() {
		return nil, &InsufficientHoldingError{
			Symbol:    symbol,
			Held:      holding.Quantity,
			Requested: qtyDelta.Neg(),
			Owned:     true,
		}
	}

	if newQty.IsZero() {
		// Position fully closed
		_, err := r.db.Exec("DELETE FROM holdings WHERE symbol = ?", symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to delete holding %s: %w", symbol, err)
		}
		r.logger.Debug().Str("symbol", symbol).Msg("Position closed")
		return nil, nil
	}

	newAvg := holding.AveragePrice
	if qtyDelta.IsPositive() {
		cost := holding.Quantity.Mul(holding.AveragePrice).Add(qtyDelta.Mul(tradePrice))
		newAvg = cost.Div(newQty)
	}

	_, err = r.db.Exec(
		"UPDATE holdings SET quantity = ?, average_price = ? WHERE symbol = ?",
		newQty.String(), newAvg.String(), symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update holding %s: %w", symbol, err)
	}

	return &Holding{Symbol: symbol, Quantity: newQty, AveragePrice: newAvg}, nil
}

// RecordTransaction appends an immutable row to the trade log.
func (r *Repository) RecordTransaction(tx *Transaction) error {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	result, err := r.db.Exec(
		"INSERT INTO transactions (symbol, type, quantity, price, timestamp) VALUES (?, ?, ?, ?, ?)",
		tx.Symbol, string(tx.Type), tx.Quantity.String(), tx.Price.String(),
		tx.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		tx.ID = id
	}

	return nil
}

// GetTransactions returns the trade log, most recent first. A limit of
// zero or less returns the full history.
func (r *Repository) GetTransactions(limit int) ([]Transaction, error) {
	query := "SELECT id, symbol, type, quantity, price, timestamp FROM transactions ORDER BY id DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var qty, price, ts, typ string

		if err := rows.Scan(&t.ID, &t.Symbol, &typ, &qty, &price, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = TransactionType(typ)
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("corrupt quantity in transaction %d: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("corrupt price in transaction %d: %w", t.ID, err)
		}
		if t.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("corrupt timestamp in transaction %d: %w", t.ID, err)
		}

		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
