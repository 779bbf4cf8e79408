package trading

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rakeshpatra/papertrader/internal/events"
	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
	"github.com/rakeshpatra/papertrader/internal/modules/marketdata"
)

// TxBeginner starts ledger database transactions.
type TxBeginner interface {
	Begin() (*sql.Tx, error)
}

// QuoteProvider supplies execution prices for market orders.
type QuoteProvider interface {
	GetLive(symbol string) (marketdata.Quote, error)
}

// Engine validates and executes orders against the portfolio ledger.
//
// Order placement is serialized: validation reads the ledger and the
// write must see the same state, so one mutex guards the whole
// validate-then-apply sequence.
type Engine struct {
	mu      sync.Mutex
	db      TxBeginner
	repo    *ledger.Repository
	quotes  QuoteProvider
	events  *events.Manager
	logger  zerolog.Logger
}

// NewEngine creates a new trading engine
func NewEngine(db TxBeginner, repo *ledger.Repository, quotes QuoteProvider, ev *events.Manager) *Engine {
	return &Engine{
		db:     db,
		repo:   repo,
		quotes: quotes,
		events: ev,
		logger: log.With().Str("service", "trading").Logger(),
	}
}

// PlaceOrder validates and executes a market order.
//
// Checks run in a fixed sequence: side, order type, quantity, live
// quote, then funds or holdings. A failed check leaves the ledger
// untouched. Once checks pass, the holding update, cash adjustment and
// transaction row are committed in a single database transaction.
func (e *Engine) PlaceOrder(req OrderRequest) (*OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	side, ok := OrderSideFromString(req.Side)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, req.Side)
	}

	if _, ok := OrderTypeFromString(req.Type); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderType, req.Type)
	}

	if req.Symbol == "" {
		return nil, ErrInvalidSymbol
	}

	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, req.Quantity)
	}

	quote, err := e.quotes.GetLive(req.Symbol)
	if err == nil && quote.Stale {
		// A cached quote is fine for display but never for execution
		err = marketdata.ErrQuoteUnavailable
	}
	if err != nil {
		e.events.Emit(events.OrderRejected, "trading", map[string]interface{}{
			"symbol": req.Symbol,
			"reason": "quote unavailable",
		})
		return nil, fmt.Errorf("cannot price order for %s: %w", req.Symbol, err)
	}

	price := decimal.NewFromFloat(quote.Price)
	totalValue := req.Quantity.Mul(price)

	if side.IsBuy() {
		balance, err := e.repo.GetCashBalance()
		if err != nil {
			return nil, err
		}
		if totalValue.GreaterThan(balance) {
			return nil, &InsufficientFundsError{Required: totalValue, Available: balance}
		}
	}

	result, err := e.apply(req.Symbol, side, req.Quantity, price)
	if err != nil {
		return nil, err
	}

	e.events.Emit(events.OrderFilled, "trading", map[string]interface{}{
		"symbol":   req.Symbol,
		"side":     string(side),
		"quantity": req.Quantity.String(),
		"price":    price.String(),
		"total":    totalValue.String(),
	})

	e.logger.Info().
		Str("symbol", req.Symbol).
		Str("side", string(side)).
		Str("quantity", req.Quantity.String()).
		Str("price", price.String()).
		Msg("Order filled")

	return result, nil
}

// apply commits the three ledger writes of a fill atomically.
func (e *Engine) apply(symbol string, side OrderSide, quantity, price decimal.Decimal) (*OrderResult, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer tx.Rollback()

	repo := e.repo.WithTx(tx)

	qtyDelta := quantity
	cashDelta := quantity.Mul(price).Neg()
	txType := ledger.TransactionBuy
	if side.IsSell() {
		qtyDelta = quantity.Neg()
		cashDelta = quantity.Mul(price)
		txType = ledger.TransactionSell
	}

	holding, err := repo.ApplyHoldingDelta(symbol, qtyDelta, price)
	if err != nil {
		return nil, err
	}

	newBalance, err := repo.AdjustCash(cashDelta)
	if err != nil {
		return nil, err
	}

	record := ledger.Transaction{
		Symbol:   symbol,
		Type:     txType,
		Quantity: quantity,
		Price:    price,
	}
	if err := repo.RecordTransaction(&record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	if side.IsSell() && holding == nil {
		e.events.Emit(events.PositionClosed, "trading", map[string]interface{}{
			"symbol": symbol,
		})
	}

	return &OrderResult{
		Transaction: record,
		Holding:     holding,
		CashBalance: newBalance,
	}, nil
}

// Deposit adds cash to the account and records it in the trade log as
// a CASH row with quantity 1 and price equal to the amount.
func (e *Engine) Deposit(amount decimal.Decimal) (*OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin deposit transaction: %w", err)
	}
	defer tx.Rollback()

	repo := e.repo.WithTx(tx)

	newBalance, err := repo.AdjustCash(amount)
	if err != nil {
		return nil, err
	}

	record := ledger.Transaction{
		Symbol:   "CASH",
		Type:     ledger.TransactionDeposit,
		Quantity: decimal.NewFromInt(1),
		Price:    amount,
	}
	if err := repo.RecordTransaction(&record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	e.events.Emit(events.DepositProcessed, "trading", map[string]interface{}{
		"amount":  amount.String(),
		"balance": newBalance.String(),
	})

	return &OrderResult{
		Transaction: record,
		CashBalance: newBalance,
	}, nil
}
