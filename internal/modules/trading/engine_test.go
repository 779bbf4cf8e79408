package trading

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshpatra/papertrader/internal/database"
	"github.com/rakeshpatra/papertrader/internal/events"
	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
	"github.com/rakeshpatra/papertrader/internal/modules/marketdata"
)

type stubQuotes struct {
	prices map[string]float64
	stale  bool
	err    error
}

func (s *stubQuotes) GetLive(symbol string) (marketdata.Quote, error) {
	if s.err != nil {
		return marketdata.Quote{}, s.err
	}
	price, ok := s.prices[symbol]
	if !ok {
		return marketdata.Quote{}, marketdata.ErrQuoteUnavailable
	}
	return marketdata.Quote{Symbol: symbol, Price: price, Stale: s.stale, FetchedAt: time.Now()}, nil
}

func setupEngine(t *testing.T, quotes *stubQuotes) (*Engine, *ledger.Repository) {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(decimal.NewFromInt(100000)))

	repo := ledger.NewRepository(db.Conn())
	ev := events.NewManager(zerolog.Nop())

	return NewEngine(db, repo, quotes, ev), repo
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestPlaceOrder_BuySellRoundTrip(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"X.NS": 100}}
	engine, repo := setupEngine(t, quotes)

	// Buy 10 @ 100
	res, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("10")})
	require.NoError(t, err)
	assert.True(t, res.CashBalance.Equal(d("99000")))
	require.NotNil(t, res.Holding)
	assert.True(t, res.Holding.Quantity.Equal(d("10")))
	assert.True(t, res.Holding.AveragePrice.Equal(d("100")))

	// Buy 10 more @ 200 - average moves to 150
	quotes.prices["X.NS"] = 200
	res, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "buy", Quantity: d("10")})
	require.NoError(t, err)
	assert.True(t, res.CashBalance.Equal(d("97000")))
	assert.True(t, res.Holding.Quantity.Equal(d("20")))
	assert.True(t, res.Holding.AveragePrice.Equal(d("150")))

	// Sell 5 @ 300 - average untouched
	quotes.prices["X.NS"] = 300
	res, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "SELL", Quantity: d("5")})
	require.NoError(t, err)
	assert.True(t, res.CashBalance.Equal(d("98500")))
	assert.True(t, res.Holding.Quantity.Equal(d("15")))
	assert.True(t, res.Holding.AveragePrice.Equal(d("150")))

	// Sell the rest @ 100 - position removed
	quotes.prices["X.NS"] = 100
	res, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "SELL", Quantity: d("15")})
	require.NoError(t, err)
	assert.Nil(t, res.Holding)
	assert.True(t, res.CashBalance.Equal(d("100000")))

	_, err = repo.GetHolding("X.NS")
	assert.ErrorIs(t, err, ledger.ErrHoldingNotFound)

	txs, err := repo.GetTransactions(0)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
	assert.Equal(t, ledger.TransactionSell, txs[0].Type)
}

func TestPlaceOrder_ValidationOrder(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"X.NS": 100}}
	engine, _ := setupEngine(t, quotes)

	// Bad side rejected before anything else is looked at
	_, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "HOLD", Quantity: d("-1")})
	assert.ErrorIs(t, err, ErrInvalidSide)

	// Unsupported order type
	_, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Type: "LIMIT", Quantity: d("1")})
	assert.ErrorIs(t, err, ErrInvalidOrderType)

	// Non-positive quantity
	_, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("0")})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("-5")})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// Missing symbol
	_, err = engine.PlaceOrder(OrderRequest{Side: "BUY", Quantity: d("1")})
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestPlaceOrder_QuoteUnavailable(t *testing.T) {
	quotes := &stubQuotes{err: errors.New("upstream down")}
	engine, repo := setupEngine(t, quotes)

	_, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("1")})
	require.Error(t, err)

	// Ledger untouched on a failed order
	balance, err := repo.GetCashBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("100000")))

	txs, err := repo.GetTransactions(0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPlaceOrder_RejectsStaleQuote(t *testing.T) {
	// A cached quote from a dead provider prices the UI, never a fill
	quotes := &stubQuotes{prices: map[string]float64{"X.NS": 100}, stale: true}
	engine, repo := setupEngine(t, quotes)

	_, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("1")})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketdata.ErrQuoteUnavailable)

	balance, err := repo.GetCashBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("100000")))

	txs, err := repo.GetTransactions(0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPlaceOrder_InsufficientFunds(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"X.NS": 50000}}
	engine, repo := setupEngine(t, quotes)

	_, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("3")})
	require.Error(t, err)

	var fundsErr *InsufficientFundsError
	require.ErrorAs(t, err, &fundsErr)
	assert.True(t, fundsErr.Required.Equal(d("150000")))
	assert.True(t, fundsErr.Available.Equal(d("100000")))

	balance, err := repo.GetCashBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("100000")))
}

func TestPlaceOrder_OversellRollsBack(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"X.NS": 100}}
	engine, repo := setupEngine(t, quotes)

	_, err := engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "BUY", Quantity: d("5")})
	require.NoError(t, err)

	_, err = engine.PlaceOrder(OrderRequest{Symbol: "X.NS", Side: "SELL", Quantity: d("10")})
	require.Error(t, err)

	var insufficientErr *ledger.InsufficientHoldingError
	require.ErrorAs(t, err, &insufficientErr)

	// Failed sell leaves holding and cash exactly as after the buy
	h, err := repo.GetHolding("X.NS")
	require.NoError(t, err)
	assert.True(t, h.Quantity.Equal(d("5")))

	balance, err := repo.GetCashBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("99500")))
}

func TestDeposit(t *testing.T) {
	engine, repo := setupEngine(t, &stubQuotes{})

	res, err := engine.Deposit(d("5000"))
	require.NoError(t, err)
	assert.True(t, res.CashBalance.Equal(d("105000")))
	assert.Equal(t, "CASH", res.Transaction.Symbol)
	assert.Equal(t, ledger.TransactionDeposit, res.Transaction.Type)
	assert.True(t, res.Transaction.Quantity.Equal(d("1")))
	assert.True(t, res.Transaction.Price.Equal(d("5000")))

	_, err = engine.Deposit(d("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	txs, err := repo.GetTransactions(0)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
