package ledger

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshpatra/papertrader/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(decimal.NewFromInt(100000)))

	return NewRepository(db.Conn())
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCashBalance(t *testing.T) {
	repo := setupTestRepo(t)

	balance, err := repo.GetCashBalance()
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("100000")), "seeded balance should be 100000, got %s", balance)

	newBalance, err := repo.AdjustCash(d("-1000"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("99000")))

	newBalance, err = repo.AdjustCash(d("1500"))
	require.NoError(t, err)
	assert.True(t, newBalance.Equal(d("100500")))
}

func TestApplyHoldingDelta_AveragingUp(t *testing.T) {
	repo := setupTestRepo(t)

	// First buy opens the position at the trade price
	h, err := repo.ApplyHoldingDelta("TCS.NS", d("10"), d("100"))
	require.NoError(t, err)
	assert.True(t, h.Quantity.Equal(d("10")))
	assert.True(t, h.AveragePrice.Equal(d("100")))

	// Second buy at a higher price shifts the weighted average
	// (10*100 + 10*200) / 20 = 150
	h, err = repo.ApplyHoldingDelta("TCS.NS", d("10"), d("200"))
	require.NoError(t, err)
	assert.True(t, h.Quantity.Equal(d("20")))
	assert.True(t, h.AveragePrice.Equal(d("150")), "expected avg 150, got %s", h.AveragePrice)
}

func TestApplyHoldingDelta_PartialSellKeepsAverage(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.ApplyHoldingDelta("INFY.NS", d("20"), d("150"))
	require.NoError(t, err)

	// Selling does not touch the cost basis per share
	h, err := repo.ApplyHoldingDelta("INFY.NS", d("-5"), d("300"))
	require.NoError(t, err)
	assert.True(t, h.Quantity.Equal(d("15")))
	assert.True(t, h.AveragePrice.Equal(d("150")))
}

func TestApplyHoldingDelta_FullSellRemovesRow(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.ApplyHoldingDelta("WIPRO.NS", d("15"), d("150"))
	require.NoError(t, err)

	h, err := repo.ApplyHoldingDelta("WIPRO.NS", d("-15"), d("100"))
	require.NoError(t, err)
	assert.Nil(t, h, "closed position should return nil holding")

	_, err = repo.GetHolding("WIPRO.NS")
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestApplyHoldingDelta_Oversell(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.ApplyHoldingDelta("SBIN.NS", d("5"), d("600"))
	require.NoError(t, err)

	_, err = repo.ApplyHoldingDelta("SBIN.NS", d("-6"), d("600"))
	require.Error(t, err)

	var insufficientErr *InsufficientHoldingError
	require.ErrorAs(t, err, &insufficientErr)
	assert.True(t, insufficientErr.Owned)
	assert.True(t, insufficientErr.Held.Equal(d("5")))
	assert.True(t, insufficientErr.Requested.Equal(d("6")))

	// Position is untouched after the failed sell
	h, err := repo.GetHolding("SBIN.NS")
	require.NoError(t, err)
	assert.True(t, h.Quantity.Equal(d("5")))
}

func TestApplyHoldingDelta_SellUnowned(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.ApplyHoldingDelta("GHOST.NS", d("-1"), d("10"))
	require.Error(t, err)

	var insufficientErr *InsufficientHoldingError
	require.ErrorAs(t, err, &insufficientErr)
	assert.False(t, insufficientErr.Owned)
}

func TestTransactionLog(t *testing.T) {
	repo := setupTestRepo(t)

	for _, tx := range []Transaction{
		{Symbol: "TCS.NS", Type: TransactionBuy, Quantity: d("10"), Price: d("100")},
		{Symbol: "TCS.NS", Type: TransactionSell, Quantity: d("5"), Price: d("120")},
		{Symbol: "CASH", Type: TransactionDeposit, Quantity: d("1"), Price: d("5000")},
	} {
		tx := tx
		require.NoError(t, repo.RecordTransaction(&tx))
		assert.NotZero(t, tx.ID)
	}

	// Most recent first
	txs, err := repo.GetTransactions(0)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, TransactionDeposit, txs[0].Type)
	assert.Equal(t, TransactionBuy, txs[2].Type)

	limited, err := repo.GetTransactions(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetAllHoldings(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.ApplyHoldingDelta("INFY.NS", d("5"), d("1500"))
	require.NoError(t, err)
	_, err = repo.ApplyHoldingDelta("TCS.NS", d("2"), d("3500"))
	require.NoError(t, err)

	holdings, err := repo.GetAllHoldings()
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "INFY.NS", holdings[0].Symbol)
	assert.Equal(t, "TCS.NS", holdings[1].Symbol)
}
