package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	require.NoError(t, err)

	// No file yet: empty reads, not errors
	bars, err := store.GetDailyBars("TCS.NS", "")
	require.NoError(t, err)
	assert.Empty(t, bars)

	last, err := store.LastDate("TCS.NS")
	require.NoError(t, err)
	assert.Empty(t, last)

	prices := []yahoo.HistoricalPrice{
		{Date: day("2026-08-25"), Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
		{Date: day("2026-08-26"), Open: 104, High: 110, Low: 103, Close: 108, Volume: 1200},
		{Date: day("2026-08-27"), Open: 108, High: 109, Low: 101, Close: 102, Volume: 900},
	}
	require.NoError(t, store.UpsertBars("TCS.NS", prices))

	bars, err = store.GetDailyBars("TCS.NS", "")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "2026-08-25", bars[0].Date)
	assert.Equal(t, 104.0, bars[0].Close)
	assert.Equal(t, int64(1200), bars[1].Volume)

	last, err = store.LastDate("TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-27", last)

	// Date filter is inclusive
	bars, err = store.GetDailyBars("TCS.NS", "2026-08-26")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2026-08-26", bars[0].Date)
}

func TestHistoryStore_UpsertReplacesSameDate(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.UpsertBars("INFY.NS", []yahoo.HistoricalPrice{
		{Date: day("2026-08-27"), Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10},
	}))
	require.NoError(t, store.UpsertBars("INFY.NS", []yahoo.HistoricalPrice{
		{Date: day("2026-08-27"), Open: 1, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}))

	bars, err := store.GetDailyBars("INFY.NS", "")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.5, bars[0].Close)
}

func TestHistoryStore_SymbolIsolation(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.UpsertBars("^NSEI", []yahoo.HistoricalPrice{
		{Date: day("2026-08-27"), Open: 1, High: 1, Low: 1, Close: 1, Volume: 0},
	}))

	bars, err := store.GetDailyBars("NSEI.NS", "")
	require.NoError(t, err)
	assert.Empty(t, bars, "different symbols must not share a database")
}
