package marketdata

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
)

type stubFetcher struct {
	quotes map[string]*yahoo.LiveQuote
	err    error
}

func (s *stubFetcher) GetLiveQuote(symbol string) (*yahoo.LiveQuote, error) {
	if s.err != nil {
		return nil, s.err
	}
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return q, nil
}

func TestQuoteService_GetLive(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*yahoo.LiveQuote{
		"TCS.NS": {Symbol: "TCS.NS", Price: 3500, Change: 35, ChangePct: 1.01, FetchedAt: time.Now()},
	}}

	svc := NewQuoteService(fetcher, NewQuoteCache())

	q, err := svc.GetLive("TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, 3500.0, q.Price)
	assert.False(t, q.Stale)
}

func TestQuoteService_FallsBackToCache(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*yahoo.LiveQuote{
		"INFY.NS": {Symbol: "INFY.NS", Price: 1500, FetchedAt: time.Now()},
	}}

	cache := NewQuoteCache()
	svc := NewQuoteService(fetcher, cache)

	_, err := svc.GetLive("INFY.NS")
	require.NoError(t, err)

	// Upstream goes dark; the cached quote comes back marked stale
	fetcher.err = errors.New("connection refused")

	q, err := svc.GetLive("INFY.NS")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, q.Price)
	assert.True(t, q.Stale)
}

func TestQuoteService_Unavailable(t *testing.T) {
	svc := NewQuoteService(&stubFetcher{err: errors.New("down")}, NewQuoteCache())

	_, err := svc.GetLive("TCS.NS")
	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestQuoteService_Refresh(t *testing.T) {
	fetcher := &stubFetcher{quotes: map[string]*yahoo.LiveQuote{
		"TCS.NS":  {Symbol: "TCS.NS", Price: 3500, FetchedAt: time.Now()},
		"SBIN.NS": {Symbol: "SBIN.NS", Price: 620, FetchedAt: time.Now()},
	}}

	cache := NewQuoteCache()
	svc := NewQuoteService(fetcher, cache)

	fetched := svc.Refresh([]string{"TCS.NS", "SBIN.NS", "MISSING.NS"})
	assert.Equal(t, 2, fetched)

	_, ok := cache.Get("SBIN.NS")
	assert.True(t, ok)
	_, ok = cache.Get("MISSING.NS")
	assert.False(t, ok)
}
