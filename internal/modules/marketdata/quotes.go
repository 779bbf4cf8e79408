package marketdata

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
)

// ErrQuoteUnavailable is returned when a live quote cannot be fetched
// and no cached quote exists for the symbol.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is the price snapshot the rest of the application consumes.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
}

// QuoteCache holds the latest known quote per symbol.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewQuoteCache creates an empty quote cache
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		quotes: make(map[string]Quote),
	}
}

// Get returns the cached quote for a symbol, if present.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// Set stores a quote.
func (c *QuoteCache) Set(q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.Symbol] = q
}

// Snapshot returns a copy of every cached quote.
func (c *QuoteCache) Snapshot() map[string]Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Quote, len(c.quotes))
	for k, v := range c.quotes {
		out[k] = v
	}
	return out
}

// QuoteFetcher fetches live quotes from the upstream data provider.
type QuoteFetcher interface {
	GetLiveQuote(symbol string) (*yahoo.LiveQuote, error)
}

// QuoteService serves live quotes, falling back to the cache when the
// upstream provider is unreachable.
type QuoteService struct {
	fetcher QuoteFetcher
	cache   *QuoteCache
	logger  zerolog.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(fetcher QuoteFetcher, cache *QuoteCache) *QuoteService {
	return &QuoteService{
		fetcher: fetcher,
		cache:   cache,
		logger:  log.With().Str("service", "quotes").Logger(),
	}
}

// GetLive returns the freshest quote available for a symbol. A failed
// upstream fetch falls back to the last cached quote, marked stale; if
// neither exists the caller gets ErrQuoteUnavailable.
func (s *QuoteService) GetLive(symbol string) (Quote, error) {
	live, err := s.fetcher.GetLiveQuote(symbol)
	if err == nil {
		q := Quote{
			Symbol:    live.Symbol,
			Price:     live.Price,
			Change:    live.Change,
			ChangePct: live.ChangePct,
			FetchedAt: live.FetchedAt,
		}
		s.cache.Set(q)
		return q, nil
	}

	s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Live quote fetch failed, checking cache")

	if cached, ok := s.cache.Get(symbol); ok {
		cached.Stale = true
		return cached, nil
	}

	return Quote{}, ErrQuoteUnavailable
}

// Refresh fetches and caches quotes for the given symbols, returning
// the number fetched successfully.
func (s *QuoteService) Refresh(symbols []string) int {
	fetched := 0
	for _, symbol := range symbols {
		live, err := s.fetcher.GetLiveQuote(symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote refresh failed")
			continue
		}

		s.cache.Set(Quote{
			Symbol:    live.Symbol,
			Price:     live.Price,
			Change:    live.Change,
			ChangePct: live.ChangePct,
			FetchedAt: live.FetchedAt,
		})
		fetched++
	}
	return fetched
}
