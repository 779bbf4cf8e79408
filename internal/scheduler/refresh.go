package scheduler

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
	"github.com/rakeshpatra/papertrader/internal/events"
	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
)

// HoldingsLister supplies the symbols currently held.
type HoldingsLister interface {
	GetAllHoldings() ([]ledger.Holding, error)
}

// WatchlistLister supplies the watched symbols.
type WatchlistLister interface {
	List() ([]string, error)
}

// QuoteRefresher fetches and caches quotes for a symbol set.
type QuoteRefresher interface {
	Refresh(symbols []string) int
}

// HistoryFetcher pulls daily bars from the upstream provider.
type HistoryFetcher interface {
	GetHistoricalPrices(symbol, period string) ([]yahoo.HistoricalPrice, error)
}

// HistoryWriter persists fetched bars.
type HistoryWriter interface {
	LastDate(symbol string) (string, error)
	UpsertBars(symbol string, prices []yahoo.HistoricalPrice) error
}

// RefreshJob keeps the quote cache warm and the per-symbol history
// stores current for every symbol the user cares about: held positions,
// the watchlist, and the configured index symbols.
type RefreshJob struct {
	holdings  HoldingsLister
	watchlist WatchlistLister
	quotes    QuoteRefresher
	fetcher   HistoryFetcher
	history   HistoryWriter
	hours     *MarketHoursService
	events    *events.Manager
	exchange  string
	indices   []string
	warmedUp  atomic.Bool
	log       zerolog.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(
	holdings HoldingsLister,
	watchlist WatchlistLister,
	quotes QuoteRefresher,
	fetcher HistoryFetcher,
	history HistoryWriter,
	hours *MarketHoursService,
	ev *events.Manager,
	exchange string,
	indices []string,
	log zerolog.Logger,
) *RefreshJob {
	return &RefreshJob{
		holdings:  holdings,
		watchlist: watchlist,
		quotes:    quotes,
		fetcher:   fetcher,
		history:   history,
		hours:     hours,
		events:    ev,
		exchange:  exchange,
		indices:   indices,
		log:       log.With().Str("job", "refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "market_data_refresh"
}

// Run refreshes quotes and backfills history. Outside market hours the
// job still runs once after startup so the cache is never empty, then
// goes quiet until the next session.
func (j *RefreshJob) Run() error {
	// The warm-up run from startup and cron ticks may overlap
	if !j.hours.IsMarketOpen(j.exchange) && j.warmedUp.Load() {
		j.log.Debug().Str("exchange", j.exchange).Msg("Market closed, skipping refresh")
		return nil
	}
	j.warmedUp.Store(true)

	symbols, err := j.collectSymbols()
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	fetched := j.quotes.Refresh(symbols)

	j.events.Emit(events.QuotesRefreshed, "scheduler", map[string]interface{}{
		"symbols": len(symbols),
		"fetched": fetched,
	})

	j.backfillHistory(symbols)

	return nil
}

// collectSymbols merges holdings, watchlist and index symbols into one
// deduplicated, sorted set.
func (j *RefreshJob) collectSymbols() ([]string, error) {
	set := make(map[string]struct{})

	holdings, err := j.holdings.GetAllHoldings()
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		set[h.Symbol] = struct{}{}
	}

	watched, err := j.watchlist.List()
	if err != nil {
		return nil, err
	}
	for _, s := range watched {
		set[s] = struct{}{}
	}

	for _, s := range j.indices {
		set[s] = struct{}{}
	}

	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	return symbols, nil
}

// backfillHistory tops up any symbol whose stored bars end before
// yesterday. One month of daily bars covers any realistic gap between
// sessions; a fresh symbol gets a full year.
func (j *RefreshJob) backfillHistory(symbols []string) {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	backfilled := 0

	for _, symbol := range symbols {
		last, err := j.history.LastDate(symbol)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Cannot read history state")
			continue
		}

		if last >= yesterday {
			continue
		}

		period := "1mo"
		if last == "" {
			period = "1y"
		}

		bars, err := j.fetcher.GetHistoricalPrices(symbol, period)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed")
			continue
		}

		if err := j.history.UpsertBars(symbol, bars); err != nil {
			j.log.Error().Err(err).Str("symbol", symbol).Msg("History write failed")
			j.events.EmitError("scheduler", err, map[string]interface{}{
				"symbol": symbol,
			})
			continue
		}
		backfilled++
	}

	if backfilled > 0 {
		j.events.Emit(events.HistoryBackfill, "scheduler", map[string]interface{}{
			"symbols": backfilled,
		})
	}
}
