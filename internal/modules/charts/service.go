package charts

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakeshpatra/papertrader/pkg/formulas"
)

// ErrNoData is returned when no bars exist for the requested window.
var ErrNoData = errors.New("no chart data available")

// Service builds candlestick chart payloads from stored history.
type Service struct {
	history HistoryReader
	logger  zerolog.Logger
}

// NewService creates a new charts service
func NewService(history HistoryReader) *Service {
	return &Service{
		history: history,
		logger:  log.With().Str("service", "charts").Logger(),
	}
}

// GetChart returns the candle series for a symbol over a date range
// ("1M", "3M", "6M", "1Y", "5Y", "10Y", or "all"), with moving-average
// and RSI overlays and summary stats for the window.
func (s *Service) GetChart(symbol, dateRange string) (*ChartData, error) {
	fromDate := parseDateRange(dateRange)

	bars, err := s.history.GetDailyBars(symbol, fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	candles := make([]Candle, len(bars))
	closes := make([]float64, len(bars))
	high, low := bars[0].High, bars[0].Low

	for i, b := range bars {
		candles[i] = Candle{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
		closes[i] = b.Close

		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	return &ChartData{
		Symbol:  symbol,
		Range:   normalizeRange(dateRange),
		Candles: candles,
		Overlays: Overlays{
			SMA20: formulas.SMA(closes, 20),
			SMA50: formulas.SMA(closes, 50),
			EMA20: formulas.EMA(closes, 20),
			RSI14: formulas.RSI(closes, 14),
		},
		Stats: SeriesStats{
			PercentChange:        formulas.PercentChange(closes),
			AnnualizedVolatility: formulas.AnnualizedVolatility(formulas.CalculateReturns(closes)),
			High:                 high,
			Low:                  low,
			LatestRSI:            formulas.LatestRSI(closes, 14),
		},
	}, nil
}

// parseDateRange converts a UI range label into a YYYY-MM-DD cutoff.
// Unknown labels and "all" return "" meaning the full history.
func parseDateRange(dateRange string) string {
	now := time.Now()

	var cutoff time.Time
	switch dateRange {
	case "1M":
		cutoff = now.AddDate(0, -1, 0)
	case "3M":
		cutoff = now.AddDate(0, -3, 0)
	case "6M":
		cutoff = now.AddDate(0, -6, 0)
	case "1Y":
		cutoff = now.AddDate(-1, 0, 0)
	case "5Y":
		cutoff = now.AddDate(-5, 0, 0)
	case "10Y":
		cutoff = now.AddDate(-10, 0, 0)
	default:
		return ""
	}

	return cutoff.Format("2006-01-02")
}

func normalizeRange(dateRange string) string {
	if parseDateRange(dateRange) == "" {
		return "all"
	}
	return dateRange
}
