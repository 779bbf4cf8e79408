package charts

import "github.com/rakeshpatra/papertrader/internal/modules/marketdata"

// Candle is one candlestick on the chart.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Overlays are the indicator series drawn on top of the candles. Each
// slice is aligned with the candle series; warm-up entries are NaN and
// serialize as null.
type Overlays struct {
	SMA20 []float64 `json:"sma_20,omitempty"`
	SMA50 []float64 `json:"sma_50,omitempty"`
	EMA20 []float64 `json:"ema_20,omitempty"`
	RSI14 []float64 `json:"rsi_14,omitempty"`
}

// SeriesStats summarizes the charted window.
type SeriesStats struct {
	PercentChange        float64  `json:"percent_change"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	High                 float64  `json:"high"`
	Low                  float64  `json:"low"`
	LatestRSI            *float64 `json:"latest_rsi,omitempty"`
}

// ChartData is the full payload for rendering one symbol's chart.
type ChartData struct {
	Symbol   string      `json:"symbol"`
	Range    string      `json:"range"`
	Candles  []Candle    `json:"candles"`
	Overlays Overlays    `json:"overlays"`
	Stats    SeriesStats `json:"stats"`
}

// HistoryReader supplies stored daily bars for charting.
type HistoryReader interface {
	GetDailyBars(symbol, fromDate string) ([]marketdata.DailyBar, error)
}
