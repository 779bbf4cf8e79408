package yahoo

import "time"

// LiveQuote is the latest traded price for a symbol, with its move
// against the previous close.
type LiveQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Currency      string    `json:"currency"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// HistoricalPrice represents one daily OHLCV bar
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}
