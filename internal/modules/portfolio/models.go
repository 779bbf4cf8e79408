package portfolio

import (
	"github.com/shopspring/decimal"
)

// Position is a holding enriched with the latest market price.
type Position struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	MarketValue   decimal.Decimal `json:"market_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	PnLPct        decimal.Decimal `json:"pnl_pct"`
	DayChangePct  float64         `json:"day_change_pct"`
	QuoteStale    bool            `json:"quote_stale,omitempty"`
}

// Summary is the full portfolio view: every position plus totals.
type Summary struct {
	Positions     []Position      `json:"positions"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	Invested      decimal.Decimal `json:"invested"`
	MarketValue   decimal.Decimal `json:"market_value"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}
