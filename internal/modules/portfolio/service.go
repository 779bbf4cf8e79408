package portfolio

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
	"github.com/rakeshpatra/papertrader/internal/modules/marketdata"
)

// QuoteProvider supplies market prices for valuing positions.
type QuoteProvider interface {
	GetLive(symbol string) (marketdata.Quote, error)
}

// Service builds portfolio views from the ledger and live quotes.
type Service struct {
	repo   *ledger.Repository
	quotes QuoteProvider
	logger zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(repo *ledger.Repository, quotes QuoteProvider) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		logger: log.With().Str("service", "portfolio").Logger(),
	}
}

// GetSummary values every position at the latest available price and
// totals them up with cash. A position whose quote cannot be fetched is
// valued at its average cost and logged, never dropped.
func (s *Service) GetSummary() (*Summary, error) {
	holdings, err := s.repo.GetAllHoldings()
	if err != nil {
		return nil, err
	}

	cash, err := s.repo.GetCashBalance()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Positions:     make([]Position, 0, len(holdings)),
		CashBalance:   cash,
		Invested:      decimal.Zero,
		MarketValue:   decimal.Zero,
		UnrealizedPnL: decimal.Zero,
	}

	for _, h := range holdings {
		pos := Position{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity,
			AveragePrice: h.AveragePrice,
			CostBasis:    h.CostBasis(),
		}

		quote, err := s.quotes.GetLive(h.Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("No quote for position, valuing at cost")
			pos.CurrentPrice = h.AveragePrice
			pos.QuoteStale = true
		} else {
			pos.CurrentPrice = decimal.NewFromFloat(quote.Price)
			pos.DayChangePct = quote.ChangePct
			pos.QuoteStale = quote.Stale
		}

		pos.MarketValue = pos.Quantity.Mul(pos.CurrentPrice)
		pos.UnrealizedPnL = pos.MarketValue.Sub(pos.CostBasis)
		if !pos.CostBasis.IsZero() {
			pos.PnLPct = pos.UnrealizedPnL.Div(pos.CostBasis).Mul(decimal.NewFromInt(100))
		}

		summary.Invested = summary.Invested.Add(pos.CostBasis)
		summary.MarketValue = summary.MarketValue.Add(pos.MarketValue)
		summary.UnrealizedPnL = summary.UnrealizedPnL.Add(pos.UnrealizedPnL)
		summary.Positions = append(summary.Positions, pos)
	}

	summary.TotalValue = summary.MarketValue.Add(summary.CashBalance)

	return summary, nil
}

// GetTransactions returns the trade log, most recent first.
func (s *Service) GetTransactions(limit int) ([]ledger.Transaction, error) {
	return s.repo.GetTransactions(limit)
}
