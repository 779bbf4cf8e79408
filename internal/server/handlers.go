package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rakeshpatra/papertrader/internal/events"
	"github.com/rakeshpatra/papertrader/internal/modules/charts"
	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
	"github.com/rakeshpatra/papertrader/internal/modules/marketdata"
	"github.com/rakeshpatra/papertrader/internal/modules/trading"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "papertrader",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
		"jobs":       s.deps.Scheduler.Jobs(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handlePortfolioSummary returns every position valued at market plus totals
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Portfolio.GetSummary()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to build portfolio summary")
		s.writeError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleTransactions returns the trade log, most recent first
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	txs, err := s.deps.Portfolio.GetTransactions(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load transactions")
		s.writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	if txs == nil {
		txs = []ledger.Transaction{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// handleCashBalance returns the current cash balance
func (s *Server) handleCashBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.deps.Ledger.GetCashBalance()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read cash balance")
		s.writeError(w, http.StatusInternalServerError, "failed to read cash balance")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"cash_balance": balance})
}

// handlePlaceOrder executes a market order
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req trading.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Symbol = s.deps.Symbols.Resolve(req.Symbol)

	result, err := s.deps.Engine.PlaceOrder(req)
	if err != nil {
		s.writeOrderError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, result)
}

// handleDeposit adds cash to the account
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.deps.Engine.Deposit(req.Amount)
	if err != nil {
		if errors.Is(err, trading.ErrInvalidAmount) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("Deposit failed")
		s.writeError(w, http.StatusInternalServerError, "deposit failed")
		return
	}

	s.writeJSON(w, http.StatusCreated, result)
}

// writeOrderError maps trade failures onto HTTP statuses
func (s *Server) writeOrderError(w http.ResponseWriter, err error) {
	var fundsErr *trading.InsufficientFundsError
	var holdingErr *ledger.InsufficientHoldingError

	switch {
	case errors.Is(err, trading.ErrInvalidSide),
		errors.Is(err, trading.ErrInvalidOrderType),
		errors.Is(err, trading.ErrInvalidQuantity),
		errors.Is(err, trading.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &fundsErr), errors.As(err, &holdingErr):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, marketdata.ErrQuoteUnavailable):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error().Err(err).Msg("Order failed")
		s.writeError(w, http.StatusInternalServerError, "order failed")
	}
}

// handleQuote returns the freshest quote for a symbol
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := s.deps.Symbols.Resolve(chi.URLParam(r, "symbol"))

	quote, err := s.deps.Quotes.GetLive(symbol)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "quote unavailable for "+symbol)
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

// handleSymbolSearch searches the symbol directory
func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	results := s.deps.Symbols.Search(query, limit)
	if results == nil {
		results = []marketdata.SymbolEntry{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleChart returns candles, overlays and stats for a symbol
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := s.deps.Symbols.Resolve(chi.URLParam(r, "symbol"))
	dateRange := r.URL.Query().Get("range")

	chart, err := s.deps.Charts.GetChart(symbol, dateRange)
	if err != nil {
		if errors.Is(err, charts.ErrNoData) {
			s.writeError(w, http.StatusNotFound, "no chart data for "+symbol)
			return
		}
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Chart build failed")
		s.writeError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}

	s.writeJSON(w, http.StatusOK, chart)
}

// handleWatchlist returns watched symbols with their latest quotes
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.deps.Watchlist.List()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load watchlist")
		s.writeError(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}

	type entry struct {
		Symbol string            `json:"symbol"`
		Quote  *marketdata.Quote `json:"quote,omitempty"`
	}

	entries := make([]entry, 0, len(symbols))
	for _, symbol := range symbols {
		e := entry{Symbol: symbol}
		if quote, err := s.deps.Quotes.GetLive(symbol); err == nil {
			e.Quote = &quote
		}
		entries = append(entries, e)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": entries})
}

// handleWatchlistAdd puts a symbol on the watchlist
func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	symbol := s.deps.Symbols.Resolve(chi.URLParam(r, "symbol"))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	added, err := s.deps.Watchlist.Add(symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Watchlist add failed")
		s.writeError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	if added {
		s.deps.Events.Emit(events.WatchlistAdded, "watchlist", map[string]interface{}{
			"symbol": symbol,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "added": added})
}

// handleWatchlistRemove drops a symbol from the watchlist
func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	symbol := s.deps.Symbols.Resolve(chi.URLParam(r, "symbol"))

	removed, err := s.deps.Watchlist.Remove(symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Watchlist remove failed")
		s.writeError(w, http.StatusInternalServerError, "failed to update watchlist")
		return
	}

	if removed {
		s.deps.Events.Emit(events.WatchlistRemoved, "watchlist", map[string]interface{}{
			"symbol": symbol,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "removed": removed})
}

// handleMarketStatus reports open/closed status per exchange
func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets": s.deps.MarketHours.GetAllMarketStatuses(),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
