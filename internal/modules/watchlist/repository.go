package watchlist

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
)

// Repository handles database operations for the watchlist
type Repository struct {
	db     ledger.Execer
	logger zerolog.Logger
}

// NewRepository creates a new watchlist repository
func NewRepository(db ledger.Execer) *Repository {
	return &Repository{
		db:     db,
		logger: log.With().Str("repo", "watchlist").Logger(),
	}
}

// Add puts a symbol on the watchlist. Adding a symbol that is already
// watched is a no-op; Add reports whether the symbol was new.
func (r *Repository) Add(symbol string) (bool, error) {
	result, err := r.db.Exec("INSERT OR IGNORE INTO watchlist (symbol) VALUES (?)", symbol)
	if err != nil {
		return false, fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist insert: %w", err)
	}

	return rows > 0, nil
}

// Remove drops a symbol from the watchlist. Removing an unwatched
// symbol is a no-op; Remove reports whether anything was deleted.
func (r *Repository) Remove(symbol string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM watchlist WHERE symbol = ?", symbol)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist delete: %w", err)
	}

	return rows > 0, nil
}

// List returns every watched symbol, ordered alphabetically.
func (r *Repository) List() ([]string, error) {
	rows, err := r.db.Query("SELECT symbol FROM watchlist ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist row: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Contains reports whether a symbol is on the watchlist.
func (r *Repository) Contains(symbol string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM watchlist WHERE symbol = ?", symbol).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist for %s: %w", symbol, err)
	}
	return count > 0, nil
}
