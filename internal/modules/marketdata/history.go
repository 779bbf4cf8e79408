package marketdata

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
)

// DailyBar is one stored OHLCV row. Date is YYYY-MM-DD.
type DailyBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// HistoryStore keeps one small SQLite database per symbol under a
// history directory, so years of bars for one ticker never bloat the
// ledger database.
type HistoryStore struct {
	historyDir string
	log        zerolog.Logger
}

// NewHistoryStore creates a new history store rooted at historyDir.
func NewHistoryStore(historyDir string) (*HistoryStore, error) {
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &HistoryStore{
		historyDir: historyDir,
		log:        log.With().Str("component", "history_store").Logger(),
	}, nil
}

// GetDailyBars returns bars for a symbol from fromDate (YYYY-MM-DD,
// inclusive) onward, oldest first. An empty fromDate returns everything.
func (h *HistoryStore) GetDailyBars(symbol, fromDate string) ([]DailyBar, error) {
	db, err := h.openSymbolDB(symbol, false)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, nil
	}
	defer db.Close()

	query := `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
	`
	var args []interface{}
	if fromDate != "" {
		query += " WHERE date >= ?"
		args = append(args, fromDate)
	}
	query += " ORDER BY date ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []DailyBar
	for rows.Next() {
		var b DailyBar
		var volume sql.NullInt64

		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily bar: %w", err)
		}
		if volume.Valid {
			b.Volume = volume.Int64
		}

		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily bars: %w", err)
	}

	return bars, nil
}

// LastDate returns the most recent stored date for a symbol, or "" when
// no history exists yet.
func (h *HistoryStore) LastDate(symbol string) (string, error) {
	db, err := h.openSymbolDB(symbol, false)
	if err != nil {
		return "", err
	}
	if db == nil {
		return "", nil
	}
	defer db.Close()

	var last sql.NullString
	err = db.QueryRow("SELECT MAX(date) FROM daily_prices").Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to get last date for %s: %w", symbol, err)
	}

	if !last.Valid {
		return "", nil
	}
	return last.String, nil
}

// UpsertBars writes fetched bars into the symbol's database, replacing
// any existing row for the same date.
func (h *HistoryStore) UpsertBars(symbol string, prices []yahoo.HistoricalPrice) error {
	if len(prices) == 0 {
		return nil
	}

	db, err := h.openSymbolDB(symbol, true)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices (date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		date := p.Date.Format("2006-01-02")
		if _, err := stmt.Exec(date, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("failed to upsert bar %s for %s: %w", date, symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}

	h.log.Debug().Str("symbol", symbol).Int("count", len(prices)).Msg("Stored daily bars")

	return nil
}

// openSymbolDB opens the per-symbol database. With create=false a
// missing file returns (nil, nil) so readers can treat it as no data.
func (h *HistoryStore) openSymbolDB(symbol string, create bool) (*sql.DB, error) {
	// Convert symbol format: TCS.NS -> TCS_NS, ^NSEI -> _NSEI
	dbSymbol := strings.NewReplacer(".", "_", "^", "_").Replace(symbol)
	dbPath := filepath.Join(h.historyDir, dbSymbol+".db")

	if !create {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, nil
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database for %s: %w", symbol, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database for %s: %w", symbol, err)
	}

	if create {
		_, err := db.Exec(`
			CREATE TABLE IF NOT EXISTS daily_prices (
				date TEXT PRIMARY KEY,
				open_price REAL NOT NULL,
				high_price REAL NOT NULL,
				low_price REAL NOT NULL,
				close_price REAL NOT NULL,
				volume INTEGER
			)
		`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create history schema for %s: %w", symbol, err)
		}
	}

	return db, nil
}
