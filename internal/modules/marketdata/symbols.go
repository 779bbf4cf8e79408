package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SymbolEntry maps an exchange ticker to its company name.
type SymbolEntry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// SymbolDirectory holds the tradable symbol universe loaded from the
// exchange's equity list CSV. Lookups are case-insensitive.
type SymbolDirectory struct {
	entries []SymbolEntry
	suffix  string
	logger  zerolog.Logger
}

// NewSymbolDirectory creates an empty directory. The suffix (e.g. ".NS")
// is appended when resolving bare tickers to data-provider symbols.
func NewSymbolDirectory(suffix string) *SymbolDirectory {
	return &SymbolDirectory{
		suffix: suffix,
		logger: log.With().Str("component", "symbols").Logger(),
	}
}

// LoadCSV reads the exchange equity list. The file is expected to have
// a header row with SYMBOL and "NAME OF COMPANY" columns; extra columns
// are ignored.
func (d *SymbolDirectory) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open symbols file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse symbols file: %w", err)
	}

	if len(records) < 2 {
		return fmt.Errorf("symbols file %s has no data rows", path)
	}

	symbolCol, nameCol := -1, -1
	for i, col := range records[0] {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case "SYMBOL":
			symbolCol = i
		case "NAME OF COMPANY":
			nameCol = i
		}
	}
	if symbolCol < 0 || nameCol < 0 {
		return fmt.Errorf("symbols file %s is missing SYMBOL or NAME OF COMPANY columns", path)
	}

	entries := make([]SymbolEntry, 0, len(records)-1)
	for _, row := range records[1:] {
		if symbolCol >= len(row) || nameCol >= len(row) {
			continue
		}

		symbol := strings.TrimSpace(row[symbolCol])
		if symbol == "" {
			continue
		}

		entries = append(entries, SymbolEntry{
			Symbol: symbol,
			Name:   strings.TrimSpace(row[nameCol]),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Symbol < entries[j].Symbol })

	d.entries = entries
	d.logger.Info().Int("count", len(entries)).Str("path", path).Msg("Loaded symbol directory")

	return nil
}

// Search returns up to limit entries whose ticker or company name
// contains the query. Ticker prefix matches rank first.
func (d *SymbolDirectory) Search(query string, limit int) []SymbolEntry {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	var prefix, other []SymbolEntry
	for _, e := range d.entries {
		symbol := strings.ToUpper(e.Symbol)
		name := strings.ToUpper(e.Name)

		switch {
		case strings.HasPrefix(symbol, query):
			prefix = append(prefix, e)
		case strings.Contains(symbol, query) || strings.Contains(name, query):
			other = append(other, e)
		}
	}

	results := append(prefix, other...)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Resolve converts a bare exchange ticker to the data-provider symbol
// by appending the configured suffix. Index symbols (^NSEI) and symbols
// already carrying a suffix pass through unchanged.
func (d *SymbolDirectory) Resolve(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return symbol
	}

	if strings.HasPrefix(symbol, "^") || strings.Contains(symbol, ".") {
		return symbol
	}

	return symbol + d.suffix
}

// Len returns the number of loaded symbols.
func (d *SymbolDirectory) Len() int {
	return len(d.entries)
}
