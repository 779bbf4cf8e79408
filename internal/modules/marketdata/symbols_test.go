package marketdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSymbolsCSV(t *testing.T) string {
	t.Helper()

	csv := `SYMBOL,NAME OF COMPANY, SERIES, DATE OF LISTING
TCS,Tata Consultancy Services Limited,EQ,2004-08-25
INFY,Infosys Limited,EQ,1995-06-08
TATAMOTORS,Tata Motors Limited,EQ,1998-07-22
SBIN,State Bank of India,EQ,1995-03-01
`
	path := filepath.Join(t.TempDir(), "stocks.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))
	return path
}

func TestSymbolDirectory_LoadCSV(t *testing.T) {
	dir := NewSymbolDirectory(".NS")
	require.NoError(t, dir.LoadCSV(writeSymbolsCSV(t)))
	assert.Equal(t, 4, dir.Len())
}

func TestSymbolDirectory_LoadCSV_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("TICKER,COMPANY\nTCS,Tata\n"), 0644))

	dir := NewSymbolDirectory(".NS")
	assert.Error(t, dir.LoadCSV(path))
}

func TestSymbolDirectory_Search(t *testing.T) {
	dir := NewSymbolDirectory(".NS")
	require.NoError(t, dir.LoadCSV(writeSymbolsCSV(t)))

	// Ticker prefix matches rank ahead of name matches
	results := dir.Search("tata", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "TATAMOTORS", results[0].Symbol)

	tcs := dir.Search("tcs", 10)
	require.Len(t, tcs, 1)
	assert.Equal(t, "Tata Consultancy Services Limited", tcs[0].Name)

	// Name substring match
	bank := dir.Search("bank", 10)
	require.Len(t, bank, 1)
	assert.Equal(t, "SBIN", bank[0].Symbol)

	assert.Empty(t, dir.Search("", 10))
	assert.Len(t, dir.Search("tata", 1), 1)
}

func TestSymbolDirectory_Resolve(t *testing.T) {
	dir := NewSymbolDirectory(".NS")

	assert.Equal(t, "TCS.NS", dir.Resolve("tcs"))
	assert.Equal(t, "TCS.NS", dir.Resolve("TCS.NS"))
	assert.Equal(t, "^NSEI", dir.Resolve("^NSEI"))
	assert.Equal(t, "AAPL.US", dir.Resolve("AAPL.US"))
}
