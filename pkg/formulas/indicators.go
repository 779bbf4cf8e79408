package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates a simple moving average series over closing prices.
// The first period-1 entries are warm-up values and come back as 0.
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	return talib.Sma(closes, period)
}

// EMA calculates an exponential moving average series over closing prices.
func EMA(closes []float64, period int) []float64 {
	if len(closes) < period || period <= 0 {
		return nil
	}
	return talib.Ema(closes, period)
}

// RSI calculates the Relative Strength Index series.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
func RSI(closes []float64, period int) []float64 {
	if len(closes) < period+1 || period <= 0 {
		return nil
	}
	return talib.Rsi(closes, period)
}

// LatestRSI returns the current RSI value (0-100) or nil if there is
// not enough data or the series ends in NaN.
func LatestRSI(closes []float64, period int) *float64 {
	rsi := RSI(closes, period)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
