// Package indicators computes the technical indicators used by predictions.
package indicators

import (
	"fmt"
	"math"

	"github.com/cinar/indicator"

	"github.com/jonasrmichel/solstrat/pkg/types"
)

// Minimum series lengths for each indicator.
const (
	RSIPeriod         = 14
	MACDSlowPeriod    = 26
	BollingerPeriod   = 20
	MinRSISamples     = RSIPeriod + 1
	MinMACDSamples    = MACDSlowPeriod
	MinBollingerCount = BollingerPeriod
)

// Calculator computes RSI(14), MACD(12,26,9) and Bollinger Bands(20,2).
type Calculator struct{}

// NewCalculator returns a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute returns the latest indicator values for a price series, oldest
// first. MACD and Bollinger Bands are omitted when the series is too short
// for them.
func (c *Calculator) Compute(prices []float64) (*types.Indicators, error) {
	if len(prices) < MinRSISamples {
		return nil, fmt.Errorf("need at least %d prices for RSI, have %d", MinRSISamples, len(prices))
	}

	_, rsi := indicator.Rsi(prices)
	out := &types.Indicators{RSI: clampRSI(last(rsi))}

	if len(prices) >= MinMACDSamples {
		macd, signal := indicator.Macd(prices)
		m, s := last(macd), last(signal)
		if finite(m) && finite(s) {
			out.MACD = &types.MACD{MACD: m, Signal: s, Histogram: m - s}
		}
	}

	if len(prices) >= MinBollingerCount {
		middle, upper, lower := indicator.BollingerBands(prices)
		m, u, l := last(middle), last(upper), last(lower)
		if finite(m) && finite(u) && finite(l) {
			out.Bollinger = &types.BollingerBands{Upper: u, Middle: m, Lower: l}
		}
	}

	return out, nil
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clampRSI keeps RSI within [0, 100]. A flat series has no defined RSI and
// reads as neutral.
func clampRSI(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 50
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
