// Package types defines core data structures shared by the strategy engine.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of an open position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Signal is the outcome of a prediction.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalHold  Signal = "HOLD"
)

// PriceQuote represents a single price observation from one source.
type PriceQuote struct {
	Source    string    `json:"source"`
	Price     float64   `json:"price"` // Output units per input unit
	Timestamp time.Time `json:"timestamp"`
}

// ArbitrageOpportunity describes a qualifying cross-source spread for a pair.
type ArbitrageOpportunity struct {
	TokenMintA string    `json:"token_mint_a"`
	TokenMintB string    `json:"token_mint_b"`
	BuyOn      string    `json:"buy_on"`  // Source with the lowest price
	SellOn     string    `json:"sell_on"` // Source with the highest price
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	Spread     float64   `json:"spread"` // (max - min) / min
	SpreadBps  int       `json:"spread_bps"`
	DetectedAt time.Time `json:"detected_at"`
}

// TokenInfo describes a token announced by the discovery feed.
type TokenInfo struct {
	Mint   string `json:"mint"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// MintInfo is the on-chain state of an SPL token mint.
type MintInfo struct {
	Mint          string          `json:"mint"`
	MintAuthority string          `json:"mint_authority,omitempty"` // Empty once renounced
	Supply        decimal.Decimal `json:"supply"`                   // In token units
	Decimals      uint8           `json:"decimals"`
}

// TokenHolder is a token account and its balance in token units.
type TokenHolder struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// Sentiment holds bullish/bearish/neutral percentages for a symbol.
type Sentiment struct {
	Bullish float64 `json:"bullish"`
	Bearish float64 `json:"bearish"`
	Neutral float64 `json:"neutral"`
}

// DefaultSentiment is used whenever no sentiment data is available.
func DefaultSentiment() Sentiment {
	return Sentiment{Bullish: 50, Bearish: 25, Neutral: 25}
}

// Ratios returns the bullish and bearish shares of the total.
func (s Sentiment) Ratios() (bullish, bearish float64) {
	total := s.Bullish + s.Bearish + s.Neutral
	if total <= 0 {
		return 0, 0
	}
	return s.Bullish / total, s.Bearish / total
}

// MACD holds the latest MACD line and signal line values.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands holds the latest band values.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Indicators is the technical-analysis snapshot used by a prediction.
type Indicators struct {
	RSI       float64         `json:"rsi"`
	MACD      *MACD           `json:"macd,omitempty"`
	Bollinger *BollingerBands `json:"bollinger,omitempty"`
}

// PredictionResult is the output of the prediction evaluator.
type PredictionResult struct {
	Signal     Signal      `json:"prediction"`
	Confidence float64     `json:"confidence"`
	Indicators *Indicators `json:"indicators,omitempty"`
	Sentiment  *Sentiment  `json:"sentiment,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Samples    int         `json:"samples"`
}
