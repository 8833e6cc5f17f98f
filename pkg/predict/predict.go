// Package predict combines technical indicators and market sentiment into a
// LONG, SHORT or HOLD signal.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/metrics"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

const (
	DefaultSamples         = 30
	DefaultMinSamples      = 15
	DefaultSampleDelay     = 300 * time.Millisecond
	DefaultConfidenceFloor = 0.3

	// Oversold and overbought RSI bounds.
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// InsufficientDataReason is reported when too few samples were collected.
const InsufficientDataReason = "Insufficient price data"

// PriceFeed returns the current price of a token.
type PriceFeed interface {
	TokenPrice(ctx context.Context, tokenMint string) (float64, error)
}

// SentimentSource scores market sentiment for a symbol. It never fails.
type SentimentSource interface {
	Analyze(ctx context.Context, symbol string) types.Sentiment
}

// IndicatorCalculator computes indicators over a price series.
type IndicatorCalculator interface {
	Compute(prices []float64) (*types.Indicators, error)
}

// Config contains predictor tuning.
type Config struct {
	Samples         int
	MinSamples      int
	SampleDelay     time.Duration
	ConfidenceFloor float64
	Metrics         *metrics.Metrics
	Logger          logrus.FieldLogger
}

// Predictor evaluates a token's short-term direction.
type Predictor struct {
	prices     PriceFeed
	sentiment  SentimentSource
	indicators IndicatorCalculator

	samples    int
	minSamples int
	floor      float64
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	log        *logrus.Entry
}

// NewPredictor creates a predictor. Zero config values take the defaults.
func NewPredictor(prices PriceFeed, sentiment SentimentSource, indicators IndicatorCalculator, config *Config) *Predictor {
	if config == nil {
		config = &Config{SampleDelay: DefaultSampleDelay}
	}

	p := &Predictor{
		prices:     prices,
		sentiment:  sentiment,
		indicators: indicators,
		samples:    config.Samples,
		minSamples: config.MinSamples,
		floor:      config.ConfidenceFloor,
		metrics:    config.Metrics,
		log:        logging.Component(config.Logger, "predict"),
	}
	if p.samples <= 0 {
		p.samples = DefaultSamples
	}
	if p.minSamples <= 0 {
		p.minSamples = DefaultMinSamples
	}
	if p.floor <= 0 || p.floor > 1 {
		p.floor = DefaultConfidenceFloor
	}

	limit := rate.Inf
	if config.SampleDelay > 0 {
		limit = rate.Every(config.SampleDelay)
	}
	p.limiter = rate.NewLimiter(limit, 1)

	return p
}

// Predict samples tokenMint's price, computes indicators and sentiment, and
// returns a signal. Degraded data yields HOLD; only cancellation is an error.
func (p *Predictor) Predict(ctx context.Context, tokenMint, symbol string) (*types.PredictionResult, error) {
	log := p.log.WithFields(logrus.Fields{
		"token_mint": tokenMint,
		"symbol":     symbol,
	})

	series, err := p.collect(ctx, tokenMint)
	if err != nil {
		return nil, err
	}

	if len(series) < p.minSamples {
		log.WithField("samples", len(series)).Warn("Not enough price samples for a prediction")
		return &types.PredictionResult{
			Signal:  types.SignalHold,
			Reason:  InsufficientDataReason,
			Samples: len(series),
		}, nil
	}

	ind, err := p.indicators.Compute(series)
	if err != nil {
		log.WithError(err).Warn("Indicator computation failed")
		return &types.PredictionResult{
			Signal:  types.SignalHold,
			Reason:  InsufficientDataReason,
			Samples: len(series),
		}, nil
	}

	sent := p.sentiment.Analyze(ctx, symbol)
	signal, confidence := Decide(ind.RSI, sent, p.floor)

	result := &types.PredictionResult{
		Signal:     signal,
		Confidence: confidence,
		Indicators: ind,
		Sentiment:  &sent,
		Reason:     reason(signal, ind.RSI, sent),
		Samples:    len(series),
	}

	log.WithFields(logrus.Fields{
		"signal":     signal,
		"confidence": confidence,
		"rsi":        ind.RSI,
		"samples":    len(series),
	}).Info("Prediction complete")

	return result, nil
}

// collect takes up to p.samples sequential prices, dropping failed ones.
func (p *Predictor) collect(ctx context.Context, tokenMint string) ([]float64, error) {
	series := make([]float64, 0, p.samples)
	for i := 0; i < p.samples; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("sample pacing: %w", err)
		}

		price, err := p.prices.TokenPrice(ctx, tokenMint)
		if err != nil || !(price > 0) || math.IsInf(price, 0) {
			p.metrics.SampleDropped()
			p.log.WithError(err).WithField("sample", i).Debug("Dropped price sample")
			continue
		}
		series = append(series, price)
	}
	return series, nil
}

// Decide maps an RSI value and sentiment to a signal and a confidence in
// (0, 1]. A zero confidence is raised to floor.
func Decide(rsi float64, sent types.Sentiment, floor float64) (types.Signal, float64) {
	bullish, bearish := sent.Ratios()

	signal := types.SignalHold
	confidence := 0.0
	switch {
	case rsi < RSIOversold && bullish > 0.5:
		signal = types.SignalLong
		confidence = ((RSIOversold - rsi) / 30) * bullish
	case rsi > RSIOverbought && bearish > 0.5:
		signal = types.SignalShort
		confidence = ((rsi - RSIOverbought) / 30) * bearish
	}

	if !(confidence > 0) {
		confidence = floor
	}
	return signal, math.Min(confidence, 1)
}

func reason(signal types.Signal, rsi float64, sent types.Sentiment) string {
	bullish, bearish := sent.Ratios()
	switch signal {
	case types.SignalLong:
		return fmt.Sprintf("RSI %.2f is oversold and %.0f%% of sentiment is bullish", rsi, bullish*100)
	case types.SignalShort:
		return fmt.Sprintf("RSI %.2f is overbought and %.0f%% of sentiment is bearish", rsi, bearish*100)
	default:
		return fmt.Sprintf("No signal: RSI %.2f, bullish %.0f%%, bearish %.0f%%", rsi, bullish*100, bearish*100)
	}
}
