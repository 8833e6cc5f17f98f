// Package arbitrage aggregates DEX quotes and detects cross-source spreads.
package arbitrage

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/providers"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// DefaultSpreadThreshold is the minimum spread (1%) reported as an opportunity.
const DefaultSpreadThreshold = 0.01

// NotEnoughDataMessage is reported when fewer than two sources quote a pair.
const NotEnoughDataMessage = "Not enough price data to evaluate arbitrage."

// Detector queries every registered source for a pair and evaluates the spread.
type Detector struct {
	registry  *providers.Registry
	threshold float64
	log       *logrus.Entry
}

// NewDetector creates a detector. A negative threshold uses DefaultSpreadThreshold.
func NewDetector(registry *providers.Registry, threshold float64, logger logrus.FieldLogger) *Detector {
	if threshold < 0 {
		threshold = DefaultSpreadThreshold
	}
	return &Detector{
		registry:  registry,
		threshold: threshold,
		log:       logging.Component(logger, "arbitrage"),
	}
}

// Threshold returns the configured spread threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Evaluation is the outcome of one aggregation round.
type Evaluation struct {
	Quotes      []types.PriceQuote          // Sources that reported, in registration order
	Min         *types.PriceQuote           // Cheapest source; nil when data is insufficient
	Max         *types.PriceQuote           // Most expensive source; nil when data is insufficient
	Spread      float64                     // (Max - Min) / Min
	Opportunity *types.ArbitrageOpportunity // Set only when Spread exceeds the threshold
}

// Sufficient reports whether at least two sources reported a price.
func (e *Evaluation) Sufficient() bool {
	return len(e.Quotes) >= 2
}

// Message describes the evaluation for operators.
func (e *Evaluation) Message() string {
	switch {
	case !e.Sufficient():
		return NotEnoughDataMessage
	case e.Opportunity != nil:
		return fmt.Sprintf("Arbitrage opportunity: buy on %s at %.6f, sell on %s at %.6f, spread %.2f%%.",
			e.Opportunity.BuyOn, e.Opportunity.BuyPrice, e.Opportunity.SellOn, e.Opportunity.SellPrice, e.Spread*100)
	default:
		return fmt.Sprintf("No arbitrage opportunity: spread %.2f%% is below the threshold.", e.Spread*100)
	}
}

// Evaluate queries all sources concurrently for (mintA -> mintB, amount) and
// evaluates the spread. Source failures count as "no data" and never fail the call.
func (d *Detector) Evaluate(ctx context.Context, mintA, mintB string, amount uint64) *Evaluation {
	quotes := d.FetchQuotes(ctx, mintA, mintB, amount)

	eval := Analyze(quotes, d.threshold)
	if eval.Opportunity != nil {
		eval.Opportunity.TokenMintA = mintA
		eval.Opportunity.TokenMintB = mintB
	}

	d.log.WithFields(logrus.Fields{
		"token_mint_a": mintA,
		"token_mint_b": mintB,
		"sources":      len(quotes),
		"spread":       eval.Spread,
		"opportunity":  eval.Opportunity != nil,
	}).Info("Evaluated arbitrage spread")

	return eval
}

// FetchQuotes queries every source concurrently and returns the positive
// prices in registration order.
func (d *Detector) FetchQuotes(ctx context.Context, mintA, mintB string, amount uint64) []types.PriceQuote {
	sources := d.registry.All()
	results := make([]*types.PriceQuote, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src providers.PriceSource) {
			defer wg.Done()
			defer func() {
				// A misbehaving source is still just "no data"
				if r := recover(); r != nil {
					d.log.WithField("source", src.Name()).Errorf("Price source panicked: %v", r)
				}
			}()

			price, err := src.GetPrice(ctx, mintA, mintB, amount)
			if err != nil || !(price > 0) || math.IsInf(price, 0) {
				d.log.WithError(err).WithField("source", src.Name()).Debug("No price from source")
				return
			}

			results[i] = &types.PriceQuote{
				Source:    src.Name(),
				Price:     price,
				Timestamp: time.Now(),
			}
		}(i, src)
	}
	wg.Wait()

	quotes := make([]types.PriceQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// Analyze computes the best-price selection over quotes. Ties break to the
// earliest quote. An opportunity is reported only when the spread is strictly
// greater than threshold.
func Analyze(quotes []types.PriceQuote, threshold float64) *Evaluation {
	eval := &Evaluation{Quotes: quotes}
	if len(quotes) < 2 {
		return eval
	}

	minIdx, maxIdx := 0, 0
	for i := 1; i < len(quotes); i++ {
		if quotes[i].Price < quotes[minIdx].Price {
			minIdx = i
		}
		if quotes[i].Price > quotes[maxIdx].Price {
			maxIdx = i
		}
	}

	minQ, maxQ := quotes[minIdx], quotes[maxIdx]
	eval.Min = &minQ
	eval.Max = &maxQ
	eval.Spread = (maxQ.Price - minQ.Price) / minQ.Price

	if eval.Spread > threshold {
		eval.Opportunity = &types.ArbitrageOpportunity{
			BuyOn:      minQ.Source,
			SellOn:     maxQ.Source,
			BuyPrice:   minQ.Price,
			SellPrice:  maxQ.Price,
			Spread:     eval.Spread,
			SpreadBps:  int(math.Round(eval.Spread * 10_000)),
			DetectedAt: time.Now(),
		}
	}

	return eval
}
