package predict

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/jonasrmichel/solstrat/pkg/indicators"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

type sampleFeed struct {
	calls int
	fail  func(i int) bool
}

func (f *sampleFeed) TokenPrice(context.Context, string) (float64, error) {
	i := f.calls
	f.calls++
	if f.fail != nil && f.fail(i) {
		return 0, errors.New("rate limited")
	}
	return 1 + float64(i%5)*0.01, nil
}

type countingSentiment struct {
	calls int
	value types.Sentiment
}

func (s *countingSentiment) Analyze(context.Context, string) types.Sentiment {
	s.calls++
	return s.value
}

type fixedRSI float64

func (r fixedRSI) Compute([]float64) (*types.Indicators, error) {
	return &types.Indicators{RSI: float64(r)}, nil
}

func newTestPredictor(feed PriceFeed, sent SentimentSource, calc IndicatorCalculator) *Predictor {
	return NewPredictor(feed, sent, calc, &Config{})
}

func TestPredictInsufficientSamples(t *testing.T) {
	// 16 of 30 samples fail, leaving 14 valid
	feed := &sampleFeed{fail: func(i int) bool { return i < 16 }}
	sent := &countingSentiment{value: types.DefaultSentiment()}

	res, err := newTestPredictor(feed, sent, fixedRSI(20)).Predict(context.Background(), "MINT", "TKN")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Signal != types.SignalHold || res.Confidence != 0 {
		t.Fatalf("result = %+v, want HOLD with zero confidence", res)
	}
	if res.Reason != InsufficientDataReason {
		t.Fatalf("reason = %q", res.Reason)
	}
	if res.Samples != 14 {
		t.Fatalf("samples = %d, want 14", res.Samples)
	}
	if sent.calls != 0 {
		t.Fatalf("sentiment consulted %d times with insufficient data", sent.calls)
	}
	if feed.calls != DefaultSamples {
		t.Fatalf("price fetches = %d, want %d", feed.calls, DefaultSamples)
	}
}

func TestPredictLongAndShort(t *testing.T) {
	bull := types.Sentiment{Bullish: 80, Bearish: 10, Neutral: 10}
	bear := types.Sentiment{Bullish: 10, Bearish: 60, Neutral: 30}

	res, err := newTestPredictor(&sampleFeed{}, &countingSentiment{value: bull}, fixedRSI(15)).
		Predict(context.Background(), "MINT", "TKN")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Signal != types.SignalLong {
		t.Fatalf("signal = %s, want LONG", res.Signal)
	}
	if want := (15.0 / 30) * 0.8; math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", res.Confidence, want)
	}

	res, err = newTestPredictor(&sampleFeed{}, &countingSentiment{value: bear}, fixedRSI(85)).
		Predict(context.Background(), "MINT", "TKN")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Signal != types.SignalShort {
		t.Fatalf("signal = %s, want SHORT", res.Signal)
	}
	if want := (15.0 / 30) * 0.6; math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", res.Confidence, want)
	}
}

func TestDecideConfidenceBounds(t *testing.T) {
	sentiments := []types.Sentiment{
		types.DefaultSentiment(),
		{Bullish: 100},
		{Bearish: 100},
		{Bullish: 51, Bearish: 49},
		{},
	}
	for rsi := 0.0; rsi <= 100; rsi += 0.5 {
		for _, s := range sentiments {
			_, c := Decide(rsi, s, DefaultConfidenceFloor)
			if !(c > 0 && c <= 1) {
				t.Fatalf("Decide(%v, %+v) confidence = %v outside (0,1]", rsi, s, c)
			}
		}
	}
}

func TestDecideHoldUsesFloor(t *testing.T) {
	signal, c := Decide(50, types.DefaultSentiment(), 0.3)
	if signal != types.SignalHold || c != 0.3 {
		t.Fatalf("Decide = %s/%v, want HOLD/0.3", signal, c)
	}

	// Oversold without bullish majority stays HOLD
	signal, _ = Decide(10, types.Sentiment{Bullish: 50, Bearish: 50}, 0.3)
	if signal != types.SignalHold {
		t.Fatalf("signal = %s, want HOLD", signal)
	}

	// RSI 0 with full bullish sentiment caps at 1
	if _, c := Decide(0, types.Sentiment{Bullish: 100}, 0.3); c != 1 {
		t.Fatalf("confidence = %v, want 1", c)
	}
}

func TestPredictWithRealIndicators(t *testing.T) {
	res, err := NewPredictor(&sampleFeed{}, &countingSentiment{value: types.DefaultSentiment()},
		indicators.NewCalculator(), &Config{}).Predict(context.Background(), "MINT", "TKN")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.Indicators == nil || res.Sentiment == nil {
		t.Fatalf("result missing indicators or sentiment: %+v", res)
	}
	if !(res.Confidence > 0 && res.Confidence <= 1) {
		t.Fatalf("confidence = %v", res.Confidence)
	}
}

func TestPredictHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPredictor(&sampleFeed{}, &countingSentiment{}, fixedRSI(50), nil)
	if _, err := p.Predict(ctx, "MINT", "TKN"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
