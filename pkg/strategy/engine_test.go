package strategy

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonasrmichel/solstrat/pkg/arbitrage"
	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/pumpfun"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

type swapCall struct {
	in, out string
	amount  uint64
}

type fakeSwapper struct {
	mu    sync.Mutex
	calls []swapCall
	err   error
	errAt int // 1-based call that fails; 0 means every call when err is set
}

func (f *fakeSwapper) Swap(_ context.Context, in, out string, amount uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, swapCall{in, out, amount})
	if f.err != nil && (f.errAt == 0 || f.errAt == len(f.calls)) {
		return "", f.err
	}
	return "sig-" + string(rune('0'+len(f.calls))), nil
}

func (f *fakeSwapper) Calls() []swapCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]swapCall{}, f.calls...)
}

type fakeFinder struct {
	quotes []types.PriceQuote
}

func (f *fakeFinder) Evaluate(_ context.Context, a, b string, _ uint64) *arbitrage.Evaluation {
	eval := arbitrage.Analyze(f.quotes, arbitrage.DefaultSpreadThreshold)
	if eval.Opportunity != nil {
		eval.Opportunity.TokenMintA = a
		eval.Opportunity.TokenMintB = b
	}
	return eval
}

type fakeFeed []types.TokenInfo

func (f fakeFeed) RealTimeTokens() []types.TokenInfo { return f }

type fakeTrader struct {
	calls int
	err   error
}

func (f *fakeTrader) Trade(context.Context, string, pumpfun.Action, uint64) (string, error) {
	f.calls++
	return "pump-sig", f.err
}

// scriptedPrices returns prices in order, repeating the last one.
type scriptedPrices struct {
	mu     sync.Mutex
	prices []float64
	err    error
	calls  int
}

func (s *scriptedPrices) TokenPrice(context.Context, string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	i := s.calls
	if i >= len(s.prices) {
		i = len(s.prices) - 1
	}
	s.calls++
	return s.prices[i], nil
}

func (s *scriptedPrices) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakePredictor struct {
	signal types.Signal
}

func (f fakePredictor) Predict(context.Context, string, string) (*types.PredictionResult, error) {
	return &types.PredictionResult{Signal: f.signal, Confidence: 0.5, Samples: 30}, nil
}

type fakeMonitors struct {
	started []monitor.Config
	err     error
}

func (f *fakeMonitors) Start(cfg monitor.Config) (*monitor.Position, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started = append(f.started, cfg)
	return &monitor.Position{ID: "pos-1", Config: cfg}, nil
}

type recordingConfirm struct {
	answer   bool
	calls    int
	messages []string
}

func (r *recordingConfirm) Func(_ context.Context, msg string) (bool, error) {
	r.calls++
	r.messages = append(r.messages, msg)
	return r.answer, nil
}

type fixture struct {
	swapper   *fakeSwapper
	trader    *fakeTrader
	prices    *scriptedPrices
	monitors  *fakeMonitors
	finder    *fakeFinder
	predictor fakePredictor
	feed      fakeFeed
}

func newFixture() *fixture {
	return &fixture{
		swapper:  &fakeSwapper{},
		trader:   &fakeTrader{},
		prices:   &scriptedPrices{prices: []float64{1.0}},
		monitors: &fakeMonitors{},
		finder: &fakeFinder{quotes: []types.PriceQuote{
			{Source: "Jupiter", Price: 1.00},
			{Source: "Orca", Price: 1.05},
			{Source: "Raydium", Price: 1.06},
		}},
		predictor: fakePredictor{signal: types.SignalLong},
		feed:      fakeFeed{{Mint: "NEWTOKEN", Name: "New", Symbol: "NEW"}},
	}
}

func (f *fixture) engine(settings Settings) *Engine {
	return NewEngine(Dependencies{
		Swapper:   f.swapper,
		Prices:    f.prices,
		Monitors:  f.monitors,
		Finder:    f.finder,
		Feed:      f.feed,
		Trader:    f.trader,
		Predictor: f.predictor,
	}, settings)
}

var risk = Risk{StopLossPercent: 20, TakeProfitPercent: 50}

func TestDeclinedConfirmationExecutesNothing(t *testing.T) {
	type run func(e *Engine, c ConfirmFunc) (*Result, error)

	cases := []struct {
		name  string
		run   run
		token string
	}{
		{NameArbitrage, func(e *Engine, c ConfirmFunc) (*Result, error) {
			return e.Arbitrage(context.Background(), ArbitrageRequest{TokenMintA: "MINTA", TokenMintB: "MINTB", Amount: 777, Risk: risk, Confirm: c})
		}, "MINTA"},
		{NameDAO, func(e *Engine, c ConfirmFunc) (*Result, error) {
			return e.DAO(context.Background(), DAORequest{Amount: 777, Risk: risk, Confirm: c})
		}, "AbD84YXFFGSDiJ8hQtNm8cdKyTBB4o3PGrEjLJ9gdaos"},
		{NameDegen, func(e *Engine, c ConfirmFunc) (*Result, error) {
			return e.Degen(context.Background(), DegenRequest{Amount: 777, Risk: risk, Confirm: c})
		}, "NEWTOKEN"},
		{NameSafe, func(e *Engine, c ConfirmFunc) (*Result, error) {
			return e.Safe(context.Background(), SafeRequest{TokenMint: jupiter.USDCMint, Amount: 777, Risk: risk, Confirm: c})
		}, jupiter.USDCMint},
		{NamePredictive, func(e *Engine, c ConfirmFunc) (*Result, error) {
			return e.Predictive(context.Background(), PredictiveRequest{TokenMint: "PREDMINT", Symbol: "PRD", Amount: 777, Risk: risk, Confirm: c})
		}, "PREDMINT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			confirm := &recordingConfirm{answer: false}

			res, err := tc.run(f.engine(Settings{AutoTradeEnabled: true}), confirm.Func)
			if err != nil {
				t.Fatalf("%s: %v", tc.name, err)
			}
			if res.Outcome != OutcomeCancelled {
				t.Fatalf("outcome = %s, want cancelled", res.Outcome)
			}
			if confirm.calls != 1 {
				t.Fatalf("confirm called %d times, want 1", confirm.calls)
			}
			if len(f.swapper.Calls()) != 0 || f.trader.calls != 0 {
				t.Fatalf("entry trade executed after a declined confirmation")
			}
			if len(f.monitors.started) != 0 {
				t.Fatalf("monitor started after a declined confirmation")
			}
			msg := confirm.messages[0]
			if !strings.Contains(msg, tc.token) || !strings.Contains(msg, "777") {
				t.Fatalf("confirmation message %q lacks token or amount", msg)
			}
		})
	}
}

func TestSafeRejectsUnsupportedToken(t *testing.T) {
	f := newFixture()
	confirm := &recordingConfirm{answer: true}

	res, err := f.engine(Settings{}).Safe(context.Background(), SafeRequest{
		TokenMint: "SomeOtherMint111", Amount: 10, Risk: risk, Confirm: confirm.Func,
	})
	if res != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if err == nil || err.Error() != "Safe strategy supports SOL and USDC tokens only." {
		t.Fatalf("err = %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "token_mint" {
		t.Fatalf("err is not a token_mint validation error: %#v", err)
	}
	if confirm.calls != 0 {
		t.Fatalf("confirm called for an unsupported token")
	}
}

func TestSafeBuysWithCounterAsset(t *testing.T) {
	f := newFixture()
	e := f.engine(Settings{})

	res, err := e.Safe(context.Background(), SafeRequest{
		TokenMint: jupiter.SOLMint, Amount: 10, Risk: Risk{StopLossPercent: 5, ExitTo: "SOL"}, Confirm: AutoApprove,
	})
	if err != nil {
		t.Fatalf("Safe: %v", err)
	}
	if res.Outcome != OutcomeExecuted || res.PositionID != "pos-1" {
		t.Fatalf("result = %+v", res)
	}

	calls := f.swapper.Calls()
	if len(calls) != 1 || calls[0].in != jupiter.USDCMint || calls[0].out != jupiter.SOLMint {
		t.Fatalf("swap calls = %+v, want USDC -> SOL", calls)
	}
	// Exit target equal to the position token falls back to the other asset
	if got := f.monitors.started[0].ExitMint; got != jupiter.USDCMint {
		t.Fatalf("exit mint = %s, want USDC", got)
	}
}

func TestArbitrageInsufficientData(t *testing.T) {
	f := newFixture()
	f.finder.quotes = f.finder.quotes[:1]
	confirm := &recordingConfirm{answer: true}

	res, err := f.engine(Settings{AutoTradeEnabled: true}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Confirm: confirm.Func})
	if err != nil {
		t.Fatalf("Arbitrage: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Message != arbitrage.NotEnoughDataMessage {
		t.Fatalf("result = %+v", res)
	}
	if confirm.calls != 0 {
		t.Fatalf("confirm called without enough data")
	}
}

func TestArbitrageBelowThreshold(t *testing.T) {
	f := newFixture()
	f.finder.quotes = []types.PriceQuote{{Source: "Jupiter", Price: 1.0}, {Source: "Orca", Price: 1.005}}

	res, err := f.engine(Settings{AutoTradeEnabled: true}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Confirm: AutoApprove})
	if err != nil {
		t.Fatalf("Arbitrage: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Opportunity != nil {
		t.Fatalf("result = %+v", res)
	}
	if len(f.swapper.Calls()) != 0 {
		t.Fatalf("traded below threshold")
	}
}

func TestArbitrageAutoTradeDisabled(t *testing.T) {
	f := newFixture()

	res, err := f.engine(Settings{AutoTradeEnabled: false}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Confirm: AutoApprove})
	if err != nil {
		t.Fatalf("Arbitrage: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Message != MessageAutoTradeOff {
		t.Fatalf("result = %+v", res)
	}
	if res.Opportunity == nil || res.Opportunity.BuyOn != "Jupiter" || res.Opportunity.SellOn != "Raydium" {
		t.Fatalf("opportunity = %+v", res.Opportunity)
	}
	if len(f.swapper.Calls()) != 0 {
		t.Fatalf("traded with automated trading disabled")
	}
}

func TestArbitrageRoundTrip(t *testing.T) {
	f := newFixture()

	res, err := f.engine(Settings{AutoTradeEnabled: true}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Risk: risk, Confirm: AutoApprove})
	if err != nil {
		t.Fatalf("Arbitrage: %v", err)
	}

	calls := f.swapper.Calls()
	want := []swapCall{{"A", "B", 1_000_000}, {"B", "A", 1_000_000}}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Fatalf("swap calls = %+v, want %+v", calls, want)
	}
	if len(res.Signatures) != 2 {
		t.Fatalf("signatures = %v", res.Signatures)
	}
	if len(f.monitors.started) != 1 || f.monitors.started[0].TokenMint != "A" {
		t.Fatalf("monitor = %+v, want one on token A", f.monitors.started)
	}
}

func TestArbitrageSwapFailureIsWrapped(t *testing.T) {
	f := newFixture()
	f.swapper.err = errors.New("swap failed: quote: no route")

	_, err := f.engine(Settings{AutoTradeEnabled: true}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Confirm: AutoApprove})
	if err == nil || !strings.HasPrefix(err.Error(), "failed to execute arbitrage strategy: ") {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, f.swapper.err) {
		t.Fatalf("swap error not wrapped")
	}
}

func TestArbitrageSellLegFailureKeepsBuySignature(t *testing.T) {
	f := newFixture()
	f.swapper.err = errors.New("swap failed: submit")
	f.swapper.errAt = 2

	res, err := f.engine(Settings{AutoTradeEnabled: true}).Arbitrage(context.Background(),
		ArbitrageRequest{TokenMintA: "A", TokenMintB: "B", Confirm: AutoApprove})
	if err == nil {
		t.Fatalf("expected an error when the sell leg fails")
	}
	if res == nil || len(res.Signatures) != 1 {
		t.Fatalf("result = %+v, want the buy signature", res)
	}
}

func TestPredictiveHoldShortCircuits(t *testing.T) {
	f := newFixture()
	f.predictor = fakePredictor{signal: types.SignalHold}
	confirm := &recordingConfirm{answer: true}

	res, err := f.engine(Settings{}).Predictive(context.Background(), PredictiveRequest{
		TokenMint: "MINT", Symbol: "TKN", Amount: 5, Risk: risk, Confirm: confirm.Func,
	})
	if err != nil {
		t.Fatalf("Predictive: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Prediction == nil {
		t.Fatalf("result = %+v", res)
	}
	if confirm.calls != 0 || len(f.swapper.Calls()) != 0 || len(f.monitors.started) != 0 {
		t.Fatalf("HOLD must not confirm, swap or monitor")
	}
}

func TestPredictiveShortSellsAndMonitorsShort(t *testing.T) {
	f := newFixture()
	f.predictor = fakePredictor{signal: types.SignalShort}

	res, err := f.engine(Settings{}).Predictive(context.Background(), PredictiveRequest{
		TokenMint: "MINT", Symbol: "TKN", Amount: 5, Risk: risk, AutoTrade: true,
	})
	if err != nil {
		t.Fatalf("Predictive: %v", err)
	}
	if res.Outcome != OutcomeExecuted {
		t.Fatalf("result = %+v", res)
	}
	calls := f.swapper.Calls()
	if len(calls) != 1 || calls[0].in != "MINT" || calls[0].out != jupiter.SOLMint {
		t.Fatalf("swap calls = %+v, want MINT -> SOL", calls)
	}
	if f.monitors.started[0].Direction != types.DirectionShort {
		t.Fatalf("monitor direction = %s", f.monitors.started[0].Direction)
	}
}

func TestDegenNoTokens(t *testing.T) {
	f := newFixture()
	f.feed = nil
	confirm := &recordingConfirm{answer: true}

	res, err := f.engine(Settings{}).Degen(context.Background(), DegenRequest{Amount: 1000, Risk: risk, Confirm: confirm.Func})
	if err != nil {
		t.Fatalf("Degen: %v", err)
	}
	if res.Outcome != OutcomeSkipped || res.Message != "No new tokens to ape into at this time." {
		t.Fatalf("result = %+v", res)
	}
	if confirm.calls != 0 {
		t.Fatalf("confirm called with an empty feed")
	}
}

func TestDegenEndToEnd(t *testing.T) {
	swapper := &fakeSwapper{}
	trader := &fakeTrader{}
	// Entry price 1.0, then a -21% poll
	prices := &scriptedPrices{prices: []float64{1.0, 0.79}}

	registry := monitor.NewRegistry(context.Background(), prices, swapper, nil)
	e := NewEngine(Dependencies{
		Swapper:  swapper,
		Prices:   prices,
		Monitors: registry,
		Feed:     fakeFeed{{Mint: "NEWTOKEN", Symbol: "NEW"}},
		Trader:   trader,
	}, Settings{ExitTo: "USDC", MonitorInterval: 5 * time.Millisecond})

	res, err := e.Degen(context.Background(), DegenRequest{
		Amount: 1000,
		Risk:   Risk{StopLossPercent: 20, TakeProfitPercent: 50},
		Confirm: func(context.Context, string) (bool, error) {
			return true, nil
		},
	})
	if err != nil {
		t.Fatalf("Degen: %v", err)
	}
	if trader.calls != 1 {
		t.Fatalf("discovery trades = %d, want 1", trader.calls)
	}
	if res.EntryPrice != 1.0 || res.PositionID == "" {
		t.Fatalf("result = %+v", res)
	}

	pos, ok := registry.Get(res.PositionID)
	if ok {
		select {
		case <-pos.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("monitor did not exit")
		}
	}
	registry.Wait()

	calls := swapper.Calls()
	if len(calls) != 1 {
		t.Fatalf("exit swaps = %d, want 1", len(calls))
	}
	if calls[0] != (swapCall{"NEWTOKEN", jupiter.USDCMint, 1000}) {
		t.Fatalf("exit swap = %+v", calls[0])
	}

	polls := prices.Calls()
	time.Sleep(25 * time.Millisecond)
	if prices.Calls() != polls {
		t.Fatalf("monitor kept polling after exit")
	}
}

func TestEntryPriceFailureReturnsSignature(t *testing.T) {
	f := newFixture()
	f.prices.err = errors.New("dexscreener down")

	res, err := f.engine(Settings{}).DAO(context.Background(), DAORequest{Amount: 10, Confirm: AutoApprove})
	if !errors.Is(err, ErrMonitorNotStarted) {
		t.Fatalf("err = %v, want ErrMonitorNotStarted", err)
	}
	if res == nil || res.Outcome != OutcomeExecuted || len(res.Signatures) != 1 {
		t.Fatalf("result = %+v, want executed entry with signature", res)
	}
	if len(f.monitors.started) != 0 {
		t.Fatalf("monitor started without an entry price")
	}
}

func TestDAOStartsWatchOnlyMonitor(t *testing.T) {
	f := newFixture()

	if _, err := f.engine(Settings{DAOTokenMint: "DAOMINT"}).DAO(context.Background(),
		DAORequest{Amount: 10, Risk: risk, Confirm: AutoApprove}); err != nil {
		t.Fatalf("DAO: %v", err)
	}
	calls := f.swapper.Calls()
	if len(calls) != 1 || calls[0] != (swapCall{jupiter.SOLMint, "DAOMINT", 10}) {
		t.Fatalf("swap calls = %+v", calls)
	}
	if cfg := f.monitors.started[0]; !cfg.WatchOnly {
		t.Fatalf("DAO monitor has thresholds: %+v", cfg)
	}
}

func TestValidationHappensBeforeIO(t *testing.T) {
	f := newFixture()
	e := f.engine(Settings{})
	ctx := context.Background()

	checks := []struct {
		name string
		run  func() (*Result, error)
	}{
		{"arbitrage missing mint", func() (*Result, error) {
			return e.Arbitrage(ctx, ArbitrageRequest{TokenMintB: "B", Confirm: AutoApprove})
		}},
		{"arbitrage missing confirm", func() (*Result, error) {
			return e.Arbitrage(ctx, ArbitrageRequest{TokenMintA: "A", TokenMintB: "B"})
		}},
		{"dao zero amount", func() (*Result, error) {
			return e.DAO(ctx, DAORequest{Confirm: AutoApprove})
		}},
		{"degen negative stop loss", func() (*Result, error) {
			return e.Degen(ctx, DegenRequest{Amount: 1, Risk: Risk{StopLossPercent: -1}, Confirm: AutoApprove})
		}},
		{"safe missing token", func() (*Result, error) {
			return e.Safe(ctx, SafeRequest{Amount: 1, Confirm: AutoApprove})
		}},
		{"safe bad exit asset", func() (*Result, error) {
			return e.Safe(ctx, SafeRequest{TokenMint: jupiter.USDCMint, Amount: 1, Risk: Risk{ExitTo: "BONK"}, Confirm: AutoApprove})
		}},
		{"predictive missing symbol", func() (*Result, error) {
			return e.Predictive(ctx, PredictiveRequest{TokenMint: "M", Amount: 1, Confirm: AutoApprove})
		}},
		{"predictive missing confirm", func() (*Result, error) {
			return e.Predictive(ctx, PredictiveRequest{TokenMint: "M", Symbol: "S", Amount: 1})
		}},
		{"negative interval", func() (*Result, error) {
			return e.DAO(ctx, DAORequest{Amount: 1, Risk: Risk{MonitorInterval: -time.Second}, Confirm: AutoApprove})
		}},
	}

	for _, c := range checks {
		res, err := c.run()
		var verr *ValidationError
		if res != nil || !errors.As(err, &verr) {
			t.Fatalf("%s: res=%+v err=%v, want validation error", c.name, res, err)
		}
	}
	if len(f.swapper.Calls()) != 0 || f.prices.Calls() != 0 {
		t.Fatalf("validation failures reached the network")
	}
}

type fakeScamChecker struct {
	risk  scamcheck.Risk
	err   error
	calls int
}

func (f *fakeScamChecker) Check(_ context.Context, mint string) (*scamcheck.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &scamcheck.Report{TokenMint: mint, Risk: f.risk, Reasons: []string{"Low liquidity."}}, nil
}

func TestDegenScamGate(t *testing.T) {
	tests := []struct {
		name       string
		risk       scamcheck.Risk
		maxRisk    scamcheck.Risk
		want       Outcome
		wantTrades int
	}{
		{"risky token skipped", scamcheck.RiskHigh, scamcheck.RiskMedium, OutcomeSkipped, 0},
		{"within limit", scamcheck.RiskMedium, scamcheck.RiskMedium, OutcomeExecuted, 1},
		{"low risk", scamcheck.RiskLow, scamcheck.RiskLow, OutcomeExecuted, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			checker := &fakeScamChecker{risk: tt.risk}
			e := f.engine(Settings{})
			e.deps.ScamChecker = checker
			confirm := &recordingConfirm{answer: true}

			res, err := e.Degen(context.Background(), DegenRequest{Amount: 1000, Risk: risk, MaxRisk: tt.maxRisk, Confirm: confirm.Func})
			if err != nil {
				t.Fatalf("Degen: %v", err)
			}
			if res.Outcome != tt.want {
				t.Fatalf("outcome = %s, want %s (%s)", res.Outcome, tt.want, res.Message)
			}
			if f.trader.calls != tt.wantTrades {
				t.Fatalf("discovery trades = %d, want %d", f.trader.calls, tt.wantTrades)
			}
			if checker.calls != 1 || res.ScamCheck == nil || res.ScamCheck.TokenMint != "NEWTOKEN" {
				t.Fatalf("scam check not attached: calls=%d result=%+v", checker.calls, res)
			}
			if tt.want == OutcomeSkipped {
				if confirm.calls != 0 {
					t.Fatalf("confirm called for a skipped token")
				}
				if !strings.Contains(res.Message, MessageScamRisk) {
					t.Fatalf("message = %q", res.Message)
				}
			}
		})
	}
}

func TestDegenScamGateErrors(t *testing.T) {
	f := newFixture()
	req := DegenRequest{Amount: 1000, MaxRisk: scamcheck.RiskLow, Confirm: AutoApprove}

	if _, err := f.engine(Settings{}).Degen(context.Background(), req); err == nil {
		t.Fatalf("expected error without a scam checker")
	}

	upstream := errors.New("dexscreener down")
	e := f.engine(Settings{})
	e.deps.ScamChecker = &fakeScamChecker{err: upstream}
	if _, err := e.Degen(context.Background(), req); !errors.Is(err, upstream) {
		t.Fatalf("err = %v, want wrapped checker error", err)
	}
	if f.trader.calls != 0 {
		t.Fatalf("traded despite failed scam check")
	}

	req.MaxRisk = "extreme"
	var verr *ValidationError
	if _, err := e.Degen(context.Background(), req); !errors.As(err, &verr) || verr.Field != "max_risk" {
		t.Fatalf("err = %v, want max_risk validation error", err)
	}
}

func TestZeroMonitorIntervalUsesDefault(t *testing.T) {
	f := newFixture()
	if _, err := f.engine(Settings{}).DAO(context.Background(), DAORequest{Amount: 1, Confirm: AutoApprove}); err != nil {
		t.Fatalf("DAO: %v", err)
	}
	if got := f.monitors.started[0].Interval; got != monitor.DefaultInterval {
		t.Fatalf("interval = %s, want engine default %s", got, monitor.DefaultInterval)
	}

	f = newFixture()
	e := f.engine(Settings{MonitorInterval: 3 * time.Second})
	if _, err := e.DAO(context.Background(), DAORequest{Amount: 1, Confirm: AutoApprove}); err != nil {
		t.Fatalf("DAO: %v", err)
	}
	if got := f.monitors.started[0].Interval; got != 3*time.Second {
		t.Fatalf("interval = %s, want configured 3s", got)
	}
}
