package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/pricewatch"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/strategy"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

func TestReportResultText(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatText)

	r.ReportResult(&strategy.Result{
		Strategy:   strategy.NameArbitrage,
		Outcome:    strategy.OutcomeExecuted,
		Message:    "Arbitrage trades executed.",
		Signatures: []string{"sigA", "sigB"},
		Opportunity: &types.ArbitrageOpportunity{
			BuyOn: "Jupiter", SellOn: "Raydium", BuyPrice: 1, SellPrice: 1.06,
		},
		Spread:     0.06,
		PositionID: "pos-1",
	})

	out := buf.String()
	for _, want := range []string{"ARBITRAGE STRATEGY: EXECUTED", "Jupiter", "Raydium", "6.00%", "sigA", "sigB", "pos-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if got := r.GetStats().Executed; got != 1 {
		t.Fatalf("executed = %d, want 1", got)
	}
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatJSON)

	r.ReportExit(monitor.ExitEvent{
		PositionID: "pos-1", Reason: monitor.ExitStopLoss, ExitPrice: 0.79,
		PercentChange: -21, Err: errors.New("no route"), Time: time.Now(),
	})

	var report struct {
		Kind string `json:"kind"`
		Data struct {
			PositionID string `json:"position_id"`
			Reason     string `json:"reason"`
			Error      string `json:"error"`
		} `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if report.Kind != "exit" || report.Data.PositionID != "pos-1" || report.Data.Reason != "stop_loss" || report.Data.Error != "no route" {
		t.Fatalf("report = %+v", report)
	}
}

func TestReportBalancesAndStats(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "")

	r.ReportBalances("Wallet111", []Balance{{Asset: "SOL", Amount: decimal.RequireFromString("1.5")}})
	r.ReportError("safe", errors.New("boom"))
	r.ReportResult(&strategy.Result{Strategy: "degen", Outcome: strategy.OutcomeSkipped, Message: "No new tokens"})
	r.PrintStats()

	out := buf.String()
	for _, want := range []string{"Wallet111", "1.5", "safe: boom", "Skipped:         1", "Errors:          1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportScamCheck(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatText)

	r.ReportScamCheck(&scamcheck.Report{
		TokenMint:            "MINT",
		Risk:                 scamcheck.RiskHigh,
		Reasons:              []string{"Low liquidity.", "Liquidity may not be locked."},
		LargestHolderPercent: 42.5,
	})
	r.ReportResult(&strategy.Result{
		Strategy:  strategy.NameDegen,
		Outcome:   strategy.OutcomeSkipped,
		Message:   strategy.MessageScamRisk,
		ScamCheck: &scamcheck.Report{Risk: scamcheck.RiskHigh},
	})

	out := buf.String()
	for _, want := range []string{"Scam check for MINT: HIGH risk", "42.50%", "- Low liquidity.", "Scam risk:    high"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportTicks(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, FormatText)

	r.ReportTick(pricewatch.Tick{
		WatchID: "w-1", TokenMint: "MINT", Price: 0.5, Signal: pricewatch.SignalBuy,
		Indicators: &types.Indicators{RSI: 22.5}, Time: time.Now(),
	})
	r.ReportWatches(nil)
	r.ReportWatches([]pricewatch.Watch{{ID: "w-1", TokenMint: "MINT", Interval: time.Minute, Samples: 3}})

	out := buf.String()
	for _, want := range []string{"w-1 MINT price 0.50000000 RSI 22.50 signal BUY", "No price monitors running.", "MINT every 1m0s (3 samples)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	jr := NewReporter(&buf, FormatJSON)
	jr.ReportTick(pricewatch.Tick{WatchID: "w-2", Signal: pricewatch.SignalHold})
	if !strings.Contains(buf.String(), `"kind": "tick"`) || !strings.Contains(buf.String(), `"quick_signal": "HOLD"`) {
		t.Fatalf("json tick = %s", buf.String())
	}
}
