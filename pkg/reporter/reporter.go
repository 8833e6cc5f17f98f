// Package reporter renders strategy results, position exits and balances.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/pricewatch"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/strategy"
)

// OutputFormat specifies the output format for reports.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Stats counts what the reporter has seen.
type Stats struct {
	StartTime time.Time `json:"start_time"`
	Executed  int64     `json:"executed"`
	Cancelled int64     `json:"cancelled"`
	Skipped   int64     `json:"skipped"`
	Errors    int64     `json:"errors"`
	Exits     int64     `json:"exits"`
}

// Reporter writes reports to an output stream.
type Reporter struct {
	mu     sync.Mutex
	output io.Writer
	format OutputFormat
	stats  Stats
}

// NewReporter creates a new reporter.
func NewReporter(output io.Writer, format OutputFormat) *Reporter {
	if output == nil {
		output = os.Stdout
	}
	if format != FormatJSON {
		format = FormatText
	}
	return &Reporter{
		output: output,
		format: format,
		stats:  Stats{StartTime: time.Now()},
	}
}

// ReportResult prints a strategy result.
func (r *Reporter) ReportResult(res *strategy.Result) {
	if res == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch res.Outcome {
	case strategy.OutcomeExecuted:
		r.stats.Executed++
	case strategy.OutcomeCancelled:
		r.stats.Cancelled++
	case strategy.OutcomeSkipped:
		r.stats.Skipped++
	}

	if r.format == FormatJSON {
		r.writeJSON("result", res)
		return
	}

	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("=", 80))
	fmt.Fprintf(r.output, "%s STRATEGY: %s\n", strings.ToUpper(res.Strategy), strings.ToUpper(string(res.Outcome)))
	fmt.Fprintf(r.output, "Time: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(r.output, strings.Repeat("=", 80))
	fmt.Fprintln(r.output, res.Message)

	if res.Token != nil {
		fmt.Fprintf(r.output, "Token:        %s %s\n", res.Token.Mint, res.Token.Symbol)
	}
	if opp := res.Opportunity; opp != nil {
		fmt.Fprintf(r.output, "Buy on:       %s @ %s\n", opp.BuyOn, formatPrice(opp.BuyPrice))
		fmt.Fprintf(r.output, "Sell on:      %s @ %s\n", opp.SellOn, formatPrice(opp.SellPrice))
	}
	if res.Spread != 0 {
		fmt.Fprintf(r.output, "Spread:       %.2f%%\n", res.Spread*100)
	}
	if p := res.Prediction; p != nil {
		fmt.Fprintf(r.output, "Prediction:   %s (confidence %.2f, %d samples)\n", p.Signal, p.Confidence, p.Samples)
		if p.Reason != "" {
			fmt.Fprintf(r.output, "Reason:       %s\n", p.Reason)
		}
	}
	if sc := res.ScamCheck; sc != nil {
		fmt.Fprintf(r.output, "Scam risk:    %s\n", sc.Risk)
	}
	for _, sig := range res.Signatures {
		fmt.Fprintf(r.output, "Signature:    %s\n", sig)
	}
	if res.EntryPrice > 0 {
		fmt.Fprintf(r.output, "Entry price:  %s\n", formatPrice(res.EntryPrice))
	}
	if res.PositionID != "" {
		fmt.Fprintf(r.output, "Position:     %s\n", res.PositionID)
	}
	fmt.Fprintln(r.output, strings.Repeat("-", 80))
}

// ReportError prints a failed strategy or command.
func (r *Reporter) ReportError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Errors++

	if r.format == FormatJSON {
		r.writeJSON("error", map[string]string{"command": name, "error": err.Error()})
		return
	}
	fmt.Fprintf(r.output, "[%s] %s: %v\n", time.Now().Format("15:04:05"), name, err)
}

// ReportExit prints a closed position.
func (r *Reporter) ReportExit(event monitor.ExitEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Exits++

	if r.format == FormatJSON {
		payload := struct {
			monitor.ExitEvent
			Err string `json:"error,omitempty"`
		}{ExitEvent: event}
		if event.Err != nil {
			payload.Err = event.Err.Error()
		}
		r.writeJSON("exit", payload)
		return
	}

	status := "signature " + event.Signature
	if event.Err != nil {
		status = "exit swap failed: " + event.Err.Error()
	}
	fmt.Fprintf(r.output, "[%s] Position %s closed on %s at %s (%+.2f%%), %s\n",
		event.Time.Format("15:04:05"), event.PositionID, event.Reason,
		formatPrice(event.ExitPrice), event.PercentChange, status)
}

// ReportScamCheck prints a scam check report.
func (r *Reporter) ReportScamCheck(report *scamcheck.Report) {
	if report == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatJSON {
		r.writeJSON("scam_check", report)
		return
	}

	fmt.Fprintf(r.output, "Scam check for %s: %s risk\n", report.TokenMint, strings.ToUpper(string(report.Risk)))
	if report.LargestHolderPercent > 0 {
		fmt.Fprintf(r.output, "  Largest holder: %.2f%% of supply\n", report.LargestHolderPercent)
	}
	for _, reason := range report.Reasons {
		fmt.Fprintf(r.output, "  - %s\n", reason)
	}
}

// ReportTick prints one price watch tick.
func (r *Reporter) ReportTick(tick pricewatch.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatJSON {
		r.writeJSON("tick", tick)
		return
	}

	line := fmt.Sprintf("[%s] %s %s price %s", tick.Time.Format("15:04:05"), tick.WatchID, tick.TokenMint, formatPrice(tick.Price))
	if ind := tick.Indicators; ind != nil {
		line += fmt.Sprintf(" RSI %.2f", ind.RSI)
		if ind.MACD != nil {
			line += fmt.Sprintf(" MACD %.6f/%.6f", ind.MACD.MACD, ind.MACD.Signal)
		}
		if ind.Bollinger != nil {
			line += fmt.Sprintf(" BB %s-%s", formatPrice(ind.Bollinger.Lower), formatPrice(ind.Bollinger.Upper))
		}
	}
	fmt.Fprintf(r.output, "%s signal %s\n", line, tick.Signal)
}

// ReportWatches prints the running price watches.
func (r *Reporter) ReportWatches(watches []pricewatch.Watch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatJSON {
		r.writeJSON("watches", watches)
		return
	}

	if len(watches) == 0 {
		fmt.Fprintln(r.output, "No price monitors running.")
		return
	}
	for _, w := range watches {
		fmt.Fprintf(r.output, "  %s  %s every %s (%d samples)\n", w.ID, w.TokenMint, w.Interval, w.Samples)
	}
}

// Balance is a wallet balance line.
type Balance struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// ReportBalances prints wallet balances.
func (r *Reporter) ReportBalances(wallet string, balances []Balance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatJSON {
		r.writeJSON("balances", map[string]interface{}{"wallet": wallet, "balances": balances})
		return
	}

	fmt.Fprintf(r.output, "Wallet: %s\n", wallet)
	for _, b := range balances {
		fmt.Fprintf(r.output, "  %-8s %s\n", b.Asset, b.Amount.String())
	}
}

// GetStats returns current statistics.
func (r *Reporter) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// PrintStats prints statistics.
func (r *Reporter) PrintStats() {
	stats := r.GetStats()

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("=", 50))
	fmt.Fprintln(r.output, "SESSION STATISTICS")
	fmt.Fprintln(r.output, strings.Repeat("=", 50))
	fmt.Fprintf(r.output, "Running since:   %s\n", stats.StartTime.Format(time.RFC3339))
	fmt.Fprintf(r.output, "Uptime:          %s\n", time.Since(stats.StartTime).Round(time.Second))
	fmt.Fprintf(r.output, "Executed:        %d\n", stats.Executed)
	fmt.Fprintf(r.output, "Cancelled:       %d\n", stats.Cancelled)
	fmt.Fprintf(r.output, "Skipped:         %d\n", stats.Skipped)
	fmt.Fprintf(r.output, "Position exits:  %d\n", stats.Exits)
	fmt.Fprintf(r.output, "Errors:          %d\n", stats.Errors)
	fmt.Fprintln(r.output, strings.Repeat("-", 50))
}

func (r *Reporter) writeJSON(kind string, payload interface{}) {
	report := struct {
		Timestamp string      `json:"timestamp"`
		Kind      string      `json:"kind"`
		Data      interface{} `json:"data"`
	}{
		Timestamp: time.Now().Format(time.RFC3339),
		Kind:      kind,
		Data:      payload,
	}

	encoder := json.NewEncoder(r.output)
	encoder.SetIndent("", "  ")
	encoder.Encode(report)
}

func formatPrice(f float64) string {
	if f == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.8f", f)
}
