package strategy

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/pumpfun"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// DegenRequest apes into the newest token on the discovery feed.
type DegenRequest struct {
	Amount uint64 // Lamports of SOL to spend
	Risk
	// MaxRisk skips tokens whose scam check scores above it. Empty skips
	// the check.
	MaxRisk scamcheck.Risk
	Confirm ConfirmFunc
}

func (r *DegenRequest) validate() error {
	if r.Amount == 0 {
		return invalid("amount", "amount must be positive")
	}
	if r.Confirm == nil {
		return invalid("confirm", "confirm callback is required")
	}
	if r.MaxRisk != "" {
		if _, err := scamcheck.ParseRisk(string(r.MaxRisk)); err != nil {
			return invalid("max_risk", "%v", err)
		}
	}
	return r.Risk.validate()
}

// Degen buys the first token the discovery feed lists through the discovery
// platform, then monitors it with exits routed through the swap executor.
func (e *Engine) Degen(ctx context.Context, req DegenRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	tokens := e.deps.Feed.RealTimeTokens()
	if len(tokens) == 0 {
		return e.finish(&Result{Strategy: NameDegen, Outcome: OutcomeSkipped, Message: MessageNoTokens}), nil
	}
	token := tokens[0]

	var report *scamcheck.Report
	if req.MaxRisk != "" {
		if e.deps.ScamChecker == nil {
			return nil, e.fail(NameDegen, fmt.Errorf("scam check requested but no checker is configured"))
		}
		var err error
		report, err = e.deps.ScamChecker.Check(ctx, token.Mint)
		if err != nil {
			return nil, e.fail(NameDegen, err)
		}
		if report.Risk.Exceeds(req.MaxRisk) {
			return e.finish(&Result{
				Strategy:  NameDegen,
				Outcome:   OutcomeSkipped,
				Message:   fmt.Sprintf("%s Risk %s exceeds %s.", MessageScamRisk, report.Risk, req.MaxRisk),
				Token:     &token,
				ScamCheck: report,
			}), nil
		}
	}

	message := fmt.Sprintf("Ready to buy token %s (%s) with amount %d. %s. Proceed?",
		token.Mint, token.Symbol, req.Amount, req.Risk.describe())
	if res, err := e.confirm(ctx, NameDegen, req.Confirm, message); res != nil || err != nil {
		if res != nil {
			res.Token = &token
			res.ScamCheck = report
		}
		return res, err
	}

	sig, err := e.deps.Trader.Trade(ctx, token.Mint, pumpfun.ActionBuy, req.Amount)
	if err != nil {
		return nil, e.fail(NameDegen, err)
	}

	res := &Result{
		Strategy:   NameDegen,
		Outcome:    OutcomeExecuted,
		Message:    fmt.Sprintf("Degen trade executed. Tx signature: %s", sig),
		Signatures: []string{sig},
		Token:      &token,
		ScamCheck:  report,
	}

	return e.startPosition(ctx, res, monitor.Config{
		TokenMint:         token.Mint,
		Direction:         types.DirectionLong,
		Amount:            req.Amount,
		StopLossPercent:   req.StopLossPercent,
		TakeProfitPercent: req.TakeProfitPercent,
		ExitMint:          e.exitMint(req.Risk, token.Mint),
		Interval:          e.interval(req.Risk),
	})
}
