package strategy

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// ArbitrageRequest asks the engine to look for, and optionally trade, a spread
// between TokenMintA and TokenMintB.
type ArbitrageRequest struct {
	TokenMintA string
	TokenMintB string
	Amount     uint64 // Smallest units of TokenMintA; zero uses the default
	Risk
	Confirm ConfirmFunc
}

func (r *ArbitrageRequest) validate() error {
	if r.TokenMintA == "" {
		return invalid("token_mint_a", "token mint A is required")
	}
	if r.TokenMintB == "" {
		return invalid("token_mint_b", "token mint B is required")
	}
	if r.TokenMintA == r.TokenMintB {
		return invalid("token_mint_b", "token mints A and B must differ")
	}
	if r.Confirm == nil {
		return invalid("confirm", "confirm callback is required")
	}
	return r.Risk.validate()
}

// Arbitrage quotes the pair on every source, reports the spread and, when it
// qualifies and automated trading is enabled, executes a buy/sell round trip
// and monitors token A.
func (e *Engine) Arbitrage(ctx context.Context, req ArbitrageRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		req.Amount = e.settings.DefaultArbitrageAmount
	}

	eval := e.deps.Finder.Evaluate(ctx, req.TokenMintA, req.TokenMintB, req.Amount)
	if !eval.Sufficient() || eval.Opportunity == nil {
		return e.finish(&Result{
			Strategy: NameArbitrage,
			Outcome:  OutcomeSkipped,
			Message:  eval.Message(),
			Spread:   eval.Spread,
		}), nil
	}

	opp := eval.Opportunity
	e.notifyOpportunity(ctx, opp)

	message := fmt.Sprintf("Arbitrage opportunity for %s -> %s: buy on %s at %.6f, sell on %s at %.6f, spread %.2f%%. "+
		"Trade amount %d, %s. Proceed with automated trades?",
		req.TokenMintA, req.TokenMintB, opp.BuyOn, opp.BuyPrice, opp.SellOn, opp.SellPrice,
		opp.Spread*100, req.Amount, req.Risk.describe())
	if res, err := e.confirm(ctx, NameArbitrage, req.Confirm, message); res != nil || err != nil {
		if res != nil {
			res.Opportunity = opp
			res.Spread = opp.Spread
		}
		return res, err
	}

	if !e.settings.AutoTradeEnabled {
		return e.finish(&Result{
			Strategy:    NameArbitrage,
			Outcome:     OutcomeSkipped,
			Message:     MessageAutoTradeOff,
			Opportunity: opp,
			Spread:      opp.Spread,
		}), nil
	}

	buySig, err := e.deps.Swapper.Swap(ctx, req.TokenMintA, req.TokenMintB, req.Amount)
	if err != nil {
		return nil, e.fail(NameArbitrage, fmt.Errorf("buy leg: %w", err))
	}
	sellSig, err := e.deps.Swapper.Swap(ctx, req.TokenMintB, req.TokenMintA, req.Amount)
	if err != nil {
		return &Result{
			Strategy:    NameArbitrage,
			Outcome:     OutcomeExecuted,
			Message:     "Arbitrage buy leg executed; sell leg failed.",
			Signatures:  []string{buySig},
			Opportunity: opp,
			Spread:      opp.Spread,
		}, e.fail(NameArbitrage, fmt.Errorf("sell leg: %w", err))
	}

	res := &Result{
		Strategy:    NameArbitrage,
		Outcome:     OutcomeExecuted,
		Message:     fmt.Sprintf("Arbitrage trades executed: bought on %s, sold on %s.", opp.BuyOn, opp.SellOn),
		Signatures:  []string{buySig, sellSig},
		Opportunity: opp,
		Spread:      opp.Spread,
	}

	return e.startPosition(ctx, res, monitor.Config{
		TokenMint:         req.TokenMintA,
		Direction:         types.DirectionLong,
		Amount:            req.Amount,
		StopLossPercent:   req.StopLossPercent,
		TakeProfitPercent: req.TakeProfitPercent,
		ExitMint:          e.exitMint(req.Risk, req.TokenMintA),
		Interval:          e.interval(req.Risk),
	})
}
