package strategy

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// SafeRequest trades only SOL or USDC.
type SafeRequest struct {
	TokenMint string
	Amount    uint64 // Smallest units of the input asset
	Risk
	Confirm ConfirmFunc
}

func (r *SafeRequest) validate() error {
	if r.TokenMint == "" {
		return invalid("token_mint", "token mint is required")
	}
	if r.Amount == 0 {
		return invalid("amount", "amount must be positive")
	}
	if !allowListed(r.TokenMint) {
		return invalid("token_mint", MessageSafeUnsupported)
	}
	if r.Confirm == nil {
		return invalid("confirm", "confirm callback is required")
	}
	return r.Risk.validate()
}

// Safe buys SOL or USDC with the other asset and monitors the position.
func (e *Engine) Safe(ctx context.Context, req SafeRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Ready to execute safe trade for %d units of %s with %s. Proceed?",
		req.Amount, req.TokenMint, req.Risk.describe())
	if res, err := e.confirm(ctx, NameSafe, req.Confirm, message); res != nil || err != nil {
		return res, err
	}

	sig, err := e.deps.Swapper.Swap(ctx, counterAsset(req.TokenMint), req.TokenMint, req.Amount)
	if err != nil {
		return nil, e.fail(NameSafe, err)
	}

	res := &Result{
		Strategy:   NameSafe,
		Outcome:    OutcomeExecuted,
		Message:    fmt.Sprintf("Safe trade completed. Tx signature: %s", sig),
		Signatures: []string{sig},
		Token:      &types.TokenInfo{Mint: req.TokenMint},
	}

	return e.startPosition(ctx, res, monitor.Config{
		TokenMint:         req.TokenMint,
		Direction:         types.DirectionLong,
		Amount:            req.Amount,
		StopLossPercent:   req.StopLossPercent,
		TakeProfitPercent: req.TakeProfitPercent,
		ExitMint:          e.exitMint(req.Risk, req.TokenMint),
		Interval:          e.interval(req.Risk),
	})
}
