package strategy

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// DAORequest buys the configured DAO token with SOL.
type DAORequest struct {
	Amount uint64 // Lamports of SOL to spend
	Risk
	Confirm ConfirmFunc
}

func (r *DAORequest) validate() error {
	if r.Amount == 0 {
		return invalid("amount", "amount must be positive")
	}
	if r.Confirm == nil {
		return invalid("confirm", "confirm callback is required")
	}
	return r.Risk.validate()
}

// DAO buys the DAO token and watches the position. DAO positions are always
// watch-only: only the request's MonitorInterval applies to them.
func (e *Engine) DAO(ctx context.Context, req DAORequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	mint := e.settings.DAOTokenMint

	message := fmt.Sprintf("Ready to buy DAO token %s with %d lamports of SOL. Proceed?", mint, req.Amount)
	if res, err := e.confirm(ctx, NameDAO, req.Confirm, message); res != nil || err != nil {
		return res, err
	}

	sig, err := e.deps.Swapper.Swap(ctx, jupiter.SOLMint, mint, req.Amount)
	if err != nil {
		return nil, e.fail(NameDAO, err)
	}

	res := &Result{
		Strategy:   NameDAO,
		Outcome:    OutcomeExecuted,
		Message:    fmt.Sprintf("DAO token purchase executed. Tx signature: %s", sig),
		Signatures: []string{sig},
		Token:      &types.TokenInfo{Mint: mint},
	}

	return e.startPosition(ctx, res, monitor.Config{
		TokenMint: mint,
		Direction: types.DirectionLong,
		Amount:    req.Amount,
		Interval:  e.interval(req.Risk),
		WatchOnly: true,
	})
}
