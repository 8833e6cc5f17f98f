package strategy

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// PredictiveRequest trades in the direction of the prediction evaluator's signal.
type PredictiveRequest struct {
	TokenMint string
	Symbol    string
	Amount    uint64
	Risk
	Confirm   ConfirmFunc
	AutoTrade bool // Skip the confirmation gate
}

func (r *PredictiveRequest) validate() error {
	if r.TokenMint == "" {
		return invalid("token_mint", "token mint is required")
	}
	if r.Symbol == "" {
		return invalid("symbol", "symbol is required")
	}
	if r.Amount == 0 {
		return invalid("amount", "amount must be positive")
	}
	if r.Confirm == nil && !r.AutoTrade {
		return invalid("confirm", "confirm callback is required unless auto trade is set")
	}
	return r.Risk.validate()
}

// Predictive buys on a LONG signal or sells on a SHORT signal and monitors the
// position with the direction's sign convention. HOLD returns without trading.
func (e *Engine) Predictive(ctx context.Context, req PredictiveRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	prediction, err := e.deps.Predictor.Predict(ctx, req.TokenMint, req.Symbol)
	if err != nil {
		return nil, e.fail(NamePredictive, fmt.Errorf("prediction: %w", err))
	}

	if prediction.Signal == types.SignalHold {
		return e.finish(&Result{
			Strategy:   NamePredictive,
			Outcome:    OutcomeSkipped,
			Message:    fmt.Sprintf("Prediction is HOLD (confidence %.2f); no trade.", prediction.Confidence),
			Prediction: prediction,
		}), nil
	}

	counter := counterAsset(req.TokenMint)
	direction := types.DirectionLong
	in, out := counter, req.TokenMint
	verb := "buy"
	if prediction.Signal == types.SignalShort {
		direction = types.DirectionShort
		in, out = req.TokenMint, counter
		verb = "sell"
	}

	if !req.AutoTrade {
		message := fmt.Sprintf("Prediction for %s (%s) is %s with confidence %.2f. Ready to %s %d units with %s. Proceed?",
			req.Symbol, req.TokenMint, prediction.Signal, prediction.Confidence, verb, req.Amount, req.Risk.describe())
		if res, err := e.confirm(ctx, NamePredictive, req.Confirm, message); res != nil || err != nil {
			if res != nil {
				res.Prediction = prediction
			}
			return res, err
		}
	}

	sig, err := e.deps.Swapper.Swap(ctx, in, out, req.Amount)
	if err != nil {
		return nil, e.fail(NamePredictive, err)
	}

	res := &Result{
		Strategy:   NamePredictive,
		Outcome:    OutcomeExecuted,
		Message:    fmt.Sprintf("Predictive %s executed on %s signal. Tx signature: %s", verb, prediction.Signal, sig),
		Signatures: []string{sig},
		Token:      &types.TokenInfo{Mint: req.TokenMint, Symbol: req.Symbol},
		Prediction: prediction,
	}

	return e.startPosition(ctx, res, monitor.Config{
		TokenMint:         req.TokenMint,
		Direction:         direction,
		Amount:            req.Amount,
		StopLossPercent:   req.StopLossPercent,
		TakeProfitPercent: req.TakeProfitPercent,
		ExitMint:          e.exitMint(req.Risk, req.TokenMint),
		Interval:          e.interval(req.Risk),
	})
}
