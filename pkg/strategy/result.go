package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// Strategy names.
const (
	NameArbitrage  = "arbitrage"
	NameDAO        = "dao"
	NameDegen      = "degen"
	NameSafe       = "safe"
	NamePredictive = "predictive"
)

// Outcome classifies a strategy run that returned without error.
type Outcome string

const (
	OutcomeExecuted  Outcome = "executed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// Messages reported on non-trading outcomes.
const (
	MessageCancelled       = "User cancelled the trade."
	MessageNoTokens        = "No new tokens to ape into at this time."
	MessageAutoTradeOff    = "Automated trading is disabled; opportunity reported only."
	MessageSafeUnsupported = "Safe strategy supports SOL and USDC tokens only."
	MessageScamRisk        = "Token failed the scam check; trade skipped."
)

// ErrMonitorNotStarted is returned together with an executed Result when the
// entry trade succeeded but its position monitor could not be started.
var ErrMonitorNotStarted = errors.New("position monitor not started")

// Result is the outcome of one strategy invocation.
type Result struct {
	Strategy    string                      `json:"strategy"`
	Outcome     Outcome                     `json:"outcome"`
	Message     string                      `json:"message"`
	Signatures  []string                    `json:"signatures,omitempty"`
	PositionID  string                      `json:"position_id,omitempty"`
	EntryPrice  float64                     `json:"entry_price,omitempty"`
	Token       *types.TokenInfo            `json:"token,omitempty"`
	Opportunity *types.ArbitrageOpportunity `json:"opportunity,omitempty"`
	Spread      float64                     `json:"spread,omitempty"`
	Prediction  *types.PredictionResult     `json:"prediction,omitempty"`
	ScamCheck   *scamcheck.Report           `json:"scam_check,omitempty"`
}

// ValidationError reports an invalid request field. It is returned before any
// network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfirmFunc asks a human (or an auto-approver) whether to proceed with the
// described trade.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

// AutoApprove confirms every trade.
func AutoApprove(context.Context, string) (bool, error) { return true, nil }

// Risk holds the exit parameters shared by every strategy request.
type Risk struct {
	StopLossPercent   float64
	TakeProfitPercent float64
	ExitTo            string        // "USDC" or "SOL"; empty uses the engine default
	MonitorInterval   time.Duration // Zero uses the engine default
}

func (r Risk) validate() error {
	if math.IsNaN(r.StopLossPercent) || r.StopLossPercent < 0 || r.StopLossPercent > 100 {
		return invalid("stop_loss_percent", "stop loss percent must be between 0 and 100, got %v", r.StopLossPercent)
	}
	if math.IsNaN(r.TakeProfitPercent) || math.IsInf(r.TakeProfitPercent, 0) || r.TakeProfitPercent < 0 {
		return invalid("take_profit_percent", "take profit percent must be non-negative, got %v", r.TakeProfitPercent)
	}
	if r.MonitorInterval < 0 {
		return invalid("monitor_interval", "monitor interval must not be negative")
	}
	if r.ExitTo != "" {
		if _, ok := jupiter.MintForSymbol(r.ExitTo); !ok {
			return invalid("exit_to", "exit asset must be USDC or SOL, got %q", r.ExitTo)
		}
	}
	return nil
}

func (r Risk) describe() string {
	return fmt.Sprintf("stop loss %v%%, take profit %v%%", r.StopLossPercent, r.TakeProfitPercent)
}

// allowListed reports whether mint is SOL or USDC.
func allowListed(mint string) bool {
	return mint == jupiter.SOLMint || mint == jupiter.USDCMint
}

// counterAsset returns the allow-listed asset that is not mint.
func counterAsset(mint string) string {
	if mint == jupiter.SOLMint {
		return jupiter.USDCMint
	}
	return jupiter.SOLMint
}
