// Package strategy implements the trading strategies: arbitrage, DAO, degen,
// safe and predictive. Each follows the same shape: validate, gather market
// data, confirm, enter, then hand the position to a monitor.
package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/arbitrage"
	"github.com/jonasrmichel/solstrat/pkg/config"
	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/metrics"
	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/pumpfun"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// Swapper executes a confirmed swap.
type Swapper interface {
	Swap(ctx context.Context, inputMint, outputMint string, amount uint64) (string, error)
}

// OpportunityFinder evaluates the cross-source spread for a pair.
type OpportunityFinder interface {
	Evaluate(ctx context.Context, mintA, mintB string, amount uint64) *arbitrage.Evaluation
}

// TokenFeed lists newly launched tokens, newest first.
type TokenFeed interface {
	RealTimeTokens() []types.TokenInfo
}

// DiscoveryTrader buys and sells through the token discovery platform.
type DiscoveryTrader interface {
	Trade(ctx context.Context, mint string, action pumpfun.Action, amount uint64) (string, error)
}

// PriceFeed returns a token's current price.
type PriceFeed interface {
	TokenPrice(ctx context.Context, tokenMint string) (float64, error)
}

// Predictor produces a directional signal for a token.
type Predictor interface {
	Predict(ctx context.Context, tokenMint, symbol string) (*types.PredictionResult, error)
}

// ScamChecker scores a token's rug-pull risk.
type ScamChecker interface {
	Check(ctx context.Context, tokenMint string) (*scamcheck.Report, error)
}

// Monitors starts position monitors.
type Monitors interface {
	Start(cfg monitor.Config) (*monitor.Position, error)
}

// Notifier announces opportunities and entries. Failures are logged only.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error
	NotifyEntry(ctx context.Context, entry *Entry) error
}

// Entry describes an executed entry trade.
type Entry struct {
	Strategy   string
	TokenMint  string
	Amount     uint64
	Signatures []string
	EntryPrice float64
	PositionID string
}

// Settings holds the engine-wide defaults.
type Settings struct {
	AutoTradeEnabled       bool
	DefaultArbitrageAmount uint64
	DAOTokenMint           string
	ExitTo                 string
	MonitorInterval        time.Duration
}

// SettingsFromConfig extracts engine settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		AutoTradeEnabled:       cfg.Trading.AutoTradeEnabled,
		DefaultArbitrageAmount: cfg.Arbitrage.DefaultAmount,
		DAOTokenMint:           cfg.DAO.TokenMint,
		ExitTo:                 cfg.Monitor.ExitTo,
		MonitorInterval:        cfg.Monitor.Interval,
	}
}

// Dependencies wires the engine to its collaborators. Finder, Feed, Trader,
// Predictor and ScamChecker are only needed by the strategies that use them.
type Dependencies struct {
	Swapper   Swapper
	Prices    PriceFeed
	Monitors  Monitors
	Finder    OpportunityFinder
	Feed      TokenFeed
	Trader    DiscoveryTrader
	Predictor   Predictor
	ScamChecker ScamChecker
	Notifier    Notifier
	Metrics     *metrics.Metrics
	Logger      logrus.FieldLogger
}

// Engine runs strategies.
type Engine struct {
	deps     Dependencies
	settings Settings
	log      *logrus.Entry
}

// NewEngine creates a strategy engine.
func NewEngine(deps Dependencies, settings Settings) *Engine {
	if settings.DefaultArbitrageAmount == 0 {
		settings.DefaultArbitrageAmount = 1_000_000
	}
	if settings.DAOTokenMint == "" {
		settings.DAOTokenMint = config.DefaultDAOTokenMint
	}
	if settings.ExitTo == "" {
		settings.ExitTo = "USDC"
	}
	if settings.MonitorInterval <= 0 {
		settings.MonitorInterval = monitor.DefaultInterval
	}
	return &Engine{
		deps:     deps,
		settings: settings,
		log:      logging.Component(deps.Logger, "strategy"),
	}
}

// Settings returns the engine defaults.
func (e *Engine) Settings() Settings {
	return e.settings
}

// confirm runs the confirmation gate. A declined trade returns a cancelled result.
func (e *Engine) confirm(ctx context.Context, name string, fn ConfirmFunc, message string) (*Result, error) {
	ok, err := fn(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s strategy: confirmation: %w", name, err)
	}
	if !ok {
		e.log.WithField("strategy", name).Info("Trade cancelled by user")
		return e.finish(&Result{Strategy: name, Outcome: OutcomeCancelled, Message: MessageCancelled}), nil
	}
	return nil, nil
}

// exitMint resolves the exit asset for a position in tokenMint.
func (e *Engine) exitMint(risk Risk, tokenMint string) string {
	symbol := risk.ExitTo
	if symbol == "" {
		symbol = e.settings.ExitTo
	}
	mint, ok := jupiter.MintForSymbol(symbol)
	if !ok {
		mint = jupiter.USDCMint
	}
	if mint == tokenMint {
		mint = counterAsset(tokenMint)
	}
	return mint
}

func (e *Engine) interval(risk Risk) time.Duration {
	if risk.MonitorInterval > 0 {
		return risk.MonitorInterval
	}
	return e.settings.MonitorInterval
}

// startPosition fetches the entry price and starts a monitor for an executed
// entry. On failure the executed result is still returned alongside an error
// wrapping ErrMonitorNotStarted.
func (e *Engine) startPosition(ctx context.Context, res *Result, cfg monitor.Config) (*Result, error) {
	log := e.log.WithFields(logrus.Fields{
		"strategy":   res.Strategy,
		"token_mint": cfg.TokenMint,
	})

	price, err := e.deps.Prices.TokenPrice(ctx, cfg.TokenMint)
	if err == nil && !(price > 0) {
		err = fmt.Errorf("non-positive price %v", price)
	}
	if err != nil {
		log.WithError(err).Error("Could not fetch entry price; position is unmonitored")
		res.Message += " Position monitor not started: entry price unavailable."
		return e.finish(res), fmt.Errorf("%w: entry price for %s: %w", ErrMonitorNotStarted, cfg.TokenMint, err)
	}
	res.EntryPrice = price
	cfg.EntryPrice = price

	pos, err := e.deps.Monitors.Start(cfg)
	if err != nil {
		log.WithError(err).Error("Could not start position monitor")
		res.Message += " Position monitor not started."
		return e.finish(res), fmt.Errorf("%w: %w", ErrMonitorNotStarted, err)
	}
	res.PositionID = pos.ID

	e.notifyEntry(ctx, res, cfg)
	return e.finish(res), nil
}

func (e *Engine) notifyEntry(ctx context.Context, res *Result, cfg monitor.Config) {
	if e.deps.Notifier == nil {
		return
	}
	err := e.deps.Notifier.NotifyEntry(ctx, &Entry{
		Strategy:   res.Strategy,
		TokenMint:  cfg.TokenMint,
		Amount:     cfg.Amount,
		Signatures: res.Signatures,
		EntryPrice: res.EntryPrice,
		PositionID: res.PositionID,
	})
	if err != nil {
		e.log.WithError(err).Warn("Failed to send entry notification")
	}
}

func (e *Engine) notifyOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) {
	if e.deps.Notifier == nil {
		return
	}
	if err := e.deps.Notifier.NotifyOpportunity(ctx, opp); err != nil {
		e.log.WithError(err).Warn("Failed to send opportunity notification")
	}
}

// finish records the run and returns res.
func (e *Engine) finish(res *Result) *Result {
	e.deps.Metrics.StrategyRun(res.Strategy, string(res.Outcome))
	e.log.WithFields(logrus.Fields{
		"strategy":    res.Strategy,
		"outcome":     res.Outcome,
		"signatures":  len(res.Signatures),
		"position_id": res.PositionID,
	}).Info(res.Message)
	return res
}

// fail records a failed run and wraps err with the strategy name.
func (e *Engine) fail(name string, err error) error {
	e.deps.Metrics.StrategyRun(name, "failed")
	return fmt.Errorf("failed to execute %s strategy: %w", name, err)
}
