// Package monitor watches open positions and closes them when a stop-loss or
// take-profit threshold is crossed.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/metrics"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// DefaultInterval is the poll interval used when a position does not set one.
const DefaultInterval = 10 * time.Second

// ErrRegistryClosed is returned by Start after the registry's root context ends.
var ErrRegistryClosed = errors.New("monitor registry closed")

// PriceFeed returns the current price of a token.
type PriceFeed interface {
	TokenPrice(ctx context.Context, tokenMint string) (float64, error)
}

// Swapper issues the exit swap.
type Swapper interface {
	Swap(ctx context.Context, inputMint, outputMint string, amount uint64) (string, error)
}

// ExitReason names the threshold that closed a position.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// Config describes a position to watch.
type Config struct {
	TokenMint         string
	EntryPrice        float64
	Direction         types.Direction
	Amount            uint64
	StopLossPercent   float64
	TakeProfitPercent float64
	ExitMint          string
	Interval          time.Duration

	// WatchOnly positions report every price update and never exit on a
	// threshold. The thresholds and ExitMint are ignored.
	WatchOnly bool
}

// Update is delivered to update callbacks after each valid poll of a position
// that stays open.
type Update struct {
	PositionID    string    `json:"position_id"`
	TokenMint     string    `json:"token_mint"`
	Price         float64   `json:"price"`
	PercentChange float64   `json:"percent_change"`
	Time          time.Time `json:"time"`
}

// ExitEvent is delivered to exit callbacks after a position closes on a threshold.
type ExitEvent struct {
	PositionID    string     `json:"position_id"`
	TokenMint     string     `json:"token_mint"`
	ExitMint      string     `json:"exit_mint"`
	Reason        ExitReason `json:"reason"`
	EntryPrice    float64    `json:"entry_price"`
	ExitPrice     float64    `json:"exit_price"`
	PercentChange float64    `json:"percent_change"`
	Signature     string     `json:"signature,omitempty"`
	Err           error      `json:"-"` // Exit swap failure; the position is closed either way
	Time          time.Time  `json:"time"`
}

// Position is a running monitor.
type Position struct {
	ID        string
	Config    Config
	StartedAt time.Time

	active atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// Active reports whether the position is still open.
func (p *Position) Active() bool {
	return p.active.Load()
}

// Done is closed when the monitor loop has terminated.
func (p *Position) Done() <-chan struct{} {
	return p.done
}

// PercentChange returns the move from entry to current in percent, with the
// sign inverted for short positions.
func PercentChange(entry, current float64, direction types.Direction) float64 {
	change := (current - entry) / entry * 100
	if direction == types.DirectionShort {
		change = -change
	}
	return change
}

// Evaluate reports which threshold, if any, change crosses. A zero stop-loss
// exits on any loss and a zero take-profit on any gain.
func Evaluate(change, stopLossPercent, takeProfitPercent float64) (ExitReason, bool) {
	if change <= -math.Abs(stopLossPercent) {
		return ExitStopLoss, true
	}
	if change >= math.Abs(takeProfitPercent) {
		return ExitTakeProfit, true
	}
	return "", false
}

// Registry owns every running position monitor.
type Registry struct {
	ctx     context.Context
	prices  PriceFeed
	swapper Swapper
	metrics *metrics.Metrics
	log     *logrus.Entry

	mu        sync.Mutex
	positions map[string]*Position
	onExit    []func(ExitEvent)
	onUpdate  []func(Update)
	wg        sync.WaitGroup
}

// RegistryConfig contains optional registry dependencies.
type RegistryConfig struct {
	Metrics *metrics.Metrics
	Logger  logrus.FieldLogger
}

// NewRegistry creates a registry whose monitors all end when ctx ends.
func NewRegistry(ctx context.Context, prices PriceFeed, swapper Swapper, config *RegistryConfig) *Registry {
	if config == nil {
		config = &RegistryConfig{}
	}
	return &Registry{
		ctx:       ctx,
		prices:    prices,
		swapper:   swapper,
		metrics:   config.Metrics,
		log:       logging.Component(config.Logger, "monitor"),
		positions: make(map[string]*Position),
	}
}

// OnExit registers a callback fired after each threshold exit.
func (r *Registry) OnExit(fn func(ExitEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExit = append(r.onExit, fn)
}

// OnUpdate registers a callback fired after each poll that leaves a position
// open.
func (r *Registry) OnUpdate(fn func(Update)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = append(r.onUpdate, fn)
}

// Start validates cfg and spawns its monitor loop.
func (r *Registry) Start(cfg Config) (*Position, error) {
	if cfg.TokenMint == "" {
		return nil, fmt.Errorf("token mint is required")
	}
	if !(cfg.EntryPrice > 0) || math.IsInf(cfg.EntryPrice, 0) {
		return nil, fmt.Errorf("entry price must be positive, got %v", cfg.EntryPrice)
	}
	if !cfg.WatchOnly && cfg.ExitMint == "" {
		return nil, fmt.Errorf("exit mint is required unless the position is watch-only")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Direction == "" {
		cfg.Direction = types.DirectionLong
	}
	if err := r.ctx.Err(); err != nil {
		return nil, ErrRegistryClosed
	}

	ctx, cancel := context.WithCancel(r.ctx)
	p := &Position{
		ID:        uuid.NewString(),
		Config:    cfg,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	p.active.Store(true)

	r.mu.Lock()
	r.positions[p.ID] = p
	r.mu.Unlock()

	r.metrics.MonitorStarted()
	r.wg.Add(1)
	go r.run(ctx, p)

	r.log.WithFields(logrus.Fields{
		"position_id": p.ID,
		"token_mint":  cfg.TokenMint,
		"entry_price": cfg.EntryPrice,
		"direction":   cfg.Direction,
		"stop_loss":   cfg.StopLossPercent,
		"take_profit": cfg.TakeProfitPercent,
		"watch_only":  cfg.WatchOnly,
		"interval":    cfg.Interval.String(),
	}).Info("Started position monitor")

	return p, nil
}

// Stop halts a monitor without issuing an exit swap. It returns false when id
// is unknown.
func (r *Registry) Stop(id string) bool {
	r.mu.Lock()
	p, ok := r.positions[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.cancel()
	<-p.done
	return true
}

// StopAll halts every monitor.
func (r *Registry) StopAll() {
	for _, p := range r.List() {
		r.Stop(p.ID)
	}
}

// Get returns a running position.
func (r *Registry) Get(id string) (*Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.positions[id]
	return p, ok
}

// List returns the running positions ordered by start time.
func (r *Registry) List() []*Position {
	r.mu.Lock()
	out := make([]*Position, 0, len(r.positions))
	for _, p := range r.positions {
		out = append(out, p)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Len returns the number of running positions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.positions)
}

// Wait blocks until every monitor has terminated.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) run(ctx context.Context, p *Position) {
	defer func() {
		p.active.Store(false)
		p.cancel()

		r.mu.Lock()
		delete(r.positions, p.ID)
		r.mu.Unlock()

		r.metrics.MonitorStopped()
		close(p.done)
		r.wg.Done()
	}()

	timer := time.NewTimer(p.Config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.WithField("position_id", p.ID).Info("Position monitor stopped")
			return
		case <-timer.C:
		}

		if r.poll(ctx, p) {
			return
		}
		timer.Reset(p.Config.Interval)
	}
}

// poll fetches one price and reports whether the position has closed.
func (r *Registry) poll(ctx context.Context, p *Position) bool {
	price, err := r.prices.TokenPrice(ctx, p.Config.TokenMint)
	if err != nil || !(price > 0) || math.IsInf(price, 0) {
		r.metrics.MonitorPolled(true)
		r.log.WithError(err).WithFields(logrus.Fields{
			"position_id": p.ID,
			"price":       price,
		}).Debug("Skipping monitor cycle")
		return false
	}
	r.metrics.MonitorPolled(false)

	return r.observe(ctx, p, price)
}

// observe applies one valid price to the position.
func (r *Registry) observe(ctx context.Context, p *Position, price float64) bool {
	cfg := p.Config
	change := PercentChange(cfg.EntryPrice, price, cfg.Direction)

	log := r.log.WithFields(logrus.Fields{
		"position_id":    p.ID,
		"token_mint":     cfg.TokenMint,
		"price":          price,
		"percent_change": change,
	})

	if cfg.WatchOnly {
		log.Info("Position update")
		r.notifyUpdate(p, price, change)
		return false
	}

	reason, hit := Evaluate(change, cfg.StopLossPercent, cfg.TakeProfitPercent)
	if !hit {
		log.Debug("Position within thresholds")
		r.notifyUpdate(p, price, change)
		return false
	}

	if !p.active.CompareAndSwap(true, false) {
		return true
	}

	// The exit must complete even if Stop races it
	exitCtx := context.WithoutCancel(ctx)
	sig, err := r.swapper.Swap(exitCtx, cfg.TokenMint, cfg.ExitMint, cfg.Amount)

	log = log.WithFields(logrus.Fields{
		"reason":    reason,
		"exit_mint": cfg.ExitMint,
	})
	if err != nil {
		log.WithError(err).Error("Exit swap failed")
	} else {
		log.WithField("signature", sig).Info("Position closed")
	}
	r.metrics.MonitorExited(string(reason))

	event := ExitEvent{
		PositionID:    p.ID,
		TokenMint:     cfg.TokenMint,
		ExitMint:      cfg.ExitMint,
		Reason:        reason,
		EntryPrice:    cfg.EntryPrice,
		ExitPrice:     price,
		PercentChange: change,
		Signature:     sig,
		Err:           err,
		Time:          time.Now(),
	}

	r.mu.Lock()
	callbacks := append([]func(ExitEvent){}, r.onExit...)
	r.mu.Unlock()
	for _, fn := range callbacks {
		fn(event)
	}

	return true
}

func (r *Registry) notifyUpdate(p *Position, price, change float64) {
	r.mu.Lock()
	callbacks := append([]func(Update){}, r.onUpdate...)
	r.mu.Unlock()
	if len(callbacks) == 0 {
		return
	}

	update := Update{
		PositionID:    p.ID,
		TokenMint:     p.Config.TokenMint,
		Price:         price,
		PercentChange: change,
		Time:          time.Now(),
	}
	for _, fn := range callbacks {
		fn(update)
	}
}
