// Package pricewatch runs standalone price watches: watch-only monitors that
// keep a rolling price history per token and emit an indicator snapshot with
// a quick RSI signal on every tick. Watches never trade.
package pricewatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// DefaultHistorySize is the number of prices kept per watch.
const DefaultHistorySize = 100

// RSI bounds for the quick signal.
const (
	OversoldRSI   = 30
	OverboughtRSI = 70
)

// Signal is the quick call derived from RSI.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// QuickSignal maps RSI to BUY below 30, SELL above 70 and HOLD otherwise or
// when indicators are unavailable.
func QuickSignal(ind *types.Indicators) Signal {
	switch {
	case ind == nil:
		return SignalHold
	case ind.RSI < OversoldRSI:
		return SignalBuy
	case ind.RSI > OverboughtRSI:
		return SignalSell
	}
	return SignalHold
}

// PriceFeed returns a token's current price.
type PriceFeed interface {
	TokenPrice(ctx context.Context, tokenMint string) (float64, error)
}

// Monitors runs the polling loops behind each watch.
type Monitors interface {
	Start(cfg monitor.Config) (*monitor.Position, error)
	Stop(id string) bool
	OnUpdate(fn func(monitor.Update))
}

// IndicatorCalculator computes indicators over a price series, oldest first.
type IndicatorCalculator interface {
	Compute(prices []float64) (*types.Indicators, error)
}

// Tick is emitted for every observed price.
type Tick struct {
	WatchID    string            `json:"watch_id"`
	TokenMint  string            `json:"token_mint"`
	Price      float64           `json:"price"`
	Indicators *types.Indicators `json:"indicators,omitempty"`
	Signal     Signal            `json:"quick_signal"`
	Samples    int               `json:"samples"`
	Time       time.Time         `json:"time"`
}

// Watch describes a running price watch.
type Watch struct {
	ID        string        `json:"id"`
	TokenMint string        `json:"token_mint"`
	Interval  time.Duration `json:"interval"`
	StartedAt time.Time     `json:"started_at"`
	Samples   int           `json:"samples"`
}

type watch struct {
	info    Watch
	history []float64
}

// Config contains optional service settings.
type Config struct {
	HistorySize int
	Logger      logrus.FieldLogger
}

// Service owns the running price watches.
type Service struct {
	monitors    Monitors
	prices      PriceFeed
	calc        IndicatorCalculator
	historySize int
	log         *logrus.Entry

	mu      sync.Mutex
	watches map[string]*watch
	onTick  []func(Tick)
}

// NewService creates a service and subscribes it to the monitors' updates.
func NewService(monitors Monitors, prices PriceFeed, calc IndicatorCalculator, config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultHistorySize
	}
	s := &Service{
		monitors:    monitors,
		prices:      prices,
		calc:        calc,
		historySize: config.HistorySize,
		log:         logging.Component(config.Logger, "pricewatch"),
		watches:     make(map[string]*watch),
	}
	monitors.OnUpdate(s.handleUpdate)
	return s
}

// OnTick registers a callback fired for every tick.
func (s *Service) OnTick(fn func(Tick)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = append(s.onTick, fn)
}

// Start begins watching tokenMint. The first tick is emitted before Start
// returns.
func (s *Service) Start(ctx context.Context, tokenMint string, interval time.Duration) (*Watch, error) {
	if tokenMint == "" {
		return nil, fmt.Errorf("token mint is required for price monitoring")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	price, err := s.prices.TokenPrice(ctx, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch initial price for %s: %w", tokenMint, err)
	}

	// Hold the lock until the watch is registered so early updates are not dropped
	s.mu.Lock()
	pos, err := s.monitors.Start(monitor.Config{
		TokenMint:  tokenMint,
		EntryPrice: price,
		Interval:   interval,
		WatchOnly:  true,
	})
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to start price monitor: %w", err)
	}
	w := &watch{info: Watch{
		ID:        pos.ID,
		TokenMint: tokenMint,
		Interval:  interval,
		StartedAt: pos.StartedAt,
	}}
	s.watches[w.info.ID] = w
	tick, callbacks := s.record(w, price, time.Now())
	info := w.info
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"watch_id":   info.ID,
		"token_mint": tokenMint,
		"price":      price,
		"interval":   interval.String(),
	}).Info("Price monitor started")

	emit(callbacks, tick)
	return &info, nil
}

// Stop ends a watch. It returns false when id is unknown.
func (s *Service) Stop(id string) bool {
	s.mu.Lock()
	_, ok := s.watches[id]
	delete(s.watches, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.monitors.Stop(id)
	s.log.WithField("watch_id", id).Info("Price monitor stopped")
	return true
}

// StopAll ends every watch.
func (s *Service) StopAll() {
	for _, w := range s.List() {
		s.Stop(w.ID)
	}
}

// List returns the running watches ordered by start time.
func (s *Service) List() []Watch {
	s.mu.Lock()
	out := make([]Watch, 0, len(s.watches))
	for _, w := range s.watches {
		out = append(out, w.info)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (s *Service) handleUpdate(u monitor.Update) {
	s.mu.Lock()
	w, ok := s.watches[u.PositionID]
	if !ok {
		s.mu.Unlock()
		return
	}
	tick, callbacks := s.record(w, u.Price, u.Time)
	s.mu.Unlock()

	emit(callbacks, tick)
}

// record appends price to the watch history and builds its tick. s.mu must
// be held.
func (s *Service) record(w *watch, price float64, at time.Time) (Tick, []func(Tick)) {
	w.history = append(w.history, price)
	if len(w.history) > s.historySize {
		w.history = w.history[len(w.history)-s.historySize:]
	}
	w.info.Samples = len(w.history)

	tick := Tick{
		WatchID:   w.info.ID,
		TokenMint: w.info.TokenMint,
		Price:     price,
		Samples:   len(w.history),
		Time:      at,
	}
	if ind, err := s.calc.Compute(w.history); err == nil {
		tick.Indicators = ind
	}
	tick.Signal = QuickSignal(tick.Indicators)

	return tick, append([]func(Tick){}, s.onTick...)
}

func emit(callbacks []func(Tick), tick Tick) {
	for _, fn := range callbacks {
		fn(tick)
	}
}
