// Package autotrade runs recurring buy or sell jobs for a token.
package autotrade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
)

// DefaultInterval is used when neither the job nor the scheduler sets one.
const DefaultInterval = 60 * time.Second

var (
	// ErrAutoTradeDisabled is returned by Start when automated trading is off.
	ErrAutoTradeDisabled = errors.New("automated trading is disabled")

	// ErrSchedulerClosed is returned by Start after Close.
	ErrSchedulerClosed = errors.New("auto trade scheduler closed")
)

// Action is the side a job trades.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Trader executes one buy or sell of a token against the native asset.
type Trader interface {
	Buy(ctx context.Context, tokenMint string, amount uint64) (string, error)
	Sell(ctx context.Context, tokenMint string, amount uint64) (string, error)
}

// JobSpec describes a recurring trade.
type JobSpec struct {
	TokenMint string
	Action    Action
	Amount    uint64
	Interval  time.Duration // Zero uses the scheduler default
}

// Job is a scheduled recurring trade.
type Job struct {
	ID        string
	Spec      JobSpec
	StartedAt time.Time

	entryID  cron.EntryID
	runs     atomic.Int64
	failures atomic.Int64
	running  atomic.Bool
}

// Runs returns the number of completed executions.
func (j *Job) Runs() int64 { return j.runs.Load() }

// Failures returns the number of failed executions.
func (j *Job) Failures() int64 { return j.failures.Load() }

// Config contains scheduler settings.
type Config struct {
	Enabled  bool
	Interval time.Duration
	Logger   logrus.FieldLogger
}

// Scheduler owns the recurring trade jobs.
type Scheduler struct {
	ctx      context.Context
	trader   Trader
	enabled  bool
	interval time.Duration
	cron     *cron.Cron
	log      *logrus.Entry

	mu     sync.Mutex
	jobs   map[string]*Job
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler creates and starts a scheduler. Jobs run with ctx.
func NewScheduler(ctx context.Context, trader Trader, config *Config) *Scheduler {
	if config == nil {
		config = &Config{}
	}
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := &Scheduler{
		ctx:      ctx,
		trader:   trader,
		enabled:  config.Enabled,
		interval: interval,
		cron:     cron.New(),
		log:      logging.Component(config.Logger, "autotrade"),
		jobs:     make(map[string]*Job),
	}
	s.cron.Start()
	return s
}

// Start validates spec, runs it once immediately and then every interval.
func (s *Scheduler) Start(spec JobSpec) (*Job, error) {
	if !s.enabled {
		return nil, ErrAutoTradeDisabled
	}
	if spec.TokenMint == "" {
		return nil, fmt.Errorf("token mint is required")
	}
	if spec.Action != ActionBuy && spec.Action != ActionSell {
		return nil, fmt.Errorf("action must be %q or %q, got %q", ActionBuy, ActionSell, spec.Action)
	}
	if spec.Amount == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if spec.Interval <= 0 {
		spec.Interval = s.interval
	}

	job := &Job{
		ID:        uuid.NewString(),
		Spec:      spec,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSchedulerClosed
	}

	job.entryID = s.cron.Schedule(cron.Every(spec.Interval), cron.FuncJob(func() { s.run(job) }))
	s.jobs[job.ID] = job

	s.log.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"token_mint": spec.TokenMint,
		"action":     spec.Action,
		"amount":     spec.Amount,
		"interval":   spec.Interval.String(),
	}).Info("Started auto trade job")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job)
	}()

	return job, nil
}

// run executes one trade. Overlapping runs of the same job are skipped and
// failures are logged, never fatal.
func (s *Scheduler) run(job *Job) {
	if s.ctx.Err() != nil || !job.running.CompareAndSwap(false, true) {
		return
	}
	defer job.running.Store(false)

	log := s.log.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"token_mint": job.Spec.TokenMint,
		"action":     job.Spec.Action,
	})

	var (
		sig string
		err error
	)
	switch job.Spec.Action {
	case ActionBuy:
		sig, err = s.trader.Buy(s.ctx, job.Spec.TokenMint, job.Spec.Amount)
	case ActionSell:
		sig, err = s.trader.Sell(s.ctx, job.Spec.TokenMint, job.Spec.Amount)
	}

	job.runs.Add(1)
	if err != nil {
		job.failures.Add(1)
		log.WithError(err).Warn("Auto trade failed")
		return
	}
	log.WithField("signature", sig).Info("Auto trade executed")
}

// Stop removes a job. It returns false when id is unknown.
func (s *Scheduler) Stop(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	s.cron.Remove(job.entryID)
	delete(s.jobs, id)

	s.log.WithField("job_id", id).Info("Stopped auto trade job")
	return true
}

// StopAll removes every job.
func (s *Scheduler) StopAll() {
	for _, job := range s.List() {
		s.Stop(job.ID)
	}
}

// List returns the scheduled jobs ordered by start time.
func (s *Scheduler) List() []*Job {
	s.mu.Lock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Close stops every job and waits for in-flight trades to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.StopAll()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("Auto trade scheduler stopped")
}
