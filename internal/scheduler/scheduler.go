// Package scheduler runs the planetary hour alarm: a periodic check that
// announces each change of ruling planet at the stored location.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/PartyShepherd/alchemelody/internal/almanac"
	"github.com/PartyShepherd/alchemelody/internal/metrics"
	"github.com/PartyShepherd/alchemelody/internal/planetary"
	"github.com/PartyShepherd/alchemelody/internal/store"
)

// Scheduler periodically resolves the current planetary hour.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *almanac.Service
	notifier  Notifier
	interval  time.Duration
	mode      planetary.RulerMode
	log       *zap.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time

	mu    sync.Mutex
	table planetary.HourTable
	last  planetary.Slot
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a new Scheduler.
func New(service *almanac.Service, notifier Notifier, interval time.Duration, mode planetary.RulerMode, opts ...Option) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		notifier:  notifier,
		interval:  interval,
		mode:      mode,
		log:       zap.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	return s
}

// Start schedules the periodic check and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	s.scheduler.SingletonModeAll()

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Tick(ctx); err != nil {
			s.log.Warn("scheduler: hour check failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler: hour alarm started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Tick resolves the current hour once and announces it if the ruling slot
// changed since the previous tick.
func (s *Scheduler) Tick(ctx context.Context) error {
	loc, err := s.service.Location(ctx)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Debug("scheduler: no location stored; nothing to announce")
		return nil
	}
	if err != nil {
		return err
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Synthetic tables are retried so real data replaces them once a source recovers.
	if s.table.Location != loc || !s.table.Covers(now) || s.table.Day.Synthetic {
		table, err := s.service.TableAt(ctx, loc, now, s.mode)
		if err != nil {
			return err
		}
		s.table = table
	}

	slot := s.table.Current(now)
	if slot.Start.Equal(s.last.Start) && slot.Planet == s.last.Planet {
		return nil
	}

	a := Announcement{
		At:        now.In(s.table.Day.Zone()),
		Location:  loc,
		Slot:      slot,
		Previous:  s.last.Planet,
		Synthetic: s.table.Day.Synthetic,
	}
	if err := s.notifier.Announce(ctx, a); err != nil {
		return err
	}
	s.last = slot
	s.metrics.Announced(string(slot.Planet))
	return nil
}

// Current returns the last announced slot.
func (s *Scheduler) Current() planetary.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
