// Package scheduler runs the periodic entitlement expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"taskboard/internal/observability"
	"taskboard/internal/repository"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a robfig/cron instance. The sweep only revokes: it clears
// is_premium for grants whose expiry has passed and never grants anything.
type Scheduler struct {
	cron     *cron.Cron
	users    repository.UserRepository
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
	schedule string

	stopOnce sync.Once
}

type Config struct {
	// Schedule is a cron spec or descriptor such as "@hourly". Empty disables
	// the sweep.
	Schedule string
	Users    repository.UserRepository
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

func New(cfg Config) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		users:    cfg.Users,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
		schedule: cfg.Schedule,
	}
	if s.logger == nil {
		s.logger = observability.DiscardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start registers the sweep and starts the cron loop. It stops when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("expiry sweep disabled by config")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.SweepExpired(ctx); err != nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register expiry sweep %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "expiry_sweep", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running sweep to finish. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	})
}

// SweepExpired downgrades users whose subscription has run out.
func (s *Scheduler) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.users.ExpireEntitlements(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if s.metrics != nil {
			s.metrics.EntitlementExpiries.Add(float64(n))
		}
		s.logger.Info("expired entitlements revoked", "count", n)
	}
	return n, nil
}
