// Package scheduler runs the periodic maintenance jobs of the marketplace.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// OrderJobs is the order maintenance work the scheduler triggers.
type OrderJobs interface {
	// ExpirePreorders cancels pending pre-orders whose event is over.
	ExpirePreorders(ctx context.Context, grace time.Duration, batchSize int) (int, error)
	// RetryPendingRefunds refunds canceled orders whose refund failed.
	RetryPendingRefunds(ctx context.Context, batchSize int) (int, error)
}

// Config holds the schedules of the order jobs.
type Config struct {
	// Spec is a cron expression with optional seconds, or a descriptor such
	// as "@every 5m".
	Spec      string
	Grace     time.Duration
	BatchSize int
	// RefundRetrySpec schedules the refund retry job. Empty disables it.
	RefundRetrySpec string
	// Timeout bounds a single run.
	Timeout time.Duration
}

// Scheduler triggers jobs on their cron schedule. A run that is still in
// progress when the next one is due is skipped.
type Scheduler struct {
	cron    *cron.Cron
	jobs    OrderJobs
	cfg     Config
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler with the order jobs registered.
func New(jobs OrderJobs, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	cl := cronLogger{logger: logger}
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:    jobs,
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(cfg.Spec, s.RunPreorderExpiry); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule preorder expiry %q: %w", cfg.Spec, err)
	}
	if cfg.RefundRetrySpec != "" {
		if _, err := s.cron.AddFunc(cfg.RefundRetrySpec, s.RunRefundRetry); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule refund retry %q: %w", cfg.RefundRetrySpec, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started",
		slog.String("preorder_expiry", s.cfg.Spec),
		slog.String("refund_retry", s.cfg.RefundRetrySpec),
	)
	s.cron.Start()
}

// Stop prevents new runs, cancels running ones and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// RunPreorderExpiry performs one pre-order expiry run.
func (s *Scheduler) RunPreorderExpiry() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.jobs.ExpirePreorders(ctx, s.cfg.Grace, s.cfg.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "preorder expiry failed", slog.String("error", err.Error()))
		return
	}

	s.logger.DebugContext(ctx, "preorder expiry finished",
		slog.Int("canceled", n),
		slog.Duration("took", time.Since(start)),
	)
}

// RunRefundRetry performs one pending refund run.
func (s *Scheduler) RunRefundRetry() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.jobs.RetryPendingRefunds(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "refund retry failed", slog.String("error", err.Error()))
		return
	}

	s.logger.DebugContext(ctx, "refund retry finished",
		slog.Int("refunded", n),
		slog.Duration("took", time.Since(start)),
	)
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
