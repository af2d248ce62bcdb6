package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Cleaner removes export documents and job records older than the retention
type Cleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) error
}

// CleanupTriggerConfig holds configuration for the retention trigger
type CleanupTriggerConfig struct {
	// Hour and Minute of the daily run, in server local time
	Hour   int
	Minute int

	Retention  time.Duration
	RunTimeout time.Duration // bounds one sweep
}

// DefaultCleanupTriggerConfig runs at 03:30 and keeps thirty days
func DefaultCleanupTriggerConfig() CleanupTriggerConfig {
	return CleanupTriggerConfig{
		Hour:       3,
		Minute:     30,
		Retention:  30 * 24 * time.Hour,
		RunTimeout: 10 * time.Minute,
	}
}

func (c CleanupTriggerConfig) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: run time %02d:%02d", ErrInvalidConfig, c.Hour, c.Minute)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// nextRun is the first daily slot strictly after now. Days are stepped
// with AddDate so DST shifts keep the wall clock time.
func (c CleanupTriggerConfig) nextRun(now time.Time) time.Time {
	slot := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !slot.After(now) {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot
}

// CleanupTrigger sweeps expired export jobs once a day. A failed sweep is
// logged and waits for the next day's slot.
type CleanupTrigger struct {
	config  CleanupTriggerConfig
	cleaner Cleaner
	logger  *zap.Logger
	now     func() time.Time

	sweeping atomic.Bool

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func NewCleanupTrigger(config CleanupTriggerConfig, cleaner Cleaner, logger *zap.Logger) (*CleanupTrigger, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupTrigger{config: config, cleaner: cleaner, logger: logger, now: time.Now}, nil
}

// Start schedules the daily sweep. Starting a started trigger does nothing.
func (c *CleanupTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return nil
	}

	ctx, c.stop = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx, c.done)

	c.logger.Info("cleanup trigger scheduled",
		zap.Time("next_run", c.config.nextRun(c.now())),
		zap.Duration("retention", c.config.Retention))
	return nil
}

// Stop cancels the schedule and waits for a sweep in flight, or for ctx
func (c *CleanupTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	stop()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CleanupTrigger) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(c.config.nextRun(c.now()).Sub(c.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := c.RunNow(ctx); err != nil {
				c.logger.Error("scheduled retention cleanup failed", zap.Error(err))
			}
			timer.Reset(c.config.nextRun(c.now()).Sub(c.now()))
		}
	}
}

// RunNow sweeps immediately. It refuses to overlap a sweep in progress.
func (c *CleanupTrigger) RunNow(ctx context.Context) error {
	if !c.sweeping.CompareAndSwap(false, true) {
		return ErrCleanupInProgress
	}
	defer c.sweeping.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
	defer cancel()

	start := time.Now()
	if err := c.cleaner.Cleanup(ctx, c.config.Retention); err != nil {
		return err
	}
	c.logger.Info("retention cleanup finished", zap.Duration("took", time.Since(start)))
	return nil
}
