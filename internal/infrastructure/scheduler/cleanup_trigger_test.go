package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingCleaner struct {
	calls     atomic.Int32
	retention atomic.Int64
	err       error
	block     chan struct{}
}

func (c *countingCleaner) Cleanup(ctx context.Context, retention time.Duration) error {
	c.calls.Add(1)
	c.retention.Store(int64(retention))
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.err
}

func newTestTrigger(t *testing.T, cleaner Cleaner) *CleanupTrigger {
	t.Helper()
	cfg := DefaultCleanupTriggerConfig()
	cfg.Retention = 48 * time.Hour
	trigger, err := NewCleanupTrigger(cfg, cleaner, zaptest.NewLogger(t))
	require.NoError(t, err)
	return trigger
}

func TestNewCleanupTrigger_Validation(t *testing.T) {
	tests := map[string]func(*CleanupTriggerConfig){
		"hour out of range": func(c *CleanupTriggerConfig) { c.Hour = 24 },
		"negative minute":   func(c *CleanupTriggerConfig) { c.Minute = -1 },
		"no retention":      func(c *CleanupTriggerConfig) { c.Retention = 0 },
		"no run timeout":    func(c *CleanupTriggerConfig) { c.RunTimeout = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultCleanupTriggerConfig()
			mutate(&cfg)
			_, err := NewCleanupTrigger(cfg, &countingCleaner{}, nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestCleanupTriggerConfig_NextRun(t *testing.T) {
	cfg := DefaultCleanupTriggerConfig()
	loc := time.FixedZone("WAT", 3600)
	at := func(day, hour, minute int) time.Time { return time.Date(2026, 3, day, hour, minute, 0, 0, loc) }

	assert.Equal(t, at(14, 3, 30), cfg.nextRun(at(14, 1, 0)), "later today")
	assert.Equal(t, at(15, 3, 30), cfg.nextRun(at(14, 3, 30)), "slot itself moves to tomorrow")
	assert.Equal(t, at(15, 3, 30), cfg.nextRun(at(14, 22, 0)), "after the slot")
	assert.Equal(t, time.Date(2026, 4, 1, 3, 30, 0, 0, loc), cfg.nextRun(at(31, 4, 0)), "month rollover")
}

func TestCleanupTrigger_RunNow(t *testing.T) {
	cleaner := &countingCleaner{}
	trigger := newTestTrigger(t, cleaner)

	require.NoError(t, trigger.RunNow(context.Background()))
	assert.Equal(t, int32(1), cleaner.calls.Load())
	assert.Equal(t, int64(48*time.Hour), cleaner.retention.Load())
}

func TestCleanupTrigger_RunNowReturnsCleanerError(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("disk full")}
	trigger := newTestTrigger(t, cleaner)

	assert.EqualError(t, trigger.RunNow(context.Background()), "disk full")
	// the guard is released after a failure
	assert.EqualError(t, trigger.RunNow(context.Background()), "disk full")
	assert.Equal(t, int32(2), cleaner.calls.Load())
}

func TestCleanupTrigger_RunNowRejectsOverlap(t *testing.T) {
	cleaner := &countingCleaner{block: make(chan struct{})}
	trigger := newTestTrigger(t, cleaner)

	errCh := make(chan error, 1)
	go func() { errCh <- trigger.RunNow(context.Background()) }()

	require.Eventually(t, func() bool { return cleaner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, trigger.RunNow(context.Background()), ErrCleanupInProgress)

	close(cleaner.block)
	require.NoError(t, <-errCh)
}

func TestCleanupTrigger_FiresAtSlot(t *testing.T) {
	cleaner := &countingCleaner{}
	trigger := newTestTrigger(t, cleaner)

	// the slot is 50ms away on the trigger's clock
	slot := time.Date(2026, 3, 14, 3, 30, 0, 0, time.Local)
	var reads atomic.Int32
	trigger.now = func() time.Time {
		if reads.Add(1) <= 3 {
			return slot.Add(-50 * time.Millisecond)
		}
		return slot
	}

	require.NoError(t, trigger.Start(context.Background()))
	require.Eventually(t, func() bool { return cleaner.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
}

func TestCleanupTrigger_StartStop(t *testing.T) {
	trigger := newTestTrigger(t, &countingCleaner{})
	ctx := context.Background()

	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	require.NoError(t, trigger.Stop(stopCtx))

	// a stopped trigger can be started again
	require.NoError(t, trigger.Start(ctx))
	require.NoError(t, trigger.Stop(stopCtx))
}
