package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("30 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("not a schedule"))
	assert.Error(t, ValidateCronSchedule("0 0 0 * * *"), "seconds field is not supported")
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Daily at 03:30", CronDescription("30 3 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * 1", CronDescription("5 4 * * 1"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next, err := NextRunTime("30 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 30, 0, 0, time.UTC), next)

	_, err = NextRunTime("bogus", from)
	assert.Error(t, err)
}

func TestCoverSweepScheduler_StartStop(t *testing.T) {
	s := NewCoverSweepScheduler("30 3 * * *", func(context.Context) error { return nil })

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.NotNil(t, s.NextRun())

	// Starting twice is a no-op.
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	// Stopping twice is safe.
	s.Stop()
}

func TestCoverSweepScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewCoverSweepScheduler("0 * * * *", func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestCoverSweepScheduler_InvalidSchedule(t *testing.T) {
	s := NewCoverSweepScheduler("every day", func(context.Context) error { return nil })
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestCoverSweepScheduler_RequiresSweep(t *testing.T) {
	s := NewCoverSweepScheduler("0 * * * *", nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestCoverSweepScheduler_RunNow(t *testing.T) {
	var calls atomic.Int32
	s := NewCoverSweepScheduler("0 * * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.RunNow(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	failing := NewCoverSweepScheduler("0 * * * *", func(context.Context) error {
		return errors.New("storage offline")
	})
	assert.EqualError(t, failing.RunNow(context.Background()), "storage offline")
}

func TestCoverSweepScheduler_RunLogsFailure(t *testing.T) {
	var calls atomic.Int32
	s := NewCoverSweepScheduler("0 * * * *", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})
	s.jobCtx = context.Background()

	s.run()
	assert.Equal(t, int32(1), calls.Load())
}
