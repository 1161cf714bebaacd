package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeSleep records requested delays instead of sleeping.
func fakeSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_FirstSuccessReturnsImmediately(t *testing.T) {
	var delays []time.Duration
	sleepFn = fakeSleep(&delays)
	defer func() { sleepFn = sleepCtx }()

	calls := 0
	v, err := Do(context.Background(), DefaultPolicy(), zerolog.Nop(), "noop",
		func(context.Context) (int, error) {
			calls++
			return 17, nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 17, v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_BackoffSchedule(t *testing.T) {
	var delays []time.Duration
	sleepFn = fakeSleep(&delays)
	defer func() { sleepFn = sleepCtx }()

	boom := errors.New("boom")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5, Initial: time.Second},
		zerolog.Nop(), "always-fails",
		func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, boom
		})

	// Exactly 5 attempts, never a 6th, last error surfaced.
	assert.Equal(t, 5, calls)
	assert.ErrorIs(t, err, boom)

	// Delays after failures 1..4: 2s, 4s, 8s, 16s. No sleep after the last.
	assert.Equal(t, []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, delays)
}

func TestDo_RecoversMidway(t *testing.T) {
	var delays []time.Duration
	sleepFn = fakeSleep(&delays)
	defer func() { sleepFn = sleepCtx }()

	calls := 0
	v, err := Do(context.Background(), DefaultPolicy(), zerolog.Nop(), "flaky",
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})

	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestDo_ContextCancelAbortsBackoff(t *testing.T) {
	sleepFn = sleepCtx
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3, Initial: time.Hour}, zerolog.Nop(), "cancelled",
		func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, errors.New("fail")
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
