package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Policy bounds one invocation of Do.
//
// The delay before attempt n+1 is Initial * 2^n with n counted from 1, so
// with MaxAttempts=5 and Initial=1s the sleeps are 2s, 4s, 8s and 16s.
// There is no cap on the delay; with the small attempt counts used by the
// probes the worst sleep stays bounded, so the missing cap is a tuning
// gap rather than a correctness issue.
type Policy struct {
	// MaxAttempts is the total number of times the operation is called.
	MaxAttempts int

	// Initial is the base backoff; it doubles after every failed attempt.
	Initial time.Duration
}

// DefaultPolicy matches the probe defaults: 5 attempts, 1s initial backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Initial:     time.Second,
	}
}

// sleepFn is swapped out in tests to observe the delay schedule without
// real sleeping.
var sleepFn = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds or the policy's attempts are exhausted,
// sleeping with exponential backoff between failures. The first success
// returns immediately; after the final failure the last error is returned
// as-is. Each retry logs one warning through logger.
//
// name identifies the operation in log output only.
func Do[T any](ctx context.Context, p Policy, logger zerolog.Logger, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.MaxAttempts {
			return zero, err
		}

		delay := p.Initial << uint(attempt)
		logger.Warn().
			Str("operation", name).
			Err(err).
			Dur("backoff", delay).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Msg("operation failed, retrying")

		if serr := sleepFn(ctx, delay); serr != nil {
			return zero, serr
		}
	}
}
