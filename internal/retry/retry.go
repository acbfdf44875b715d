// Package retry provides the bounded retry helper shared by the stages that
// talk to the network.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Policy bounds one retried operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, first try included.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. A non-positive cap leaves the growth
	// unbounded within the attempt budget.
	MaxDelay time.Duration
}

// Do runs op until it succeeds, fails permanently, exhausts the attempt
// budget, or ctx expires, whichever comes first.
//
// transient classifies failures worth retrying; a nil transient retries every
// failure. Each scheduled retry is logged with the attempt number and cause.
// The wait between attempts is exponential with full jitter and is
// interruptible by ctx, so the operation never outlives the host deadline.
func Do(ctx context.Context, l *slog.Logger, p Policy, op func(context.Context) error, transient func(error) bool) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return errors.Join(cerr, err)
		}
		if transient != nil && !transient(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("all %d attempts failed: %w", attempts, err)
		}

		wait := backoff(p, attempt)
		l.Warn("Retrying after failed attempt", "attempt", attempt, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(ctx.Err(), err)
		case <-t.C:
		}
	}
}

// backoff returns the wait before the attempt following failed attempt n.
func backoff(p Policy, n int) time.Duration {
	exp := p.MaxDelay
	if n < 30 {
		exp = p.BaseDelay * (1 << n)
		if p.MaxDelay > 0 {
			exp = min(exp, p.MaxDelay)
		}
	}

	return time.Duration(rand.Int63n(int64(max(exp, 1)))) // #nosec:G404 We don't need cryptographically secure random numbers for jitter.
}
