// Package poller provides the predicate-based waits used at every page
// transition. Broker UIs are single-page apps whose DOM is not synchronously
// ready after navigation, so every landmark lookup goes through WaitUntil
// instead of fixed sleeps.
package poller

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that a bounded wait elapsed before the predicate held.
var ErrTimeout = errors.New("wait timed out")

// WaitUntil polls pred every interval until it reports done, returns an
// error, or the timeout elapses. A timeout <= 0 means wait without bound,
// used while a human completes authentication out-of-band; only ctx
// cancellation ends such a wait early.
//
// A predicate error aborts the wait immediately. Predicates signal "not yet"
// with (false, nil), never with an error.
func WaitUntil(ctx context.Context, pred func() (bool, error), timeout, interval time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := pred()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return ErrTimeout
		case <-ticker.C:
		}
	}
}

// Settle blocks for a fixed duration. It is the degraded special case of
// WaitUntil for pages that expose no landmark to poll for.
func Settle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
