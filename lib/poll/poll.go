// Package poll provides the single bounded polling primitive used by
// the scraping pipeline. Every "wait N times for a second" loop in the
// challenge handler, navigation flow and extractor goes through Until
// so that each wait carries an explicit interval and budget.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExceeded is returned when the condition did not hold before
// the budget elapsed.
var ErrBudgetExceeded = errors.New("poll: budget exceeded")

// CheckFunc reports whether the awaited condition holds. A non-nil
// error aborts the poll immediately.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Until polls check every interval until it reports done, the budget
// elapses, or ctx is cancelled. The first check runs immediately.
func Until(ctx context.Context, interval, budget time.Duration, check CheckFunc) error {
	deadline := time.Now().Add(budget)

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrBudgetExceeded
		}

		wait := interval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
