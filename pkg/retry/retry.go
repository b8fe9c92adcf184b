// Package retry re-runs operations that fail with transient errors.
//
// Only errors marked with [Transient] are retried; everything else is
// returned on the first failure:
//
//	msgs, err := retry.Do(ctx, retry.Policy{Attempts: 3, Delay: time.Second},
//	    func(ctx context.Context) ([]Message, error) {
//	        res, err := search(ctx)
//	        if err != nil {
//	            return nil, retry.Transient(err)
//	        }
//	        return res, nil
//	    })
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy controls how often and how patiently an operation is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	// Values below 1 mean a single call.
	Attempts int
	// Delay is the pause before the second attempt. It doubles after every
	// failed attempt, up to MaxDelay when that is set.
	Delay    time.Duration
	MaxDelay time.Duration
}

// Default retries twice, starting with a one second pause.
var Default = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 10 * time.Second}

// transientError marks an error as worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or any error it wraps, was marked with
// [Transient].
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Do calls fn until it succeeds, fails with a non-transient error, or the
// policy runs out of attempts. It returns the last error, or ctx.Err() when
// ctx is done while waiting.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	delay := p.Delay

	var zero T
	var lastErr error
	for i := range attempts {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsTransient(err) || i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return zero, lastErr
}
