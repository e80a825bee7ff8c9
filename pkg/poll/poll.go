// Package poll provides the bounded confirmation-polling loop shared by the
// EVM and Tron adapters. Whether hitting the attempt ceiling is fatal is a
// policy parameter, not per-adapter duplication.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the attempt ceiling is reached under the
// FailOnTimeout policy.
var ErrTimeout = errors.New("poll: attempt ceiling reached")

// TimeoutPolicy selects what happens when the attempt ceiling is reached.
type TimeoutPolicy int

const (
	// FailOnTimeout makes Run return ErrTimeout at the ceiling.
	FailOnTimeout TimeoutPolicy = iota
	// TolerateTimeout makes Run return with TimedOut set and no error. Used
	// by chains whose settlement can lag the poll window.
	TolerateTimeout
)

// Config bounds one polling loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	OnTimeout   TimeoutPolicy
}

// Result carries the final polled value, or TimedOut when the ceiling was
// reached under TolerateTimeout.
type Result[T any] struct {
	Value    T
	TimedOut bool
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a check error as non-retryable; Run stops immediately and
// returns the wrapped error. Plain check errors are treated as "not yet" and
// polling continues.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Run invokes check up to cfg.MaxAttempts times, cfg.Interval apart, until
// isTerminal reports the value is final. Check errors are swallowed and the
// loop continues, unless wrapped with Permanent. Context cancellation always
// aborts with ctx.Err().
func Run[T any](ctx context.Context, cfg Config, check func(context.Context) (T, error), isTerminal func(T) bool) (Result[T], error) {
	var zero Result[T]

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}

		value, err := check(ctx)
		if err != nil {
			var pe *permanentError
			if errors.As(err, &pe) {
				return zero, pe.err
			}
			continue
		}
		if isTerminal(value) {
			return Result[T]{Value: value}, nil
		}
	}

	if cfg.OnTimeout == TolerateTimeout {
		return Result[T]{TimedOut: true}, nil
	}
	return zero, ErrTimeout
}
