// Package retry runs a blocking call under a per-attempt deadline with
// bounded exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a remote call: every attempt gets Timeout, at most
// MaxAttempts are made, and the pause before attempt n+1 is
// BaseDelay*2^(n-1) capped at MaxDelay.
type Policy struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Func is one attempt. ctx carries the attempt deadline.
type Func func(ctx context.Context) error

// Observer is notified after every failed attempt.
type Observer func(attempt int, err error)

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func IsPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (p Policy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// schedule is the pause sequence without jitter, so Budget stays exact.
func (p Policy) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = max(p.BaseDelay, 0)
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Backoff returns the pause taken after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 || attempt < 1 {
		return 0
	}
	b := p.schedule()
	var next time.Duration
	for i := 0; i < attempt; i++ {
		next = b.NextBackOff()
	}
	return next
}

// Budget is the worst-case wall time of Do: every attempt times out and
// every backoff is taken.
func (p Policy) Budget() time.Duration {
	attempts := p.attempts()
	total := time.Duration(attempts) * p.Timeout
	for i := 1; i < attempts; i++ {
		total += p.Backoff(i)
	}
	return total
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts
// run out, or ctx is done. A timed-out attempt counts as failed even if its
// effect landed remotely.
func (p Policy) Do(ctx context.Context, fn Func, observers ...Observer) error {
	var (
		attempt int
		lastErr error
	)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		for _, observe := range observers {
			observe(attempt, err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.schedule(), uint64(p.attempts()-1)), ctx)
	err := backoff.Retry(operation, b)
	if err == nil {
		return nil
	}
	if lastErr == nil || IsPermanent(lastErr) {
		// Permanent answers and a ctx that was done before the first
		// attempt come back as they are.
		return err
	}
	return &ExhaustedError{Attempts: attempt, Err: lastErr}
}

func (p Policy) attempt(ctx context.Context, fn Func) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err == nil && attemptCtx.Err() != nil {
		// Result arrived after the deadline; the call is treated as failed.
		return fmt.Errorf("attempt exceeded %s: %w", p.Timeout, context.DeadlineExceeded)
	}
	return err
}
