// Package retry runs an operation a bounded number of times with linearly
// growing pauses and reports how it ended as a value.
package retry

import (
	"context"
	"errors"
	"time"
)

type Outcome int

const (
	Succeeded Outcome = iota
	Exhausted
	Permanent
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case Permanent:
		return "permanent"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Policy allows Retries additional attempts after the first one; before
// retry n the caller waits n*Backoff.
type Policy struct {
	Retries int
	Backoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Retries: 3, Backoff: time.Second}
}

type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Attempts int
	Err      error
}

func (r Result[T]) OK() bool { return r.Outcome == Succeeded }

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Stop marks err as not worth retrying.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a Stop error, the policy runs out or
// ctx is done. The pause between attempts does not hold anything fn acquired.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) Result[T] {
	var res Result[T]
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		v, err := fn(ctx, attempt)
		if err == nil {
			res.Value, res.Outcome, res.Err = v, Succeeded, nil
			return res
		}
		res.Err = err
		switch {
		case IsPermanent(err):
			res.Outcome = Permanent
			return res
		case ctx.Err() != nil:
			res.Outcome = Canceled
			return res
		case attempt > p.Retries:
			res.Outcome = Exhausted
			return res
		}
		if !sleep(ctx, time.Duration(attempt)*p.Backoff) {
			res.Outcome = Canceled
			return res
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
