package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"go-pos-mart/internal/shared"
)

// RetryPolicy bounds how often a unit of work is re-run after losing a race.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy is used when no policy is configured.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   3,
	InitialDelay: 20 * time.Millisecond,
	MaxDelay:     500 * time.Millisecond,
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialDelay
	eb.MaxInterval = p.MaxDelay
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxRetries)), ctx)
}

// RunAtomic runs fn inside s.Atomic, re-running the whole unit when it fails
// with ErrConcurrencyConflict. Any other error is returned as-is.
func RunAtomic(ctx context.Context, s Store, p RetryPolicy, fn func(tx Store) error) error {
	op := func() error {
		err := s.Atomic(ctx, fn)
		if err == nil || errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		return backoff.Permanent(err)
	}
	err := backoff.Retry(op, p.backOff(ctx))

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}
