package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	// OnRetry, when set, is called before each wait with the attempt that just ran.
	OnRetry func(attempt int, delay time.Duration)
}

// DefaultPolicy is three attempts starting at 100ms and doubling.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, Multiplier: 2}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	return p
}

var errAgain = errors.New("retry: result not accepted")

type outcome[T any] struct {
	value T
	err   error
}

// Do runs op until again reports false or the attempts run out.
// Waits start at InitialDelay and grow by Multiplier without jitter.
// The last attempt's value and error are returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), again func(T, error) bool) (T, error) {
	p = p.normalized()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = p.InitialDelay << uint(p.MaxAttempts)

	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(_ error, d time.Duration) {
			p.OnRetry(attempt, d)
		}))
	}

	res, err := backoff.Retry(ctx, func() (outcome[T], error) {
		attempt++
		v, opErr := op(ctx)
		if attempt < p.MaxAttempts && again(v, opErr) {
			if opErr == nil {
				opErr = errAgain
			}
			return outcome[T]{value: v, err: opErr}, opErr
		}
		return outcome[T]{value: v, err: opErr}, nil
	}, opts...)
	if err != nil {
		// The loop only fails here when the context ended between attempts.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res.value, ctxErr
		}
		if errors.Is(err, errAgain) {
			return res.value, nil
		}
		return res.value, err
	}
	return res.value, res.err
}
