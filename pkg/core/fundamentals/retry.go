package fundamentals

import (
	"context"
	"time"
)

// RetryPolicy retries a fetch with exponential backoff: attempt k sleeps
// BaseDelay * 2^k before trying again. The valuation core never sees
// retries; the policy wraps the Source boundary only.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the production fetch decorator: 5 retries,
// 3s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 3 * time.Second}
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is done.
// The last error is returned unwrapped so sentinel checks still work.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.BaseDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Retrying decorates a Source with a RetryPolicy.
type Retrying struct {
	Source Source
	Policy RetryPolicy
}

func (r *Retrying) Fetch(ctx context.Context, ticker string) (*Bundle, error) {
	var bundle *Bundle
	err := r.Policy.Do(ctx, func() error {
		var ferr error
		bundle, ferr = r.Source.Fetch(ctx, ticker)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}
