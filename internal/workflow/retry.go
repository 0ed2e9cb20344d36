package workflow

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quizme/quizme-bot/internal/service"
)

// RetryPolicy is the single retry/backoff policy the orchestrator applies
// around every step that calls the language model service. Only service
// failures are retried; input and validation failures are final on the
// first attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      float64
}

// DefaultRetryPolicy matches the documented 3-attempt exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Jitter:      0.3,
	}
}

// Do runs op, retrying transient service failures with exponential backoff
// until the attempt limit or the context is exhausted.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		bo.InitialInterval = p.BaseDelay
	}
	bo.RandomizationFactor = p.Jitter

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if service.KindOf(err) != service.ErrorKindService {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}
