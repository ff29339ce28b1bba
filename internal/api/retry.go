package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/ds124wfegd/eventhive/internal/entity"
)

// RetryPolicy decides whether a failed read is attempted again and how long
// to wait before it. Mutations never go through it.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryPolicy(maxRetries int, baseDelay time.Duration) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16, // Maximum 16x base delay
	}
}

// ShouldRetry reports whether attempt (0 for the first failure) may be
// followed by another one, and the delay before it.
func (r *RetryPolicy) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if r == nil || attempt >= r.maxRetries {
		return false, 0
	}
	if !isRetryableError(err) {
		return false, 0
	}
	return true, r.backoff(attempt)
}

// isRetryableError keeps to failures the server never judged: transport
// errors and 5xx. Validation, auth and any other 4xx are final.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, entity.ErrValidation) || errors.Is(err, entity.ErrUnauthorized) {
		return false
	}

	var remote *entity.RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode >= http.StatusInternalServerError ||
			remote.StatusCode == http.StatusTooManyRequests
	}
	return errors.Is(err, entity.ErrTransport)
}

// backoff is base * 2^attempt with ±25% jitter, capped at maxDelay.
func (r *RetryPolicy) backoff(attempt int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}
	delay := r.baseDelay * time.Duration(1<<min(attempt, 10))

	if quarter := int64(delay / 4); quarter > 0 {
		jitter := time.Duration(rand.Int63n(quarter))
		if rand.Intn(2) == 0 {
			delay += jitter
		} else {
			delay -= jitter
		}
	}

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
