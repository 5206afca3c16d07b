package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/prompt"
)

// Caller is the interface being decorated. It matches client.Caller.
type Caller interface {
	Call(ctx context.Context, req prompt.Request) (string, error)
}

// RetryCaller is a decorator that retries transient gateway failures with
// exponential backoff and jitter before giving up.
type RetryCaller struct {
	inner      Caller
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryCaller wraps a Caller with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryCaller(inner Caller, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryCaller {
	return &RetryCaller{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Call sends req, retrying on transient errors.
func (c *RetryCaller) Call(ctx context.Context, req prompt.Request) (string, error) {
	text, err := c.inner.Call(ctx, req)
	if err == nil {
		return text, nil
	}

	// Partial text means fragments already reached the caller; a retry
	// would replay them.
	if !isRetryable(err) || text != "" {
		return text, err
	}

	lastErr := err
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		delay := c.backoffDelay(attempt, lastErr)

		c.logger.Warn("retrying after transient error",
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"delay", delay,
			"stream", req.Stream,
			"error", model.Detail(lastErr),
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		text, err = c.inner.Call(ctx, req)
		if err == nil {
			return text, nil
		}

		if !isRetryable(err) || text != "" {
			return text, err
		}
		lastErr = err
	}

	return "", lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After from the gateway takes precedence.
func (c *RetryCaller) backoffDelay(attempt int, err error) time.Duration {
	var upErr *model.UpstreamError
	if errors.As(err, &upErr) && upErr.RetryAfter > 0 {
		return upErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch {
	case model.IsKind(err, model.KindTransport):
		return true
	case model.IsKind(err, model.KindUpstreamRejection):
		status := model.Status(err)
		return status == http.StatusTooManyRequests || status >= 500
	default:
		// Bad model output, invalid input and config problems do not heal on retry.
		return false
	}
}
