package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/prompt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCaller calls a function on each invocation, tracking call count.
type mockCaller struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (m *mockCaller) Call(_ context.Context, _ prompt.Request) (string, error) {
	m.calls++
	return m.fn(m.calls)
}

func rejection(status int) error {
	return &model.Error{
		Kind:    model.KindUpstreamRejection,
		Message: "rejected",
		Err:     &model.UpstreamError{StatusCode: status, Message: "rejected"},
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "OK", nil
	}}

	rc := NewRetryCaller(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rc.Call(context.Background(), prompt.VerifyKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "OK" {
		t.Fatalf("unexpected text: %q", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockCaller{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", rejection(503)
		}
		return "OK", nil
	}}

	rc := NewRetryCaller(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rc.Call(context.Background(), prompt.VerifyKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "OK" {
		t.Fatalf("unexpected text: %q", got)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_RetriesTransportErrors(t *testing.T) {
	mock := &mockCaller{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.Error{Kind: model.KindTransport, Message: model.MsgTransport, Err: errors.New("connection refused")}
		}
		return "OK", nil
	}}

	rc := NewRetryCaller(mock, 1, 10*time.Millisecond, discardLogger())
	if _, err := rc.Call(context.Background(), prompt.VerifyKey()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "", rejection(400)
	}}

	rc := NewRetryCaller(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rc.Call(context.Background(), prompt.VerifyKey())
	if model.Status(err) != 400 {
		t.Fatalf("expected status 400, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryBadModelOutput(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "", &model.Error{Kind: model.KindModelOutputFormat, Message: model.MsgModelOutputFormat}
	}}

	rc := NewRetryCaller(mock, 2, 10*time.Millisecond, discardLogger())
	if _, err := rc.Call(context.Background(), prompt.VerifyKey()); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "", rejection(500)
	}}

	rc := NewRetryCaller(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rc.Call(context.Background(), prompt.VerifyKey())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_HonoursRetryAfter(t *testing.T) {
	rc := NewRetryCaller(nil, 1, time.Hour, discardLogger())
	err := &model.Error{
		Kind: model.KindUpstreamRejection,
		Err:  &model.UpstreamError{StatusCode: 429, RetryAfter: 3 * time.Second},
	}
	if got := rc.backoffDelay(1, err); got != 3*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", got)
	}
}

func TestRetry_BackoffJitterBounds(t *testing.T) {
	rc := NewRetryCaller(nil, 3, 100*time.Millisecond, discardLogger())
	for i := 0; i < 50; i++ {
		d := rc.backoffDelay(3, errors.New("x"))
		if d < 280*time.Millisecond || d > 520*time.Millisecond {
			t.Fatalf("delay %v outside 400ms ±30%%", d)
		}
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "", rejection(500)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rc := NewRetryCaller(mock, 2, time.Second, discardLogger())
	_, err := rc.Call(ctx, prompt.VerifyKey())
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestRetry_DoesNotReplayPartialStream(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "half an ans", &model.Error{Kind: model.KindTransport, Message: model.MsgTransport}
	}}

	rc := NewRetryCaller(mock, 3, time.Millisecond, discardLogger())
	got, err := rc.Call(context.Background(), prompt.VerifyKey())
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "half an ans" {
		t.Errorf("partial text = %q", got)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryGatewayConfig(t *testing.T) {
	mock := &mockCaller{fn: func(_ int) (string, error) {
		return "", &model.Error{
			Kind:    model.KindGatewayConfig,
			Message: model.MsgGatewayConfig,
			Err:     &model.UpstreamError{StatusCode: 500, Message: model.MsgGatewayConfig},
		}
	}}

	rc := NewRetryCaller(mock, 3, time.Millisecond, discardLogger())
	_, err := rc.Call(context.Background(), prompt.VerifyKey())
	if !model.IsKind(err, model.KindGatewayConfig) {
		t.Fatalf("err = %v, want gateway config error", err)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}
