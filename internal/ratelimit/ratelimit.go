package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// sweepThreshold is the number of tracked clients above which stale entries
// are pruned.
const sweepThreshold = 1024

// ClientLimiter enforces a minimum delay between gateway calls from the same
// client, so one caller cannot burn through the shared upstream quota.
type ClientLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: client address
	minDelay time.Duration
}

// NewClientLimiter creates a limiter that spaces consecutive calls from one
// client by minDelay. A zero delay never blocks.
func NewClientLimiter(minDelay time.Duration) *ClientLimiter {
	return &ClientLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the client may call again. Returns an error if ctx is
// cancelled while waiting.
func (l *ClientLimiter) Wait(ctx context.Context, client string) error {
	l.mu.Lock()
	now := time.Now()
	last, ok := l.lastCall[client]

	if !ok || now.Sub(last) >= l.minDelay {
		l.lastCall[client] = now
		l.sweep(now)
		l.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent calls
	// from the same client queue up behind each other.
	next := last.Add(l.minDelay)
	l.lastCall[client] = next
	l.mu.Unlock()

	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", client, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Len returns the number of clients currently tracked.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastCall)
}

// sweep drops clients whose last slot is older than minDelay. Caller holds mu.
func (l *ClientLimiter) sweep(now time.Time) {
	if len(l.lastCall) <= sweepThreshold {
		return
	}
	for client, last := range l.lastCall {
		if now.Sub(last) >= l.minDelay {
			delete(l.lastCall, client)
		}
	}
}
