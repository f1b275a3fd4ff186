package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// Limiter enforces a minimum delay between operations against the same
// upstream. The scan pipeline keys mailbox fetches by account address and
// oracle calls by a shared "oracle" key, so the two upstreams are paced
// independently.
type Limiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: upstream name
	minDelay time.Duration
}

// NewLimiter creates a limiter that enforces minDelay between consecutive
// operations against the same upstream.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last operation against
// the given upstream. Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, upstream string) error {
	l.mu.Lock()
	last, ok := l.lastCall[upstream]
	now := time.Now()

	if !ok {
		// First operation for this upstream — no wait needed.
		l.lastCall[upstream] = now
		l.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= l.minDelay {
		// Enough time has passed — proceed immediately.
		l.lastCall[upstream] = now
		l.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := l.minDelay - elapsed
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", upstream, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	l.mu.Lock()
	l.lastCall[upstream] = time.Now()
	l.mu.Unlock()

	return nil
}

// oracleKey is the shared upstream key for all classification calls.
const oracleKey = "oracle"

// LimitedClassifier is a decorator that paces classification calls before
// delegating to the wrapped Classifier. All accounts share the same limiter
// instance so oracle traffic is globally throttled.
type LimitedClassifier struct {
	inner   model.Classifier
	limiter *Limiter
}

// NewLimitedClassifier wraps a Classifier with oracle-level pacing.
func NewLimitedClassifier(inner model.Classifier, limiter *Limiter) *LimitedClassifier {
	return &LimitedClassifier{
		inner:   inner,
		limiter: limiter,
	}
}

// Classify waits for the rate limiter to allow a call, then delegates to the
// wrapped classifier.
func (c *LimitedClassifier) Classify(ctx context.Context, msg model.RawMessage) (model.Classification, error) {
	if err := c.limiter.Wait(ctx, oracleKey); err != nil {
		return model.Classification{}, err
	}
	return c.inner.Classify(ctx, msg)
}
