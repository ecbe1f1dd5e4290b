package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/sitewatch/internal/model"
)

// KeyedLimiter enforces a minimum delay between calls sharing the same key.
type KeyedLimiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // earliest start of the next call per key
	minDelay time.Duration
}

// NewKeyedLimiter creates a limiter that spaces calls with the same key at
// least minDelay apart.
func NewKeyedLimiter(minDelay time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the caller may proceed for key. Concurrent callers are
// given consecutive slots. Returns an error if ctx is cancelled while waiting.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := time.Now()
	slot := now
	if n, ok := l.next[key]; ok && n.After(now) {
		slot = n
	}
	l.next[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// KeyFunc picks the limiter key for a delivery.
type KeyFunc func(sub model.AlertSubscription) string

// ByEmailDomain keys deliveries by the recipient's mail domain.
func ByEmailDomain(sub model.AlertSubscription) string {
	if i := strings.LastIndexByte(sub.Email, '@'); i >= 0 {
		return strings.ToLower(sub.Email[i+1:])
	}
	return sub.Email
}

// RateLimitedSink is a decorator that waits on a shared limiter before
// delegating to the wrapped sink.
type RateLimitedSink struct {
	inner   model.AlertSink
	limiter *KeyedLimiter
	key     KeyFunc
}

// NewRateLimitedSink wraps an AlertSink with keyed rate limiting. A nil key
// function defaults to ByEmailDomain.
func NewRateLimitedSink(inner model.AlertSink, limiter *KeyedLimiter, key KeyFunc) *RateLimitedSink {
	if key == nil {
		key = ByEmailDomain
	}
	return &RateLimitedSink{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

// Name reports the wrapped sink's name.
func (s *RateLimitedSink) Name() string {
	if n, ok := s.inner.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "ratelimit"
}

// Send waits for the limiter, then delegates. Empty lists skip the wait.
func (s *RateLimitedSink) Send(ctx context.Context, changes []model.ScoredChange, sub model.AlertSubscription) error {
	if len(changes) == 0 {
		return s.inner.Send(ctx, changes, sub)
	}
	if err := s.limiter.Wait(ctx, s.key(sub)); err != nil {
		return err
	}
	return s.inner.Send(ctx, changes, sub)
}
