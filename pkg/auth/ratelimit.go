package auth

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a caller may start another request.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// InProcessLimiter keeps one token bucket per subject in memory.
type InProcessLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewInProcessLimiter allows perMinute requests per subject, with bursts
// of up to perMinute. A non-positive perMinute disables limiting.
func NewInProcessLimiter(perMinute int) *InProcessLimiter {
	l := &InProcessLimiter{
		limit:    rate.Inf,
		limiters: make(map[string]*rate.Limiter),
	}
	if perMinute > 0 {
		l.limit = rate.Limit(float64(perMinute) / 60)
		l.burst = perMinute
	}
	return l
}

// Allow consumes one token for the identity's subject.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	if l.limit == rate.Inf {
		return nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[identity.Subject]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[identity.Subject] = lim
	}
	l.mu.Unlock()

	if !lim.Allow() {
		return ErrTooManyRequests
	}
	return nil
}
