/*
Package limiter provides client-side request throttling keyed by request class.

It utilizes the Token Bucket algorithm (rate.Limiter) so that background traffic
(message polling) and user-initiated actions draw from separate buckets, and one
can never starve the other.
*/
package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Request classes used by the API client.
const (
	KeyPoll   = "poll"
	KeyAction = "action"
)

// KeyedLimiter hands out one token bucket per key.
type KeyedLimiter struct {
	// mu is used to protect concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from request class to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the rate (rate.Limit) of each bucket, the number of events allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size) of each bucket.
	b int
}

// NewKeyedLimiter creates a KeyedLimiter with rate r and burst b per key.
// A non-positive r disables limiting.
func NewKeyedLimiter(r rate.Limit, b int) *KeyedLimiter {
	if r <= 0 {
		r = rate.Inf
	}
	if b < 1 {
		b = 1
	}
	return &KeyedLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}
}

// GetLimiter retrieves the bucket for key, creating it on first use.
// It uses a Double-Checked Locking pattern to ensure concurrent-safe creation of new limiters.
func (l *KeyedLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[key]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[key] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// Wait blocks until the bucket for key grants a token or ctx is done.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.GetLimiter(key).Wait(ctx)
}
