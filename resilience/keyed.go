package resilience

import (
	"sync"
	"time"
)

// KeyedLimiter keeps one token bucket per key. Buckets that have refilled
// completely carry no state and are dropped on the next sweep.
type KeyedLimiter struct {
	config RateLimiterConfig

	mu        sync.Mutex
	buckets   map[string]*RateLimiter
	lastSweep time.Time
}

// sweepInterval bounds how often idle buckets are scanned for.
const sweepInterval = time.Minute

// NewKeyedLimiter returns a limiter that hands every key its own bucket.
func NewKeyedLimiter(config RateLimiterConfig) *KeyedLimiter {
	config.applyDefaults()
	return &KeyedLimiter{
		config:    config,
		buckets:   make(map[string]*RateLimiter),
		lastSweep: config.now(),
	}
}

// Allow takes a token from key's bucket. When none is available it returns
// false and how long until one will be.
func (k *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	k.mu.Lock()
	k.sweep()
	b, ok := k.buckets[key]
	if !ok {
		b = NewRateLimiter(k.config)
		k.buckets[key] = b
	}
	k.mu.Unlock()

	allowed, wait := b.Allow()
	if !allowed && k.config.OnLimit != nil {
		k.config.OnLimit(k.config.Name, key)
	}
	return allowed, wait
}

// Len returns the number of keys currently tracked.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// sweep drops full buckets. Callers hold k.mu.
func (k *KeyedLimiter) sweep() {
	now := k.config.now()
	if now.Sub(k.lastSweep) < sweepInterval {
		return
	}
	k.lastSweep = now
	for key, b := range k.buckets {
		if b.full() {
			delete(k.buckets, key)
		}
	}
}
