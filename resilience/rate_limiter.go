package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by Execute when no token is available.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies the limiter in logs.
	Name string
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket capacity.
	Burst int
	// OnLimit is called when a request is rate limited.
	OnLimit func(name, key string)

	now func() time.Time
}

func (c *RateLimiterConfig) applyDefaults() {
	if c.Rate <= 0 {
		c.Rate = 10.0
	}
	if c.Burst <= 0 {
		c.Burst = max(int(c.Rate), 1)
	}
	if c.now == nil {
		c.now = time.Now
	}
}

// RateLimiter is a token bucket.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter returns a limiter whose bucket starts full.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	config.applyDefaults()
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: config.now(),
	}
}

// Allow takes one token. When none is available it returns false and how
// long until one will be.
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	wait := time.Duration((1 - rl.tokens) / rl.config.Rate * float64(time.Second))
	return false, wait
}

// Execute runs fn if a token is available and returns ErrRateLimited
// otherwise.
func (rl *RateLimiter) Execute(fn func() error) error {
	if ok, _ := rl.Allow(); !ok {
		return ErrRateLimited
	}
	return fn()
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

// full reports whether the bucket has refilled to capacity.
func (rl *RateLimiter) full() bool {
	return rl.Tokens() >= float64(rl.config.Burst)
}

func (rl *RateLimiter) refill() {
	now := rl.config.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}
