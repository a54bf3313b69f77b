// Package resilience provides token-bucket rate limiting, either as a
// single bucket or as one bucket per key such as a client IP.
//
//	limiter := resilience.NewKeyedLimiter(resilience.RateLimiterConfig{
//	    Name:  "admin-login",
//	    Rate:  10.0 / 60, // ten attempts a minute
//	    Burst: 5,
//	})
//	if ok, wait := limiter.Allow(clientIP); !ok {
//	    // reject, retry after wait
//	}
package resilience
