package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/portfolio/errors"
	"github.com/kbukum/portfolio/resilience"
)

// RateLimit returns a Gin middleware that takes one token per request from
// the bucket of the key keyFunc derives. Limited requests get 429 with a
// Retry-After header. keyFunc defaults to the client IP.
func RateLimit(limiter *resilience.KeyedLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = IPBasedKey
	}
	return func(c *gin.Context) {
		ok, wait := limiter.Allow(keyFunc(c))
		if ok {
			c.Next()
			return
		}
		appErr := apperrors.RateLimited(wait)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
