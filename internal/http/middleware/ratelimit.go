package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// RateLimitByIP gates an operation by the caller's network address
// before any state-changing work occurs. Invitation-scoped buckets are
// consumed by the handlers on top of this.
func RateLimitByIP(limiter domain.RateLimiter, operation string, cap int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Consume(c.Request.Context(), operation+":"+c.ClientIP(), cap, window)
		if err != nil {
			// The limiter store being down must not open the gate.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
			c.Abort()
			return
		}
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many attempts",
				"retry_after": result.RetryAfterSeconds,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
