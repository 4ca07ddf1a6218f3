package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"todo/internal/apperror"
	"todo/internal/ratelimit"
)

// RateLimit throttles per authenticated user, or per client IP before
// authentication. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, logger *zap.Logger, onLimited func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := CurrentUserID(c); userID != uuid.Nil {
			key = "user:" + userID.String()
		}

		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			if onLimited != nil {
				onLimited()
			}
			abort(c, apperror.TooManyRequests())
			return
		}
		c.Next()
	}
}
