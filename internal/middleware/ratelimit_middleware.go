package middleware

import (
	"net/http"

	"assistant-chat/internal/cache"
	"assistant-chat/internal/transport/httpdto"
	"assistant-chat/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware applies a per-IP limit. Attach to the auth route group;
// a nil limiter disables limiting (no Redis configured).
func RateLimitMiddleware(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Redis trouble must not take auth down with it.
			c.Next()
			return
		}
		if !allowed {
			err := apperrors.ErrRateLimited
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(err.Error(), apperrors.Code(err)))
			c.Abort()
			return
		}
		c.Next()
	}
}
