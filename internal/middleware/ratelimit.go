package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/diy-network/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Counter counts hits of a key inside a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows max requests per client IP inside window for the routes it
// wraps. Counter failures let the request through.
func RateLimit(counter Counter, scope string, max int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("diy:rate_limit:%s:%s", scope, ip)
		count, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limit counter failed", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
