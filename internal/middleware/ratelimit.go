package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/godolist/godo-api/pkg/errors"
	"github.com/godolist/godo-api/pkg/response"
)

// AttemptCounter is the slice of Redis the limiter needs. Counting is
// fixed-window: INCR the key, set the TTL on first hit.
type AttemptCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
}

// LoginRateLimit throttles login attempts per client IP. When the counter
// backend is unavailable the request is let through: throttling is a
// hardening layer, not an availability dependency.
func LoginRateLimit(counter AttemptCounter, maxAttempts int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}

		key := loginAttemptKey(c.ClientIP())
		count, err := counter.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, letting request through", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			counter.Expire(c.Request.Context(), key, window)
		}

		if count > int64(maxAttempts) {
			logger.Warn("login throttled",
				zap.String("ip", c.ClientIP()), zap.Int64("attempts", count))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}

func loginAttemptKey(ip string) string {
	// Normalize IPv6 colons out of the key namespace separator.
	return fmt.Sprintf("login_attempts:%s", strings.ReplaceAll(ip, ":", "_"))
}
