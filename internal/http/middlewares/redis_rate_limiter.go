package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter backed by redis INCR, so
// the count survives restarts and is shared across instances. Used on
// the credential endpoints where brute-force matters most.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	period time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, period time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, period: period}
}

func (rl *RedisRateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rdb == nil {
			c.Next()
			return
		}

		bucket := time.Now().Unix() / int64(rl.period.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, c.ClientIP(), bucket)

		n, err := rl.rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// fail open: redis being down must not take auth down with it
			c.Next()
			return
		}

		if n == 1 {
			rl.rdb.Expire(c.Request.Context(), key, rl.period)
		}

		if n > int64(rl.limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many attempts, slow down",
				},
			})
			return
		}

		c.Next()
	}
}
