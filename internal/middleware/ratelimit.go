package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

func (c RateLimitConfig) key(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return c.KeyPrefix + ":user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return c.KeyPrefix + ":ip:" + host
}

// RateLimitMiddleware keeps a fixed-window counter per client in Redis.
// Signed-in customers are counted by user ID, everyone else by remote host.
// Requests pass untouched while Redis is unreachable.
func RateLimitMiddleware(rdb redis.Cmdable, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := config.key(r)

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pttl := pipe.PTTL(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Error("Rate limit counter unavailable", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			count, ttl := incr.Val(), pttl.Val()
			if ttl < 0 {
				ttl = config.Window
				if err := rdb.Expire(ctx, key, config.Window).Err(); err != nil {
					logger.Warn("Failed to set rate limit window", zap.Error(err), zap.String("key", key))
				}
			}

			remaining := int64(config.RequestsPerWindow) - count
			w.Header().Set("X-RateLimit-Limit", limit)

			if remaining < 0 {
				logger.Warn("Rate limit exceeded", zap.String("key", key), zap.Int64("count", count))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second)/time.Second)))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
