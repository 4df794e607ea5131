package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tripshare/internal/httputil"
	"tripshare/internal/logger"
)

// Limiter counts hits for a key inside a time window.
type Limiter interface {
	// Hit increments the counter for key and returns the new count.
	Hit(ctx context.Context, key string) (int64, error)
}

// RedisLimiter keeps per-key counters in Redis. Every hit pushes the
// expiry out by window, so a client must stay quiet for a full window.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, window: window}
}

// Hit runs INCR and EXPIRE in one pipeline.
func (l *RedisLimiter) Hit(ctx context.Context, key string) (int64, error) {
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return incr.Val(), nil
}

// RateLimit rejects a client IP with 429 once it exceeds maxRequests in the
// limiter's window. Limiter errors let the request through.
func RateLimit(limiter Limiter, scope string, maxRequests int) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("rate limiter cannot be nil")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive")
	}
	log := logger.For("RateLimit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + scope + ":" + httputil.ClientIP(r)

			count, err := limiter.Hit(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(maxRequests) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(maxRequests) {
				log.Info().Str("key", key).Int64("count", count).Msg("rate limited")
				httputil.WriteTooManyRequests(w, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
