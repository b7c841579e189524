package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"user-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int64, err error)
	Limit() int64
}

type redisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter counts in Redis so the limit holds across instances.
func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) RateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &redisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (l *redisRateLimiter) key(key string) string {
	bucket := time.Now().UnixNano() / int64(l.window)
	return fmt.Sprintf("rate:%s:%s:%d", l.prefix, key, bucket)
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	k := l.key(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, err
	}

	count := incr.Val()
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, nil
}

func (l *redisRateLimiter) Limit() int64 {
	return l.limit
}

type noopRateLimiter struct{}

// NewNoOpRateLimiter allows everything. Used when Redis is not configured.
func NewNoOpRateLimiter() RateLimiter {
	return noopRateLimiter{}
}

func (noopRateLimiter) Allow(context.Context, string) (bool, int64, error) {
	return true, -1, nil
}

func (noopRateLimiter) Limit() int64 {
	return -1
}

// RateLimit answers 429 with message once the caller's IP exceeds the limit.
// Limiter failures let the request through.
func RateLimit(limiter RateLimiter, message string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if limit := limiter.Limit(); limit >= 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			}

			if !allowed {
				utils.ResponseJSON(w, http.StatusTooManyRequests, false, message, nil, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
