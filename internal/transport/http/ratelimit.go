package http

import (
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter counts requests per client key over a fixed window.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count int
	reset time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.reset) {
		rl.buckets[key] = &bucket{count: 1, reset: now.Add(rl.window)}
		// Occasional sweep so abandoned clients don't accumulate.
		if len(rl.buckets) > 1024 {
			for k, v := range rl.buckets {
				if now.After(v.reset) {
					delete(rl.buckets, k)
				}
			}
		}
		return true
	}
	b.count++
	return b.count <= rl.limit
}

// RateLimitMiddleware rejects clients exceeding limit requests per minute.
// A non-positive limit disables the middleware.
func RateLimitMiddleware(limit int) gin.HandlerFunc {
	rl := newRateLimiter(limit, time.Minute)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(stdhttp.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
