package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// window tracks requests from one client in the current period
type window struct {
	Count   int
	FirstAt time.Time
}

// RateLimiter is a fixed-window per-client request limiter
type RateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*window
	maxRequests  int
	windowPeriod time.Duration
	now          func() time.Time
}

// NewRateLimiter allows maxRequests per client within each windowPeriod
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:      make(map[string]*window),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
		now:          time.Now,
	}
}

// Allow records a request from key and reports whether it may proceed,
// the requests left in the window and, when refused, the wait until reset
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.Sub(w.FirstAt) >= rl.windowPeriod {
		rl.windows[key] = &window{Count: 1, FirstAt: now}
		return true, rl.maxRequests - 1, 0
	}

	if w.Count >= rl.maxRequests {
		return false, 0, rl.windowPeriod - now.Sub(w.FirstAt)
	}
	w.Count++
	return true, rl.maxRequests - w.Count, 0
}

// Cleanup removes expired windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if now.Sub(w.FirstAt) >= rl.windowPeriod {
			delete(rl.windows, key)
		}
	}
}

// StartCleanup periodically cleans up old entries until stop is closed
func (rl *RateLimiter) StartCleanup(every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// RateLimit limits requests per client IP
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, retryAfter := rl.Allow(c.ClientIP())
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limited",
				"message":     fmt.Sprintf("Too many requests. Please try again in %d second(s).", seconds),
				"retry_after": seconds,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
