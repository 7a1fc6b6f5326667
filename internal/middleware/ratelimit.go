package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abdcafe/backend/internal/models"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter is an in-memory fixed-window counter keyed by client
// address. It does not coordinate across instances. Expired windows are
// replaced wholesale on the next hit and garbage-collected by the
// sweeper.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	max     int
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window.
func NewRateLimiter(max int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		max:     max,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow records a hit for the key and reports whether it is within
// budget, alongside the remaining budget and the window reset time.
func (l *RateLimiter) Allow(key string) (allowed bool, remaining int, resetAt time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}

	w.count++
	remaining = l.max - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= l.max, remaining, w.resetAt
}

// Middleware enforces the limit per client IP and sets the budget
// headers on every response that passes through it.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, resetAt := l.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(resetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			l.logger.Warn("Rate limit exceeded",
				zap.String("client", c.ClientIP()),
				zap.String("path", c.FullPath()),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			resp := models.Fail("too many requests, please try again later")
			resp.Data = gin.H{"retryAfterSeconds": retryAfter}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		c.Next()
	}
}

// Sweep removes windows whose reset time has passed, bounding memory
// regardless of distinct-client churn.
func (l *RateLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (l *RateLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := l.Sweep(); removed > 0 {
				l.logger.Debug("Swept expired rate windows", zap.Int("removed", removed))
			}
		}
	}
}

// size reports the number of tracked windows. Test helper.
func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
