package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientWindow struct {
	start time.Time
	count int
}

// memoryLimiter - fixed-window limiter for a single process, used when Redis is not configured
type memoryLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastSweep time.Time
	now       func() time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{clients: make(map[string]*clientWindow), now: time.Now}
}

// allow counts one hit for ident and reports whether it is within the limit.
func (l *memoryLimiter) allow(ident string, maxRequests int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now, window)

	cw, ok := l.clients[ident]
	if !ok || now.Sub(cw.start) > window {
		l.clients[ident] = &clientWindow{start: now, count: 1}
		return true
	}
	cw.count++
	return cw.count <= maxRequests
}

// sweepLocked drops expired windows, at most once per window.
func (l *memoryLimiter) sweepLocked(now time.Time, window time.Duration) {
	if now.Sub(l.lastSweep) < window {
		return
	}
	l.lastSweep = now
	for ident, cw := range l.clients {
		if now.Sub(cw.start) > window {
			delete(l.clients, ident)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := newMemoryLimiter()
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), maxRequests, window) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// RateLimit uses Redis when a client was set up, the in-process limiter otherwise.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient != nil {
		return RedisRateLimit(maxRequests, window)
	}
	return SimpleRateLimit(maxRequests, window)
}
