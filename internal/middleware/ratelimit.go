package middleware

import (
	"net/http"
	"sync"
	"time"

	"photo-architect/internal/i18n"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ttlLimiterCache is a simple TTL map for per-key limiters with opportunistic sweeping.
type ttlLimiterCache struct {
	mu        sync.Mutex
	items     map[string]*limiterEntry
	ttl       time.Duration
	lastSweep time.Time
}

func newTTLLimiterCache(ttl time.Duration) *ttlLimiterCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ttlLimiterCache{items: make(map[string]*limiterEntry), ttl: ttl}
}

func (c *ttlLimiterCache) get(key string, makeFn func() *rate.Limiter) *rate.Limiter {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := makeFn()
	c.items[key] = &limiterEntry{lim: lim, lastSeen: now}
	SetRateLimitKeyGauge(len(c.items))
	// opportunistic sweep every ~2 minutes
	if c.lastSweep.IsZero() || now.Sub(c.lastSweep) > 2*time.Minute {
		c.sweepLocked(now)
		c.lastSweep = now
	}
	return lim
}

func (c *ttlLimiterCache) sweepLocked(now time.Time) {
	for k, e := range c.items {
		if now.Sub(e.lastSeen) > c.ttl {
			delete(c.items, k)
		}
	}
	SetRateLimitKeyGauge(len(c.items))
	RecordRateLimitSweep()
}

func (c *ttlLimiterCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RateLimiter limits requests per client IP. Used in front of the admin
// routes.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	cache := newTTLLimiterCache(15 * time.Minute)
	return func(c *gin.Context) {
		li := cache.get(c.ClientIP(), func() *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), burst) })
		if !li.Allow() {
			rejectRateLimited(c)
			return
		}
		c.Next()
	}
}

// EditRateLimiter limits edit submissions per browser session (falling back
// to client IP) and applies a global guard of ten times the per-session rate.
func EditRateLimiter(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 6
	}
	if burst <= 0 {
		burst = 3
	}
	perKey := rate.Limit(float64(perMinute) / 60)
	cache := newTTLLimiterCache(30 * time.Minute)
	global := rate.NewLimiter(perKey*10, burst*10)
	return func(c *gin.Context) {
		if !global.Allow() {
			rejectRateLimited(c)
			return
		}
		key := c.GetString("session_id")
		if key == "" {
			key = c.ClientIP()
		}
		li := cache.get(key, func() *rate.Limiter { return rate.NewLimiter(perKey, burst) })
		if !li.Allow() {
			rejectRateLimited(c)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context) {
	RecordRateLimitReject()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": gin.H{
			"message": i18n.T(RequestLocale(c), i18n.MsgRateLimited),
			"type":    "rate_limit_error",
			"code":    "rate_limit_exceeded",
		},
	})
}
