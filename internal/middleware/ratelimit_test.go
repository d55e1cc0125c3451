package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiterPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(1, 1))
	router.GET("/test", func(c *gin.Context) { c.String(200, "OK") })

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, httptest.NewRequest("GET", "/test", nil))
	require.Equal(t, 200, w1.Code)

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest("GET", "/test", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	require.Equal(t, 200, w3.Code)
}

func TestEditRateLimiterKeysBySession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("session_id", c.GetHeader("X-Test-Session"))
		c.Next()
	})
	router.Use(EditRateLimiter(1, 1))
	router.POST("/edit", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	send := func(sid string) int {
		req := httptest.NewRequest("POST", "/edit", nil)
		req.Header.Set("X-Test-Session", sid)
		req.Header.Set("Accept-Language", "en")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusAccepted, send("a"))
	require.Equal(t, http.StatusTooManyRequests, send("a"))
	require.Equal(t, http.StatusAccepted, send("b"))
}

func TestTTLLimiterCacheSweeps(t *testing.T) {
	cache := newTTLLimiterCache(time.Millisecond)
	mk := func() *rate.Limiter { return rate.NewLimiter(1, 1) }
	first := cache.get("a", mk)
	require.Same(t, first, cache.get("a", mk))

	cache.mu.Lock()
	cache.items["a"].lastSeen = time.Now().Add(-time.Hour)
	cache.lastSweep = time.Now().Add(-time.Hour)
	cache.mu.Unlock()

	cache.get("b", mk)
	require.Equal(t, 1, cache.len())
}
