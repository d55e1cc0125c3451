package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS answers cross-origin requests for the JSON API. Admin routes are
// served same-origin and get no CORS headers. With a "*" entry any origin is
// allowed without credentials; otherwise only listed origins are echoed back
// and cookies are permitted.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	wildcard := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
		} else if o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/admin") {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case origin != "" && allowed[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		case wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Credentials", "false")
		default:
			c.Next()
			return
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Language, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
