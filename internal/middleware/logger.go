package middleware

import (
	"time"

	"photo-architect/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per HTTP request. Event streams are logged when
// they close.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		extras := log.Fields{
			"status":     status,
			"latency_ms": logging.DurationMS(time.Since(start)),
			"user_agent": c.Request.UserAgent(),
			"bytes":      c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			extras["errors"] = c.Errors.String()
		}
		entry := logging.WithReq(c, extras)
		switch {
		case status >= 500:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
