package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookieConfig describes the browser session cookie.
type SessionCookieConfig struct {
	Name   string
	Secure bool
	// Fresh reports whether this request must start a new session even when
	// a cookie is present (a full page load).
	Fresh func(c *gin.Context) bool
}

// SessionCookie stores the browser session id under "session_id", issuing
// a new random id when the cookie is missing, malformed, or Fresh says so.
// The previous id (if any) is kept under "previous_session_id".
func SessionCookie(cfg SessionCookieConfig) gin.HandlerFunc {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "pa_session"
	}
	return func(c *gin.Context) {
		sid, err := c.Cookie(name)
		if err == nil && !validSessionID(sid) {
			sid = ""
		}
		if cfg.Fresh != nil && cfg.Fresh(c) {
			if sid != "" {
				c.Set("previous_session_id", sid)
			}
			sid = ""
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     name,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set("session_id", sid)
		c.Next()
	}
}

func validSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
