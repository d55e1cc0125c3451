package middleware

import (
	"net/http"
	"strings"

	apperrors "photo-architect/internal/errors"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards admin routes. The key is read from the Authorization
// header (Bearer or raw), X-Admin-Key, or the "key" query parameter; the
// query form exists for browser websocket clients that cannot set headers.
// A nil validator disables the routes entirely.
func AdminAuth(validate func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if validate == nil {
			RecordAdminAccess(route, "disabled")
			apperrors.WriteJSON(c, apperrors.New(http.StatusNotFound, "not_found", "invalid_request_error", "admin routes are disabled"))
			return
		}
		key := adminKeyFrom(c)
		if key == "" {
			RecordAdminAccess(route, "missing")
			apperrors.WriteJSON(c, apperrors.New(http.StatusUnauthorized, "missing_admin_key", "authentication_error", "admin key not provided"))
			return
		}
		if !validate(key) {
			RecordAdminAccess(route, "denied")
			apperrors.WriteJSON(c, apperrors.New(http.StatusUnauthorized, "invalid_admin_key", "authentication_error", "invalid admin key"))
			return
		}
		RecordAdminAccess(route, "allowed")
		c.Next()
	}
}

func adminKeyFrom(c *gin.Context) string {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" {
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	if v := strings.TrimSpace(c.GetHeader("X-Admin-Key")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("key"))
}
