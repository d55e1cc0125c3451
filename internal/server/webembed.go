package server

import (
	"net/http"

	"photo-architect/web"

	"github.com/gin-gonic/gin"
)

func setNoCacheHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
}

func serveEmbeddedFile(c *gin.Context, rel string, contentType string) {
	data, err := web.AssetsFS.ReadFile(rel)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// registerStatic serves the UI assets next to the index page.
func registerStatic(r gin.IRoutes) {
	r.GET("/app.js", func(c *gin.Context) {
		setNoCacheHeaders(c)
		serveEmbeddedFile(c, "app.js", "application/javascript; charset=utf-8")
	})
	r.GET("/style.css", func(c *gin.Context) {
		setNoCacheHeaders(c)
		serveEmbeddedFile(c, "style.css", "text/css; charset=utf-8")
	})
}

// index serves the UI. SessionCookie already issued a fresh id; the state
// of the previous one is discarded, as a page reload would in the browser.
func (h *handler) index(c *gin.Context) {
	if prev := c.GetString("previous_session_id"); prev != "" {
		h.deps.Sessions.Drop(prev)
	}
	setNoCacheHeaders(c)
	serveEmbeddedFile(c, "index.html", "text/html; charset=utf-8")
}
