package server

import (
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/logging"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/version"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
)

// per client IP, ahead of key checks
const (
	adminRPS   = 5
	adminBurst = 20
)

func registerAdminRoutes(engine *gin.Engine, cfg *config.Config, h *handler) {
	var validate func(string) bool
	if cfg.AdminEnabled() {
		validate = config.AdminKeyValidator(h.deps.CurrentConfig)
	}
	admin := engine.Group("/admin", mw.RateLimiter(adminRPS, adminBurst), mw.AdminAuth(validate))
	admin.GET("/usage", h.adminUsage)
	admin.GET("/slow-calls", h.adminSlowCalls)
	admin.GET("/logs/recent", h.adminRecentLogs)
	admin.GET("/logs", h.adminLogStream)
}

func (h *handler) adminUsage(c *gin.Context) {
	out := gin.H{
		"version":         version.Full(),
		"active_sessions": h.deps.Sessions.Len(),
	}
	if h.deps.Usage != nil {
		stats := h.deps.Usage.GetStats()
		out["usage"] = stats
		out["avg_edit_ms"] = stats.Totals.AvgDurationMS()
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) adminSlowCalls(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, gin.H{
		"stats":  h.deps.SlowCalls.Stats(),
		"recent": h.deps.SlowCalls.Recent(n),
	})
}

func (h *handler) logViewer() *logging.WebSocketLogger {
	if h.deps.LogViewer != nil {
		return h.deps.LogViewer
	}
	return logging.GetWSLogger()
}

// adminRecentLogs pages through the in-memory log ring for clients that
// cannot hold a websocket open.
func (h *handler) adminRecentLogs(c *gin.Context) {
	cursor, _ := strconv.ParseUint(c.DefaultQuery("cursor", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	items, next, more := h.logViewer().FetchSince(cursor, limit)
	c.JSON(http.StatusOK, gin.H{"items": items, "cursor": next, "has_more": more})
}

var logUpgrader = ws.Upgrader{CheckOrigin: sameHostOrigin}

// sameHostOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := neturl.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (h *handler) adminLogStream(c *gin.Context) {
	conn, err := logUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}
	viewer := h.logViewer()
	if err := viewer.AddClient(conn); err != nil {
		_ = conn.WriteJSON(map[string]string{"error": "Maximum connections reached"})
		conn.Close()
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(ws.PingMessage, []byte("ping"), time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// read loop keeps the connection alive until the viewer leaves
	for {
		if _, _, err := conn.NextReader(); err != nil {
			close(done)
			viewer.RemoveClient(conn)
			return
		}
	}
}
