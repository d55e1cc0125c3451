package server

import (
	"context"
	"net/http"

	"photo-architect/internal/config"
	"photo-architect/internal/events"
	"photo-architect/internal/logging"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/monitoring"
	"photo-architect/internal/session"
	"photo-architect/internal/usage"

	"github.com/gin-gonic/gin"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
type Dependencies struct {
	Sessions *session.Manager
	Hub      *events.Hub
	Usage    *usage.Tracker
	// CurrentConfig returns the live configuration; admin key checks follow
	// hot reloads through it. Defaults to the startup config.
	CurrentConfig func() *config.Config
	SlowCalls     *monitoring.SlowCallLog
	LogViewer     *logging.WebSocketLogger
	// BaseContext ends long-lived streams on shutdown.
	BaseContext context.Context
}

// BuildEngine constructs the gin engine serving the UI, the session API and
// the admin routes.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.CurrentConfig == nil {
		deps.CurrentConfig = func() *config.Config { return cfg }
	}
	if deps.SlowCalls == nil {
		deps.SlowCalls = monitoring.SlowCalls()
	}
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}

	engine := gin.New()
	applyStandardEngineSettings(engine, cfg)

	h := &handler{cfg: cfg, deps: deps}

	// a full page load starts a new session
	engine.GET("/", mw.SessionCookie(sessionCookieConfig(cfg, true)), h.index)
	registerStatic(engine)

	api := engine.Group("/api")
	api.Use(mw.SessionCookie(sessionCookieConfig(cfg, false)), h.sessionContext())
	{
		api.GET("/presets", h.presets)
		api.GET("/session", h.snapshot)
		api.POST("/session/upload", h.upload)
		api.PUT("/session/prompt", h.setPrompt)
		edit := []gin.HandlerFunc{}
		if cfg.RateLimit.Enabled {
			edit = append(edit, mw.EditRateLimiter(cfg.RateLimit.EditsPerMinute, cfg.RateLimit.Burst))
		}
		api.POST("/session/edit", append(edit, h.submit)...)
		api.POST("/session/reset", h.reset)
		api.POST("/session/revert", h.revert)
		api.POST("/session/history/:id/select", h.selectHistory)
		api.DELETE("/session/error", h.dismissError)
		api.PUT("/session/locale", h.setLocale)
		api.GET("/session/download", h.download)
		api.GET("/session/events", h.events)
	}

	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/metrics", mw.MetricsHandler)

	registerAdminRoutes(engine, cfg, h)
	return engine
}

func sessionCookieConfig(cfg *config.Config, fresh bool) mw.SessionCookieConfig {
	sc := mw.SessionCookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	if fresh {
		sc.Fresh = func(*gin.Context) bool { return true }
	}
	return sc
}
