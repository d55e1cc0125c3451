package server

import (
	"photo-architect/internal/config"
	"photo-architect/internal/i18n"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/session"

	"github.com/gin-gonic/gin"
)

const ctxController = "controller"

// applyStandardEngineSettings applies common Gin settings and middlewares.
func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config) {
	if !cfg.Logging.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies([]string{})
	engine.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics())
	// CORS skips /admin itself
	engine.Use(mw.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.RequestLog {
		engine.Use(mw.RequestLogger())
	}
}

// sessionContext resolves the controller for the session cookie and exposes
// its locale to the recovery and rate limit middlewares.
func (h *handler) sessionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetString("session_id")
		ctrl := h.deps.Sessions.Get(sid, i18n.Match(c.GetHeader("Accept-Language")))
		c.Set(ctxController, ctrl)
		c.Set("locale", ctrl.Locale())
		c.Next()
	}
}

func controllerFrom(c *gin.Context) *session.Controller {
	return c.MustGet(ctxController).(*session.Controller)
}
