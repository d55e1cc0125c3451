package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/constants"
	"photo-architect/internal/editor"
	"photo-architect/internal/events"
	"photo-architect/internal/logging"
	"photo-architect/internal/monitoring"
	tracing "photo-architect/internal/monitoring/tracing"
	srv "photo-architect/internal/server"
	"photo-architect/internal/session"
	"photo-architect/internal/upstream/gemini"
	"photo-architect/internal/usage"
	"photo-architect/internal/version"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cm, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	defer cm.Close()
	cfg := cm.GetConfig()
	if *debug {
		cfg.Logging.Debug = true
	}

	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	logViewer := logging.InstallWebSocketLogging()
	cm.OnChange(func(next *config.Config) {
		if *debug {
			next.Logging.Debug = true
		}
		if err := logging.Setup(next); err != nil {
			log.WithError(err).Warn("failed to apply reloaded logging config")
		}
	})

	traceShutdown, err := tracing.Init(context.Background(), cfg.Tracing)
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	} else if cfg.Tracing.Endpoint != "" {
		log.WithFields(log.Fields{
			"endpoint":     cfg.Tracing.Endpoint,
			"service":      cfg.Tracing.ServiceName,
			"sample_ratio": cfg.Tracing.SampleRatio,
		}).Info("tracing enabled")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceShutdown(ctx); err != nil {
			log.WithError(err).Warn("failed to shutdown tracing")
		}
	}()

	log.WithFields(log.Fields{
		"version":   version.Full(),
		"config":    cm.Path(),
		"model":     cfg.Gemini.Model,
		"transport": cfg.Gemini.Transport,
	}).Info("starting photo-architect")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen, err := gemini.NewGenerator(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build generation client")
	}
	ed := editor.NewFromConfig(gen, cfg)

	hub := events.NewHub()
	cm.SetEventPublisher(hub)
	if cfg.Logging.Debug {
		hub.Subscribe(events.TopicConfigUpdated, func(_ context.Context, evt events.Event) {
			log.WithField("topic", evt.Topic).Debugf("config event: %v", evt.Payload)
		})
	}

	usageStore := buildUsageStorage(ctx, cfg.Usage)
	tracker := usage.NewTracker(usageStore)
	unsubscribeUsage := tracker.Subscribe(hub)
	defer unsubscribeUsage()
	tracker.Start(ctx)

	sessions := session.NewManager(session.ManagerOptionsFromConfig(cfg, ed, hub, ctx))
	sessions.Start()

	engine := srv.BuildEngine(cfg, srv.Dependencies{
		Sessions:      sessions,
		Hub:           hub,
		Usage:         tracker,
		CurrentConfig: cm.GetConfig,
		SlowCalls:     monitoring.SlowCalls(),
		LogViewer:     logViewer,
		BaseContext:   ctx,
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.WithField("signal", s.String()).Info("shutdown signal received")
	case err := <-serveErr:
		log.WithError(err).Error("http server failed")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()
	shutdown(shutdownCtx, cancel, httpSrv, sessions)
	stopUsage(shutdownCtx, tracker, usageStore)
	log.Info("server stopped")
}

// shutdown ends event streams and drains the listener, then waits for edits
// already sent to the API so their outcomes reach the usage tracker.
func shutdown(ctx context.Context, cancelBase context.CancelFunc, httpSrv *http.Server, sessions *session.Manager) {
	cancelBase()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("http shutdown incomplete")
		}
	}
	sessions.Stop()
	start := time.Now()
	if !sessions.WaitTimeout(ctx) {
		log.Warn("in-flight edits still running at shutdown deadline")
	} else {
		log.WithField("waited_ms", time.Since(start).Milliseconds()).Debug("in-flight edits drained")
	}
}
