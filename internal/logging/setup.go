package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photo-architect/internal/config"

	log "github.com/sirupsen/logrus"
)

// sink owns the optional log file so a reload can swap it.
var sink struct {
	sync.Mutex
	file *os.File
	path string
}

// Setup applies the logging block to the global logrus logger. It runs at
// start and again on every config reload; the log file is only reopened when
// its path changes.
func Setup(cfg *config.Config) error {
	var lc config.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}

	level, err := levelFor(lc)
	if err != nil {
		return err
	}

	sink.Lock()
	defer sink.Unlock()

	if err := reopen(lc.File); err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(formatterFor(lc))
	if sink.file != nil {
		log.SetOutput(io.MultiWriter(os.Stdout, sink.file))
	} else {
		log.SetOutput(os.Stdout)
	}
	return nil
}

// levelFor: an explicit level wins, otherwise Debug picks debug over info.
func levelFor(lc config.LoggingConfig) (log.Level, error) {
	if name := strings.TrimSpace(lc.Level); name != "" {
		lvl, err := log.ParseLevel(name)
		if err != nil {
			return log.InfoLevel, fmt.Errorf("logging.level: %w", err)
		}
		return lvl, nil
	}
	if lc.Debug {
		return log.DebugLevel, nil
	}
	return log.InfoLevel, nil
}

func formatterFor(lc config.LoggingConfig) log.Formatter {
	format := strings.ToLower(strings.TrimSpace(lc.Format))
	if format == "text" || (format == "" && lc.Debug) {
		return &log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano}
	}
	return &log.JSONFormatter{TimestampFormat: time.RFC3339Nano}
}

// reopen must be called with sink held.
func reopen(path string) error {
	if path == sink.path && (path == "" || sink.file != nil) {
		return nil
	}
	if sink.file != nil {
		_ = sink.file.Close()
		sink.file = nil
	}
	sink.path = ""
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	sink.file = f
	sink.path = path
	return nil
}
