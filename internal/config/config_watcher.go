package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

func (cm *ConfigManager) startWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WithError(err).Warn("failed to create file watcher, falling back to polling")
		cm.startPollingWatcher()
		return
	}

	if err := watcher.Add(cm.configPath); err != nil {
		log.WithError(err).WithField("path", cm.configPath).Warn("failed to watch config file, falling back to polling")
		watcher.Close()
		cm.startPollingWatcher()
		return
	}

	// Also watch the directory to catch atomic writes (rename operations)
	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		log.WithError(err).WithField("dir", configDir).Warn("failed to watch config directory")
	}

	log.WithField("path", cm.configPath).Info("file watcher started using fsnotify")

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		debounceDuration := 100 * time.Millisecond

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == filepath.Clean(cm.configPath) &&
					(event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(debounceDuration, cm.checkAndReload)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")

			case <-cm.stopCh:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()
}

// startPollingWatcher is a fallback when fsnotify is not available
func (cm *ConfigManager) startPollingWatcher() {
	ticker := time.NewTicker(5 * time.Second)
	log.WithField("interval", "5s").Info("file watcher started using polling")

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cm.checkAndReload()
			case <-cm.stopCh:
				return
			}
		}
	}()
}

func (cm *ConfigManager) checkAndReload() {
	if cm.configPath == "" {
		return
	}
	info, err := os.Stat(cm.configPath)
	if err != nil {
		return
	}
	cm.mu.RLock()
	lastMod := cm.lastMod
	cm.mu.RUnlock()
	if !info.ModTime().After(lastMod) {
		return
	}

	oldConfig := cm.GetConfig()
	if err := cm.load(); err != nil {
		log.WithError(err).WithField("path", cm.configPath).Warn("failed to reload config")
		return
	}
	cm.mergeEnvVars()
	newConfig := cm.GetConfig()

	if err := newConfig.Validate().Err(); err != nil {
		log.WithError(err).Warn("reloaded config is invalid, keeping previous settings")
		cm.mu.Lock()
		cm.config = oldConfig
		cm.mu.Unlock()
		return
	}

	cm.emitChange(oldConfig, newConfig)
	cm.logConfigChanges(oldConfig, newConfig)
}

// logConfigChanges reports the settings that apply without a restart and
// warns about the ones that do not.
func (cm *ConfigManager) logConfigChanges(old, new *Config) {
	if old.Logging.Debug != new.Logging.Debug {
		log.WithFields(log.Fields{"field": "logging.debug", "old": old.Logging.Debug, "new": new.Logging.Debug}).Info("config changed")
	}
	if old.Logging.File != new.Logging.File {
		log.WithFields(log.Fields{"field": "logging.file", "old": old.Logging.File, "new": new.Logging.File}).Info("config changed")
	}
	if old.Server.RequestLog != new.Server.RequestLog {
		log.WithFields(log.Fields{"field": "server.request_log", "old": old.Server.RequestLog, "new": new.Server.RequestLog}).Info("config changed")
	}
	if old.Server.Port != new.Server.Port {
		log.WithFields(log.Fields{"field": "server.port", "old": old.Server.Port, "new": new.Server.Port}).Warn("config changed; restart required")
	}
	if old.Gemini.Model != new.Gemini.Model || old.Gemini.Transport != new.Gemini.Transport {
		log.WithField("field", "gemini").Warn("config changed; restart required")
	}
}
