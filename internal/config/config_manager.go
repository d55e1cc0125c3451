package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photo-architect/internal/events"

	log "github.com/sirupsen/logrus"
)

// ConfigManager owns the loaded configuration and reloads it when the file
// changes on disk.
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	stopCh     chan struct{}
	stopOnce   sync.Once
	onChange   []func(*Config)
	lastMod    time.Time
	publisher  events.Publisher
}

// NewConfigManager loads configuration from configPath (or the first file
// found in the default locations), overlays the environment and starts a
// watcher when a file was found.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		home, _ := os.UserHomeDir()
		locations := []string{
			"config.yaml",
			"config.yml",
			"config.json",
			filepath.Join(home, ".photo-architect", "config.yaml"),
			filepath.Join(home, ".photo-architect", "config.yml"),
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				configPath = loc
				break
			}
		}
	}

	if strings.HasPrefix(configPath, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, configPath[1:])
	}

	cm := &ConfigManager{
		configPath: configPath,
		stopCh:     make(chan struct{}),
	}

	if err := cm.load(); err != nil {
		if os.IsNotExist(err) || configPath == "" {
			cm.config = Default()
			log.WithField("path", configPath).Warn("using default configuration (no config file found)")
		} else {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cm.mergeEnvVars()

	if cm.configPath != "" {
		if _, err := os.Stat(cm.configPath); err == nil {
			cm.startWatcher()
		}
	}
	return cm, nil
}

// Load builds a manager and validates the result. Validation errors are
// returned as *errors.ConfigError; the caller treats them as fatal.
func Load(configPath string) (*ConfigManager, error) {
	cm, err := NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	res := cm.GetConfig().Validate()
	for _, w := range res.Warnings {
		log.WithField("field", w.Field).Warn(w.Message)
	}
	if err := res.Err(); err != nil {
		cm.Close()
		return nil, err
	}
	return cm, nil
}

// Path returns the file the configuration was read from, if any.
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// OnChange registers a callback for configuration changes
func (cm *ConfigManager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.onChange = append(cm.onChange, fn)
}

// SetEventPublisher wires the event hub used to broadcast config updates.
func (cm *ConfigManager) SetEventPublisher(p events.Publisher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.publisher = p
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.config == nil {
		return Default()
	}
	c := *cm.config
	return &c
}

// Close stops the file watcher.
func (cm *ConfigManager) Close() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

func (cm *ConfigManager) mergeEnvVars() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.config == nil {
		cm.config = Default()
	}
	applyEnv(cm.config)
}

func (cm *ConfigManager) listenersSnapshot() ([]func(*Config), events.Publisher, string) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	callbacks := make([]func(*Config), len(cm.onChange))
	copy(callbacks, cm.onChange)
	return callbacks, cm.publisher, cm.configPath
}

func (cm *ConfigManager) emitChange(oldCfg, newCfg *Config) {
	callbacks, publisher, path := cm.listenersSnapshot()

	for _, fn := range callbacks {
		fn(newCfg)
	}

	if publisher != nil && newCfg != nil {
		event := ConfigChangeEvent{
			Path:      path,
			UpdatedAt: time.Now().UTC(),
			Logging:   newCfg.Logging,
		}
		if oldCfg != nil {
			prev := oldCfg.Logging
			event.Previous = &prev
		}
		publisher.Publish(context.Background(), events.TopicConfigUpdated, event, nil)
	}
}

// ConfigChangeEvent is the payload broadcast when configuration changes.
// Secrets are never part of it.
type ConfigChangeEvent struct {
	Path      string         `json:"path"`
	UpdatedAt time.Time      `json:"updated_at"`
	Logging   LoggingConfig  `json:"logging"`
	Previous  *LoggingConfig `json:"previous,omitempty"`
}
