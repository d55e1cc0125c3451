package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// parseFile decodes YAML or JSON by extension, trying both when unknown.
func parseFile(path string, data []byte) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON)")
			}
		}
	}
	fillDefaults(&cfg)
	return &cfg, nil
}

func (cm *ConfigManager) load() error {
	if cm.configPath == "" {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}
	cfg, err := parseFile(cm.configPath, data)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	if info, err := os.Stat(cm.configPath); err == nil {
		cm.lastMod = info.ModTime()
	}
	cm.config = cfg
	cm.mu.Unlock()

	log.WithField("path", cm.configPath).Info("configuration loaded")
	return nil
}
