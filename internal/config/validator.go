package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "photo-architect/internal/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s=%s]: %s", e.Field, e.Value, e.Message)
}

// ValidationResult holds the results of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

func (r *ValidationResult) AddError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
	r.Valid = false
}

func (r *ValidationResult) AddWarning(field, value, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// Err returns the first error as a *ConfigError, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	first := r.Errors[0]
	return &apperrors.ConfigError{Field: first.Field, Message: first.Message}
}

// Validate checks the configuration. A missing API key is always an error.
func (c *Config) Validate() ValidationResult {
	result := ValidationResult{Valid: true}

	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		result.AddError("gemini.api_key", "", "API key is required (set GEMINI_API_KEY or API_KEY)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result.AddError("server.port", strconv.Itoa(c.Server.Port), "port must be between 1 and 65535")
	}
	if u, err := url.Parse(c.Gemini.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("gemini.endpoint", c.Gemini.Endpoint, "endpoint must be an absolute URL")
	}
	if c.Gemini.ProxyURL != "" {
		if _, err := url.Parse(c.Gemini.ProxyURL); err != nil {
			result.AddError("gemini.proxy_url", c.Gemini.ProxyURL, "invalid proxy URL")
		}
	}
	switch strings.ToLower(c.Gemini.Transport) {
	case "rest", "sdk":
	default:
		result.AddError("gemini.transport", c.Gemini.Transport, "transport must be rest or sdk")
	}
	if c.Editor.TimeoutSec < 1 {
		result.AddError("editor.timeout_sec", strconv.Itoa(c.Editor.TimeoutSec), "timeout must be positive")
	} else if c.Editor.TimeoutSec > 600 {
		result.AddWarning("editor.timeout_sec", strconv.Itoa(c.Editor.TimeoutSec), "timeout above 10 minutes")
	}
	switch c.Usage.Backend {
	case "memory":
	case "redis":
		if c.Usage.RedisAddr == "" {
			result.AddError("usage.redis_addr", "", "redis backend requires an address")
		}
	default:
		result.AddError("usage.backend", c.Usage.Backend, "backend must be memory or redis")
	}
	if c.RateLimit.Enabled && c.RateLimit.EditsPerMinute < 1 {
		result.AddError("rate_limit.edits_per_minute", strconv.Itoa(c.RateLimit.EditsPerMinute), "must be positive when rate limiting is enabled")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		result.AddError("logging.level", c.Logging.Level, "unknown log level")
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		result.AddError("logging.format", c.Logging.Format, "format must be json or text")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		result.AddError("tracing.sample_ratio", strconv.FormatFloat(c.Tracing.SampleRatio, 'g', -1, 64), "sample ratio must be within [0, 1]")
	}
	if !c.AdminEnabled() {
		result.AddWarning("admin.key_hash", "", "admin routes disabled")
	}
	return result
}
