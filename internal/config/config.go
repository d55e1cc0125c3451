package config

import (
	"fmt"
	"strings"
	"time"

	"photo-architect/internal/constants"
)

// Config is the full service configuration. Every domain has its own block so
// the YAML file reads the same way the structs do.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Gemini    GeminiConfig    `yaml:"gemini" json:"gemini"`
	Editor    EditorConfig    `yaml:"editor" json:"editor"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Usage     UsageConfig     `yaml:"usage" json:"usage"`
	Admin     AdminConfig     `yaml:"admin" json:"admin"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
}

// ServerConfig covers the HTTP listener and browser facing behaviour.
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	CORSOrigins    []string `yaml:"cors_origins" json:"cors_origins"`
	RequestLog     bool     `yaml:"request_log" json:"request_log"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	DownloadPrefix string   `yaml:"download_prefix" json:"download_prefix"`
}

// GeminiConfig selects and tunes the generation API transport.
type GeminiConfig struct {
	APIKey                   string `yaml:"api_key" json:"api_key"`
	Endpoint                 string `yaml:"endpoint" json:"endpoint"`
	Model                    string `yaml:"model" json:"model"`
	Transport                string `yaml:"transport" json:"transport"` // rest | sdk
	ProxyURL                 string `yaml:"proxy_url" json:"proxy_url"`
	DialTimeoutSec           int    `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int    `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int    `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`
}

type EditorConfig struct {
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
}

type SessionConfig struct {
	IdleTTLSec       int    `yaml:"idle_ttl_sec" json:"idle_ttl_sec"`
	SweepIntervalSec int    `yaml:"sweep_interval_sec" json:"sweep_interval_sec"`
	CookieName       string `yaml:"cookie_name" json:"cookie_name"`
	CookieSecure     bool   `yaml:"cookie_secure" json:"cookie_secure"`
}

// RateLimitConfig bounds edit submissions per browser session.
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" json:"enabled"`
	EditsPerMinute int  `yaml:"edits_per_minute" json:"edits_per_minute"`
	Burst          int  `yaml:"burst" json:"burst"`
}

type UsageConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // memory | redis
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`
}

// AdminConfig protects /admin routes. KeyHash is a bcrypt hash; Key is a
// plain key kept for local development.
type AdminConfig struct {
	Key     string `yaml:"key" json:"key"`
	KeyHash string `yaml:"key_hash" json:"key_hash"`
}

// LoggingConfig drives logrus. Level overrides Debug when set; Format is
// json or text, and Debug alone switches to text.
type LoggingConfig struct {
	Debug  bool   `yaml:"debug" json:"debug"`
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// TracingConfig enables OTLP/gRPC span export. An empty Endpoint keeps
// tracing off. Endpoint is host:port or a full URL.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" json:"sample_ratio"`
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EditTimeout bounds a single generation call.
func (c *Config) EditTimeout() time.Duration {
	return secondsOr(c.Editor.TimeoutSec, constants.EditTimeout)
}

func (c *Config) SessionIdleTTL() time.Duration {
	return secondsOr(c.Session.IdleTTLSec, constants.SessionIdleTTL)
}

func (c *Config) SessionSweepInterval() time.Duration {
	return secondsOr(c.Session.SweepIntervalSec, constants.SessionSweepInterval)
}

// UseSDK reports whether the genai SDK transport is selected.
func (c *Config) UseSDK() bool {
	return strings.EqualFold(strings.TrimSpace(c.Gemini.Transport), "sdk")
}

// AdminEnabled reports whether any admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.Admin.Key != "" || c.Admin.KeyHash != ""
}

func secondsOr(sec int, fallback time.Duration) time.Duration {
	if sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return fallback
}
