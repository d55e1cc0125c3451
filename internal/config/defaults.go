package config

import "photo-architect/internal/constants"

const (
	DefaultPort           = 8080
	DefaultEndpoint       = "https://generativelanguage.googleapis.com"
	DefaultModel          = "gemini-2.5-flash-image"
	DefaultTransport      = "rest"
	DefaultCookieName     = "pa_session"
	DefaultDownloadPrefix = "photo-architect"
	DefaultRedisPrefix    = "photo-architect:"
	DefaultServiceName    = "photo-architect"
	DefaultSampleRatio    = 1.0
)

// Default returns a configuration with every field at its default. The API
// key is left empty; Validate rejects that.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           DefaultPort,
			CORSOrigins:    []string{"*"},
			MaxUploadBytes: constants.MaxUploadBytes,
			DownloadPrefix: DefaultDownloadPrefix,
		},
		Gemini: GeminiConfig{
			Endpoint:  DefaultEndpoint,
			Model:     DefaultModel,
			Transport: DefaultTransport,
		},
		Editor: EditorConfig{TimeoutSec: int(constants.EditTimeout.Seconds())},
		Session: SessionConfig{
			IdleTTLSec:       int(constants.SessionIdleTTL.Seconds()),
			SweepIntervalSec: int(constants.SessionSweepInterval.Seconds()),
			CookieName:       DefaultCookieName,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			EditsPerMinute: constants.DefaultEditRPM,
			Burst:          constants.DefaultEditBurst,
		},
		Usage: UsageConfig{
			Backend:     "memory",
			RedisPrefix: DefaultRedisPrefix,
		},
		Tracing: TracingConfig{
			Insecure:    true,
			ServiceName: DefaultServiceName,
			SampleRatio: DefaultSampleRatio,
		},
	}
}

// fillDefaults replaces zero values left by a partial config file.
func fillDefaults(c *Config) {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = d.Server.CORSOrigins
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if c.Server.DownloadPrefix == "" {
		c.Server.DownloadPrefix = d.Server.DownloadPrefix
	}
	if c.Gemini.Endpoint == "" {
		c.Gemini.Endpoint = d.Gemini.Endpoint
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = d.Gemini.Model
	}
	if c.Gemini.Transport == "" {
		c.Gemini.Transport = d.Gemini.Transport
	}
	if c.Editor.TimeoutSec <= 0 {
		c.Editor.TimeoutSec = d.Editor.TimeoutSec
	}
	if c.Session.IdleTTLSec <= 0 {
		c.Session.IdleTTLSec = d.Session.IdleTTLSec
	}
	if c.Session.SweepIntervalSec <= 0 {
		c.Session.SweepIntervalSec = d.Session.SweepIntervalSec
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = d.Session.CookieName
	}
	if c.RateLimit.EditsPerMinute <= 0 {
		c.RateLimit.EditsPerMinute = d.RateLimit.EditsPerMinute
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = d.RateLimit.Burst
	}
	if c.Usage.Backend == "" {
		c.Usage.Backend = d.Usage.Backend
	}
	if c.Usage.RedisPrefix == "" {
		c.Usage.RedisPrefix = d.Usage.RedisPrefix
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
	if c.Tracing.SampleRatio <= 0 {
		c.Tracing.SampleRatio = d.Tracing.SampleRatio
	}
}
