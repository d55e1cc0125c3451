package config

import (
	"os"
	"strings"
)

// applyEnv overlays environment variables on c. Environment always wins over
// the config file.
func applyEnv(c *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := parsePort(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitAndTrim(v, ",")
	}
	setToggleFromEnv("REQUEST_LOG", func(b bool) { c.Server.RequestLog = b })
	setIntFromEnv("MAX_UPLOAD_MB", func(n int) {
		if n > 0 {
			c.Server.MaxUploadBytes = int64(n) << 20
		}
	})
	if v := os.Getenv("DOWNLOAD_PREFIX"); v != "" {
		c.Server.DownloadPrefix = v
	}

	if key := firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"), os.Getenv("GOOGLE_API_KEY")); key != "" {
		c.Gemini.APIKey = strings.TrimSpace(key)
	}
	if v := os.Getenv("GEMINI_ENDPOINT"); v != "" {
		c.Gemini.Endpoint = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("GEMINI_TRANSPORT"); v != "" {
		c.Gemini.Transport = strings.ToLower(strings.TrimSpace(v))
	}
	if v := firstNonEmpty(os.Getenv("GEMINI_PROXY_URL"), os.Getenv("PROXY_URL")); v != "" {
		c.Gemini.ProxyURL = v
	}
	setIntFromEnv("DIAL_TIMEOUT_SEC", func(n int) { c.Gemini.DialTimeoutSec = n })
	setIntFromEnv("TLS_HANDSHAKE_TIMEOUT_SEC", func(n int) { c.Gemini.TLSHandshakeTimeoutSec = n })
	setIntFromEnv("RESPONSE_HEADER_TIMEOUT_SEC", func(n int) { c.Gemini.ResponseHeaderTimeoutSec = n })

	setIntFromEnv("EDIT_TIMEOUT_SEC", func(n int) { c.Editor.TimeoutSec = n })

	setIntFromEnv("SESSION_IDLE_TTL_SEC", func(n int) { c.Session.IdleTTLSec = n })
	setIntFromEnv("SESSION_SWEEP_INTERVAL_SEC", func(n int) { c.Session.SweepIntervalSec = n })
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		c.Session.CookieName = v
	}
	setToggleFromEnv("SESSION_COOKIE_SECURE", func(b bool) { c.Session.CookieSecure = b })

	setToggleFromEnv("RATE_LIMIT_ENABLED", func(b bool) { c.RateLimit.Enabled = b })
	setIntFromEnv("RATE_LIMIT_EDITS_PER_MINUTE", func(n int) { c.RateLimit.EditsPerMinute = n })
	setIntFromEnv("RATE_LIMIT_BURST", func(n int) { c.RateLimit.Burst = n })

	if v := os.Getenv("USAGE_BACKEND"); v != "" {
		c.Usage.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Usage.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Usage.RedisPassword = v
	}
	setIntFromEnv("REDIS_DB", func(n int) { c.Usage.RedisDB = n })
	if v := os.Getenv("REDIS_PREFIX"); v != "" {
		c.Usage.RedisPrefix = v
	}

	if v := os.Getenv("ADMIN_KEY"); v != "" {
		c.Admin.Key = v
	}
	if v := os.Getenv("ADMIN_KEY_HASH"); v != "" {
		c.Admin.KeyHash = v
	}

	setToggleFromEnv("DEBUG", func(b bool) { c.Logging.Debug = b })
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	// standard OpenTelemetry names
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = strings.TrimSpace(v)
	}
	setToggleFromEnv("OTEL_EXPORTER_OTLP_INSECURE", func(b bool) { c.Tracing.Insecure = b })
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Tracing.ServiceName = strings.TrimSpace(v)
	}
	if v := firstNonEmpty(os.Getenv("TRACING_SAMPLE_RATIO"), os.Getenv("OTEL_TRACES_SAMPLER_ARG")); v != "" {
		if r, err := parseFloat(v); err == nil {
			c.Tracing.SampleRatio = r
		}
	}
}
