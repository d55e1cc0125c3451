package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	apperrors "photo-architect/internal/errors"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "API_KEY", "GOOGLE_API_KEY", "PORT", "GEMINI_MODEL",
		"GEMINI_TRANSPORT", "EDIT_TIMEOUT_SEC", "USAGE_BACKEND", "REDIS_ADDR", "DEBUG", "LOG_FILE",
		"LOG_LEVEL", "LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "TRACING_SAMPLE_RATIO", "OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAMLFillsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
gemini:
  api_key: file-key
  model: gemini-custom
editor:
  timeout_sec: 30
`)
	cm, err := Load(path)
	require.NoError(t, err)
	defer cm.Close()

	cfg := cm.GetConfig()
	require.Equal(t, "file-key", cfg.Gemini.APIKey)
	require.Equal(t, "gemini-custom", cfg.Gemini.Model)
	require.Equal(t, DefaultEndpoint, cfg.Gemini.Endpoint)
	require.Equal(t, DefaultPort, cfg.Server.Port)
	require.Equal(t, 30*time.Second, cfg.EditTimeout())
	require.Equal(t, DefaultCookieName, cfg.Session.CookieName)
	require.False(t, cfg.UseSDK())
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{"gemini":{"api_key":"k","transport":"sdk"},"server":{"port":9000}}`)
	cm, err := Load(path)
	require.NoError(t, err)
	defer cm.Close()
	cfg := cm.GetConfig()
	require.Equal(t, 9000, cfg.Server.Port)
	require.True(t, cfg.UseSDK())
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddr())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "gemini:\n  api_key: file-key\n")
	t.Setenv("API_KEY", "env-key")
	t.Setenv("PORT", "9090")
	t.Setenv("EDIT_TIMEOUT_SEC", "45")
	t.Setenv("DEBUG", "true")

	cm, err := Load(path)
	require.NoError(t, err)
	defer cm.Close()
	cfg := cm.GetConfig()
	require.Equal(t, "env-key", cfg.Gemini.APIKey)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 45*time.Second, cfg.EditTimeout())
	require.True(t, cfg.Logging.Debug)
}

func TestTracingFromFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
gemini:
  api_key: k
tracing:
  endpoint: collector:4317
  sample_ratio: 0.5
`)
	cm, err := Load(path)
	require.NoError(t, err)
	cfg := cm.GetConfig()
	cm.Close()
	require.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	require.Equal(t, 0.5, cfg.Tracing.SampleRatio)
	require.Equal(t, DefaultServiceName, cfg.Tracing.ServiceName)
	require.False(t, cfg.Tracing.Insecure)

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_SERVICE_NAME", "pa-staging")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	cm, err = Load(path)
	require.NoError(t, err)
	defer cm.Close()
	cfg = cm.GetConfig()
	require.Equal(t, "otel:4317", cfg.Tracing.Endpoint)
	require.True(t, cfg.Tracing.Insecure)
	require.Equal(t, "pa-staging", cfg.Tracing.ServiceName)
	require.Equal(t, 0.25, cfg.Tracing.SampleRatio)
}

func TestGeminiKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")
	cfg := Default()
	applyEnv(cfg)
	require.Equal(t, "gemini", cfg.Gemini.APIKey)
}

func TestMissingAPIKeyIsFatal(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "server:\n  port: 8081\n")
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *apperrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "gemini.api_key", cfgErr.Field)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "k"
	require.True(t, cfg.Validate().Valid)

	cfg.Gemini.Transport = "grpc"
	cfg.Usage.Backend = "redis"
	cfg.Logging.Format = "xml"
	cfg.Tracing.SampleRatio = 2
	res := cfg.Validate()
	require.False(t, res.Valid)
	fields := map[string]bool{}
	for _, e := range res.Errors {
		fields[e.Field] = true
	}
	require.True(t, fields["gemini.transport"])
	require.True(t, fields["usage.redis_addr"])
	require.True(t, fields["logging.format"])
	require.True(t, fields["tracing.sample_ratio"])
}

func TestInvalidFileIsAnError(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", "{not json")
	_, err := NewConfigManager(path)
	require.Error(t, err)
}

func TestReloadNotifiesListeners(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "gemini:\n  api_key: k\nlogging:\n  debug: false\n")
	cm, err := Load(path)
	require.NoError(t, err)
	defer cm.Close()

	var calls atomic.Int32
	var sawDebug atomic.Bool
	cm.OnChange(func(c *Config) {
		calls.Add(1)
		sawDebug.Store(c.Logging.Debug)
	})

	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  api_key: k\nlogging:\n  debug: true\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
	cm.checkAndReload()

	require.GreaterOrEqual(t, calls.Load(), int32(1))
	require.True(t, sawDebug.Load())
	require.True(t, cm.GetConfig().Logging.Debug)
}

func TestReloadKeepsPreviousOnInvalid(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "gemini:\n  api_key: k\n")
	cm, err := Load(path)
	require.NoError(t, err)
	defer cm.Close()

	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  transport: carrier-pigeon\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
	cm.checkAndReload()

	cfg := cm.GetConfig()
	require.Equal(t, "k", cfg.Gemini.APIKey)
	require.Equal(t, DefaultTransport, cfg.Gemini.Transport)
}

func TestCheckAdminKeyPlain(t *testing.T) {
	cfg := &Config{Admin: AdminConfig{Key: "secret"}}
	if !CheckAdminKey(cfg, "secret") {
		t.Fatalf("expected plain key to validate")
	}
	if CheckAdminKey(cfg, "other") {
		t.Fatalf("unexpected match for wrong key")
	}
}

func TestCheckAdminKeyHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cfg := &Config{Admin: AdminConfig{KeyHash: string(hash)}}
	validate := AdminKeyValidator(func() *Config { return cfg })
	if !validate("secret") {
		t.Fatalf("expected hashed key to validate")
	}
	if validate("other") || validate("") {
		t.Fatalf("unexpected hash match for wrong key")
	}
}
