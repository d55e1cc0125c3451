package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/events"
	"photo-architect/internal/logging"
	"photo-architect/internal/usage"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func adminRequest(t *testing.T, env *testEnv, path, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	return serve(env, req)
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := adminRequest(t, env, "/admin/usage", "Authorization", "Bearer anything")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Code)
}

func TestAdminAuth(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Admin.Key = "secret" })

	rec := adminRequest(t, env, "/admin/usage", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_admin_key", decodeError(t, rec).Error.Code)

	rec = adminRequest(t, env, "/admin/usage", "Authorization", "Bearer wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_admin_key", decodeError(t, rec).Error.Code)

	for _, tc := range []struct{ header, value, path string }{
		{"Authorization", "Bearer secret", "/admin/usage"},
		{"Authorization", "secret", "/admin/usage"},
		{"X-Admin-Key", "secret", "/admin/usage"},
		{"", "", "/admin/usage?key=secret"},
	} {
		rec = adminRequest(t, env, tc.path, tc.header, tc.value)
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", tc.header, tc.path)
	}
}

func TestAdminKeyHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	env := newTestEnv(t, func(c *config.Config) { c.Admin.KeyHash = string(hash) })

	assert.Equal(t, http.StatusOK, adminRequest(t, env, "/admin/usage", "X-Admin-Key", "hunter2").Code)
	assert.Equal(t, http.StatusUnauthorized, adminRequest(t, env, "/admin/usage", "X-Admin-Key", "hunter3").Code)
}

func TestAdminKeyFollowsReload(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "k"
	cfg.RateLimit.Enabled = false
	cfg.Admin.Key = "first"
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	env := newTestEnv(t, nil)
	engine := BuildEngine(cfg, Dependencies{
		Sessions:      env.sessions,
		Hub:           env.hub,
		CurrentConfig: current.Load,
	})
	get := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/usage", nil)
		req.Header.Set("X-Admin-Key", key)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, get("first"))

	next := *cfg
	next.Admin.Key = "second"
	current.Store(&next)
	assert.Equal(t, http.StatusUnauthorized, get("first"))
	assert.Equal(t, http.StatusOK, get("second"))
}

func TestAdminUsage(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Admin.Key = "secret" })
	env.newSession(t)
	env.newSession(t)
	env.hub.Publish(t.Context(), events.TopicEditFinished, events.EditOutcome{
		SessionID: "s", Outcome: events.OutcomeSuccess, Duration: 300 * time.Millisecond, At: time.Now(),
	}, nil)
	env.usage.Record(usage.Record{Outcome: events.OutcomeNoImage, Duration: 100 * time.Millisecond})

	rec := adminRequest(t, env, "/admin/usage", "X-Admin-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Version        string       `json:"version"`
		ActiveSessions int          `json:"active_sessions"`
		AvgEditMS      int64        `json:"avg_edit_ms"`
		Usage          *usage.Stats `json:"usage"`
	}
	decodeInto(t, rec, &out)
	assert.NotEmpty(t, out.Version)
	assert.Equal(t, 2, out.ActiveSessions)
	require.NotNil(t, out.Usage)
	assert.Equal(t, int64(2), out.Usage.Totals.Edits)
	assert.Equal(t, int64(1), out.Usage.Totals.Success)
	assert.Equal(t, int64(1), out.Usage.Totals.NoImage)
	assert.Equal(t, int64(200), out.AvgEditMS)
}

func TestAdminSlowCalls(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Admin.Key = "secret" })
	rec := adminRequest(t, env, "/admin/slow-calls?limit=5", "X-Admin-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stats"`)
	assert.Contains(t, rec.Body.String(), `"recent"`)
}

func TestAdminRecentLogs(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Admin.Key = "secret" })
	env.logs.BroadcastLog("info", "first line", nil)
	env.logs.BroadcastLog("warning", "second line", nil)

	rec := adminRequest(t, env, "/admin/logs/recent?limit=1", "X-Admin-Key", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items   []logging.LogMessage `json:"items"`
		Cursor  uint64               `json:"cursor"`
		HasMore bool                 `json:"has_more"`
	}
	decodeInto(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "second line", page.Items[0].Message)
	assert.False(t, page.HasMore)

	rec = adminRequest(t, env, "/admin/logs/recent?cursor=0&limit=10", "X-Admin-Key", "secret")
	decodeInto(t, rec, &page)
	assert.Len(t, page.Items, 2)
}

func TestAdminLogStream(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Admin.Key = "secret" })
	srv := httptest.NewServer(env.engine)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/logs?key=secret"
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return env.logs.GetConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	env.logs.BroadcastLog("info", "streamed", map[string]interface{}{"session_id": "abc"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg logging.LogMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "streamed", msg.Message)
	assert.Equal(t, "abc", msg.Fields["session_id"])
}

func TestAdminLogStreamRejectsForeignOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://photos.example/admin/logs", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, sameHostOrigin(req))

	req.Header.Set("Origin", "http://photos.example")
	assert.True(t, sameHostOrigin(req))

	req.Header.Del("Origin")
	assert.True(t, sameHostOrigin(req))
}
