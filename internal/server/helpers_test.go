package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"photo-architect/internal/config"
	"photo-architect/internal/events"
	"photo-architect/internal/imagecodec"
	"photo-architect/internal/logging"
	"photo-architect/internal/monitoring"
	"photo-architect/internal/session"
	"photo-architect/internal/usage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubEditor returns a fixed image; when gate is set each call waits for it.
type stubEditor struct {
	mu     sync.Mutex
	calls  int
	prompt []string
	gate   chan struct{}
	result string
	err    error
}

func (s *stubEditor) EditImage(ctx context.Context, _ string, instruction string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.prompt = append(s.prompt, instruction)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func (s *stubEditor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testEnv struct {
	cfg      *config.Config
	engine   *gin.Engine
	sessions *session.Manager
	hub      *events.Hub
	usage    *usage.Tracker
	editor   *stubEditor
	logs     *logging.WebSocketLogger
	cancel   context.CancelFunc
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Gemini.APIKey = "test-key"
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub()
	ed := &stubEditor{result: imagecodec.EncodeDataURL("image/png", base64.StdEncoding.EncodeToString(testPNG(t)))}
	sessions := session.NewManager(session.ManagerOptionsFromConfig(cfg, ed, hub, ctx))
	tracker := usage.NewTracker(nil)
	unsubscribe := tracker.Subscribe(hub)
	logs := logging.NewWebSocketLogger(50, 2)
	logs.Start()

	env := &testEnv{
		cfg:      cfg,
		sessions: sessions,
		hub:      hub,
		usage:    tracker,
		editor:   ed,
		logs:     logs,
		cancel:   cancel,
	}
	env.engine = BuildEngine(cfg, Dependencies{
		Sessions:    sessions,
		Hub:         hub,
		Usage:       tracker,
		SlowCalls:   monitoring.NewSlowCallLog(0, 10),
		LogViewer:   logs,
		BaseContext: ctx,
	})
	t.Cleanup(func() {
		cancel()
		sessions.Wait()
		unsubscribe()
		logs.Stop()
	})
	return env
}

// request runs one request against the engine, attaching cookie when set.
func (e *testEnv) request(t *testing.T, method, path string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) jsonRequest(t *testing.T, method, path string, payload any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return e.request(t, method, path, body, "application/json", cookie)
}

// newSession opens a session and returns its cookie.
func (e *testEnv) newSession(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.request(t, http.MethodGet, "/api/session", nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return sessionCookieFrom(t, rec, e.cfg.Session.CookieName)
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("response did not set cookie %q", name)
	return nil
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}

type errorBody struct {
	Error struct {
		Message string         `json:"message"`
		Type    string         `json:"type"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func httptestRequestWithHeader(method, path, key, value string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(key, value)
	return req
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
