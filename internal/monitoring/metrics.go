package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_architect_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_architect_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// 上游 API 调用指标
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_upstream_requests_total",
			Help: "Total number of generation API requests",
		},
		[]string{"provider", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_architect_upstream_request_duration_seconds",
			Help:    "Generation API latency in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_upstream_errors_total",
			Help: "Total number of generation API errors by reason",
		},
		[]string{"provider", "reason"},
	)

	UpstreamModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_upstream_model_requests_total",
			Help: "Total number of generation API requests by model",
		},
		[]string{"provider", "model", "status_class"},
	)

	// 编辑结果
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_edits_total",
			Help: "Total number of finished edits by outcome",
		},
		[]string{"outcome"}, // success, no_image, service_error, discarded
	)

	EditDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_architect_edit_duration_seconds",
			Help:    "Wall time from submit to result",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	EditsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_architect_edits_inflight",
			Help: "Number of edits waiting on the generation API",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_uploads_total",
			Help: "Total number of image uploads by result",
		},
		[]string{"result"},
	)

	// 会话
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_architect_active_sessions",
			Help: "Number of live browser sessions",
		},
	)

	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_architect_sessions_expired_total",
			Help: "Total number of sessions removed by the idle sweeper",
		},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_architect_sse_clients",
			Help: "Number of connected event streams",
		},
	)

	SSEDisconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_sse_disconnects_total",
			Help: "Total number of event stream disconnects by reason",
		},
		[]string{"reason"},
	)

	AdminAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_architect_admin_access_total",
			Help: "Total number of admin access decisions",
		},
		[]string{"route", "result"},
	)

	RateLimitKeysGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_architect_ratelimit_keys",
			Help: "Current number of per-session rate limiters",
		},
	)

	RateLimitSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_architect_ratelimit_sweeps_total",
			Help: "Total number of rate limiter TTL cache sweeps",
		},
	)

	RateLimitRejectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_architect_ratelimit_rejects_total",
			Help: "Total number of edit submissions rejected by the rate limiter",
		},
	)
)
