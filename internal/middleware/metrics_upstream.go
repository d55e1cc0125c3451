package middleware

import (
	"math"
	"time"

	"photo-architect/internal/monitoring"
)

// RecordUpstream records generation API duration and status classification.
func RecordUpstream(provider string, dur time.Duration, status int, networkErr bool) {
	cls := statusClass(status)
	if networkErr {
		cls = "network_error"
	}
	durSec := dur.Seconds()
	if math.IsNaN(durSec) || math.IsInf(durSec, 0) {
		durSec = 0
	}
	monitoring.UpstreamRequestsTotal.WithLabelValues(provider, cls).Inc()
	monitoring.UpstreamRequestDuration.WithLabelValues(provider).Observe(durSec)
}

// RecordUpstreamError increments upstream error by reason
func RecordUpstreamError(provider, reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.UpstreamErrors.WithLabelValues(provider, reason).Inc()
}

// RecordUpstreamModel increments per-model counters by provider/model/status class.
func RecordUpstreamModel(provider, model string, status int, networkErr bool) {
	if model == "" {
		model = "unknown"
	}
	cls := statusClass(status)
	if networkErr {
		cls = "network_error"
	}
	monitoring.UpstreamModelRequests.WithLabelValues(provider, model, cls).Inc()
}
