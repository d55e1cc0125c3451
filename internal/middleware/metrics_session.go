package middleware

import (
	"time"

	"photo-architect/internal/monitoring"
)

// RecordEdit counts a finished edit. outcome is one of success, no_image,
// service_error or discarded.
func RecordEdit(outcome string, dur time.Duration) {
	monitoring.EditsTotal.WithLabelValues(outcome).Inc()
	if outcome != "discarded" {
		monitoring.EditDuration.Observe(dur.Seconds())
	}
}

// EditStarted and EditFinished track edits waiting on the generation API.
func EditStarted()  { monitoring.EditsInFlight.Inc() }
func EditFinished() { monitoring.EditsInFlight.Dec() }

func RecordUpload(ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	monitoring.UploadsTotal.WithLabelValues(result).Inc()
}

func SetActiveSessions(n int) {
	monitoring.ActiveSessions.Set(float64(n))
}

func RecordSessionsExpired(n int) {
	if n > 0 {
		monitoring.SessionsExpiredTotal.Add(float64(n))
	}
}

// SSEOpened and RecordSSEClose track event stream clients.
func SSEOpened() { monitoring.SSEClients.Inc() }

func RecordSSEClose(reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.SSEClients.Dec()
	monitoring.SSEDisconnectsTotal.WithLabelValues(reason).Inc()
}

// RecordAdminAccess tracks allow/deny decisions for the admin guard.
func RecordAdminAccess(route, result string) {
	if route == "" {
		route = "/"
	}
	monitoring.AdminAccessTotal.WithLabelValues(route, result).Inc()
}
