package logging

// ErrorKind labels a failed generation call for log fields. status is the
// upstream HTTP status, 0 when the request never got an answer.
func ErrorKind(status int, hasErr bool) string {
	if hasErr && status == 0 {
		return "network"
	}
	switch {
	case status == 429:
		return "rate_limited"
	case status == 401 || status == 403:
		return "auth"
	case status == 404:
		return "model_not_found"
	case status == 413:
		return "payload_too_large"
	case status >= 500 && status < 600:
		return "upstream_unavailable"
	case status >= 400 && status < 500:
		return "bad_request"
	}
	if hasErr {
		return "error"
	}
	return "ok"
}
