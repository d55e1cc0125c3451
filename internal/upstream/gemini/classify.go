package gemini

import (
	"errors"
	"net/url"
	"strings"
)

// classifyErr buckets transport errors for the upstream error counter.
func classifyErr(err error) string {
	if err == nil {
		return ""
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "timeout"
		}
		if ue.Err != nil {
			s := ue.Err.Error()
			if strings.Contains(s, "no such host") {
				return "dns"
			}
			if strings.Contains(s, "connection reset") {
				return "conn_reset"
			}
			if strings.Contains(s, "connection refused") {
				return "conn_refused"
			}
		}
	}
	s := err.Error()
	switch {
	case strings.Contains(s, "deadline exceeded"):
		return "deadline"
	case strings.Contains(s, "context canceled"):
		return "canceled"
	case strings.Contains(s, "no such host"):
		return "dns"
	case strings.Contains(s, "connection reset"):
		return "conn_reset"
	case strings.Contains(s, "connection refused"):
		return "conn_refused"
	case strings.Contains(s, "timeout"):
		return "timeout"
	}
	return "other"
}
