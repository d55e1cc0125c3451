package gemini

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"photo-architect/internal/upstream"
	"photo-architect/internal/version"
)

func userAgent() string {
	return fmt.Sprintf("photo-architect/%s (%s; %s) %s", version.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// applyDefaultHeaders centralizes default header logic
func (c *Client) applyDefaultHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("User-Agent", userAgent())
	gv := strings.TrimPrefix(runtime.Version(), "go")
	if gv == "" {
		gv = "unknown"
	}
	req.Header.Set("X-Goog-Api-Client", "gl-go/"+gv)
	if rid := upstream.RequestID(ctx); rid != "" {
		req.Header.Set("X-Client-Request-ID", rid)
	}
}
