package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"photo-architect/internal/constants"
	"photo-architect/internal/events"
	mw "photo-architect/internal/middleware"

	"github.com/gin-gonic/gin"
)

// sseWriteEvent writes an SSE event with the given name and JSON payload.
func sseWriteEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := w.Write([]byte("event: " + event + "\n")); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func sseWriteComment(w http.ResponseWriter, flusher http.Flusher, text string) error {
	if _, err := w.Write([]byte(": " + text + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

var keepAliveInterval = constants.SSEKeepAliveInterval

// events streams snapshots of the caller's session. Hub handlers only
// signal; the loop always sends the latest snapshot, so nothing queues up
// behind a slow client. An open stream keeps its session alive, and if the
// session was dropped and re-created under the same id the stream follows
// the new controller.
func (h *handler) events(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	ctrl := controllerFrom(c)
	sid := ctrl.ID()
	detach := ctrl.Attach()
	defer func() { detach() }()

	notify := make(chan struct{}, 1)
	unsubscribe := h.deps.Hub.Subscribe(events.TopicSessionUpdated, func(_ context.Context, e events.Event) {
		if e.Metadata[events.MetaSessionID] != sid {
			return
		}
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	mw.SSEOpened()
	reason := "client_closed"
	defer func() { mw.RecordSSEClose(reason) }()

	first := ctrl.Snapshot()
	if err := sseWriteEvent(w, flusher, "snapshot", first); err != nil {
		reason = "write_error"
		return
	}
	lastVersion := first.Version
	send := func() error {
		if cur, ok := h.deps.Sessions.Lookup(sid); ok && cur != ctrl {
			detach()
			ctrl = cur
			detach = ctrl.Attach()
		}
		snap := ctrl.Snapshot()
		if snap.Version <= lastVersion {
			return nil
		}
		lastVersion = snap.Version
		return sseWriteEvent(w, flusher, "snapshot", snap)
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-h.deps.BaseContext.Done():
			reason = "shutdown"
			return
		case <-notify:
			if err := send(); err != nil {
				reason = "write_error"
				return
			}
		case <-ticker.C:
			ctrl.Touch()
			if err := sseWriteComment(w, flusher, "keepalive"); err != nil {
				reason = "write_error"
				return
			}
		}
	}
}
