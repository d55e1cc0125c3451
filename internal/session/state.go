// Package session holds the per-browser-session application controller and
// the manager mapping session cookies to controllers.
package session

import (
	"errors"
	"time"

	"photo-architect/internal/history"
	"photo-architect/internal/i18n"
)

// Status of a controller.
type Status string

const (
	StatusIdle Status = "idle"
	// StatusUploading exists for completeness; uploads are decoded under the
	// controller lock, so it is never observable.
	StatusUploading Status = "uploading"
	StatusEditing   Status = "editing"
	StatusError     Status = "error"
)

var (
	ErrEditInProgress = errors.New("an edit is already in progress")
	ErrNoImage        = errors.New("no image loaded")
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrPromptTooLong  = errors.New("prompt is too long")
)

// Snapshot is the read model pushed to the browser.
type Snapshot struct {
	SessionID      string          `json:"session_id"`
	Version        uint64          `json:"version"`
	Status         Status          `json:"status"`
	HasImage       bool            `json:"has_image"`
	EditPending    bool            `json:"edit_pending"`
	OriginalImage  string          `json:"original_image,omitempty"`
	CurrentImage   string          `json:"current_image,omitempty"`
	CurrentEntryID string          `json:"current_entry_id,omitempty"`
	PendingPrompt  string          `json:"pending_prompt"`
	LastError      string          `json:"last_error,omitempty"`
	Locale         i18n.Locale     `json:"locale"`
	History        []history.Entry `json:"history"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Download is the current image ready to be sent as an attachment.
type Download struct {
	Filename string
	MIMEType string
	Data     []byte
}
