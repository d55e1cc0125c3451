// Package history keeps the per-session log of produced images.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// RootID identifies the unedited upload.
	RootID = "root"
	// RootLabel is shown for the unedited upload.
	RootLabel = "Original"
)

var (
	ErrNotFound    = errors.New("history entry not found")
	ErrDuplicateID = errors.New("history entry id already used")
)

// Entry is immutable once stored.
type Entry struct {
	ID        string    `json:"id"`
	Image     string    `json:"image"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoot builds entry zero for a fresh upload.
func NewRoot(image string) Entry {
	return Entry{ID: RootID, Image: image, Label: RootLabel, CreatedAt: time.Now()}
}

// NewEntry builds an entry for an edit result with a random id.
func NewEntry(image, label string) Entry {
	return Entry{ID: uuid.NewString(), Image: image, Label: label, CreatedAt: time.Now()}
}

// Store is an append-only log, newest first. It is not an undo stack: the
// displayed entry is tracked by the caller.
type Store struct {
	mu      sync.RWMutex
	entries []Entry // newest first
	used    map[string]struct{}
}

func New() *Store {
	return &Store{used: make(map[string]struct{})}
}

// Seed resets the store to exactly one entry.
func (s *Store) Seed(root Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Entry{root}
	s.used = map[string]struct{}{root.ID: {}}
}

// Append inserts e at the front. Ids are never reused within one lineage.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.used[e.ID]; dup {
		return ErrDuplicateID
	}
	s.used[e.ID] = struct{}{}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries)
	s.entries[0] = e
	return nil
}

// Select looks an entry up without mutating the log.
func (s *Store) Select(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a newest-first copy.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Root returns the oldest entry, the unedited upload.
func (s *Store) Root() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Clear empties the store (new project).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.used = make(map[string]struct{})
}
