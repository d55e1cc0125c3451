package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/constants"
	"photo-architect/internal/editor"
	"photo-architect/internal/events"
	"photo-architect/internal/i18n"
	mw "photo-architect/internal/middleware"

	log "github.com/sirupsen/logrus"
)

type ManagerOptions struct {
	Editor         editor.Editor
	Publisher      events.Publisher
	BaseContext    context.Context
	DownloadPrefix string
	IdleTTL        time.Duration
	SweepInterval  time.Duration
}

// ManagerOptionsFromConfig fills the session related options.
func ManagerOptionsFromConfig(cfg *config.Config, ed editor.Editor, pub events.Publisher, base context.Context) ManagerOptions {
	return ManagerOptions{
		Editor:         ed,
		Publisher:      pub,
		BaseContext:    base,
		DownloadPrefix: cfg.Server.DownloadPrefix,
		IdleTTL:        cfg.SessionIdleTTL(),
		SweepInterval:  cfg.SessionSweepInterval(),
	}
}

// Manager maps browser session ids to controllers. Nothing is persisted.
type Manager struct {
	opts ManagerOptions

	mu       sync.Mutex
	sessions map[string]*Controller
	versions atomic.Uint64

	inflight sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
	loopWG   sync.WaitGroup
}

func NewManager(opts ManagerOptions) *Manager {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = constants.SessionIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = constants.SessionSweepInterval
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Controller),
		stopCh:   make(chan struct{}),
	}
}

// Get returns the controller for id, creating one with locale when absent.
// Either way the session counts as active.
func (m *Manager) Get(id string, locale i18n.Locale) *Controller {
	m.mu.Lock()
	c, ok := m.sessions[id]
	if !ok {
		c = NewController(id, Options{
			Editor:         m.opts.Editor,
			Publisher:      m.opts.Publisher,
			BaseContext:    m.opts.BaseContext,
			Locale:         locale,
			DownloadPrefix: m.opts.DownloadPrefix,
			InFlight:       &m.inflight,
			Versions:       &m.versions,
		})
		m.sessions[id] = c
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		c.Touch()
	} else {
		mw.SetActiveSessions(n)
		log.WithField("session_id", id).Debug("session created")
	}
	return c
}

// Lookup never creates.
func (m *Manager) Lookup(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Drop forgets a session (page reload). An edit still in flight finishes
// into the dropped controller and is never seen again.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		mw.SetActiveSessions(n)
		log.WithField("session_id", id).Debug("session dropped")
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL with no edit in flight
// and no event stream attached.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	removed := 0
	for id, c := range m.sessions {
		idle, busy := c.idleSince(now)
		if busy || idle < m.opts.IdleTTL {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	n := len(m.sessions)
	m.mu.Unlock()

	mw.SetActiveSessions(n)
	mw.RecordSessionsExpired(removed)
	if removed > 0 {
		log.WithFields(log.Fields{"removed": removed, "active": n}).Info("expired idle sessions")
	}
	return removed
}

// Start runs the periodic sweeper until Stop.
func (m *Manager) Start() {
	m.loopWG.Add(1)
	go func() {
		defer m.loopWG.Done()
		ticker := time.NewTicker(m.opts.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case now := <-ticker.C:
				m.Sweep(now)
			}
		}
	}()
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.loopWG.Wait()
}

// Wait blocks until every edit started by any controller, dropped or not,
// has finished.
func (m *Manager) Wait() { m.inflight.Wait() }

// WaitTimeout is Wait bounded by ctx; it reports whether all edits finished.
func (m *Manager) WaitTimeout(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
