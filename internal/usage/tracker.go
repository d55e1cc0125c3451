package usage

import (
	"context"
	"sync"
	"time"

	"photo-architect/internal/events"

	log "github.com/sirupsen/logrus"
)

// Tracker counts edit outcomes and flushes deltas to storage periodically.
type Tracker struct {
	mu      sync.Mutex
	stats   *Stats // persisted plus unflushed
	pending *Stats // not yet flushed
	storage Storage

	persistInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

func NewTracker(storage Storage) *Tracker {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Tracker{
		stats:           NewStats(),
		pending:         NewStats(),
		storage:         storage,
		persistInterval: 30 * time.Second,
		stopCh:          make(chan struct{}),
	}
}

// Start loads persisted counters and starts the flush worker.
func (t *Tracker) Start(ctx context.Context) {
	if loaded, err := t.storage.Load(ctx); err != nil {
		log.WithError(err).Warn("Failed to load usage statistics, starting fresh")
	} else {
		t.mu.Lock()
		loaded.Merge(t.pending)
		t.stats = loaded
		t.mu.Unlock()
	}
	t.wg.Add(1)
	go t.persistWorker(ctx)
	log.Info("Usage tracker started")
}

// Stop flushes what is left. Safe to call more than once.
func (t *Tracker) Stop(ctx context.Context) error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
	if err := t.Flush(ctx); err != nil {
		log.WithError(err).Error("Failed to save final usage statistics")
		return err
	}
	return nil
}

func (t *Tracker) Record(r Record) {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.apply(r)
	t.pending.apply(r)
}

// Subscribe records every edit.finished event.
func (t *Tracker) Subscribe(sub events.Subscriber) func() {
	return sub.Subscribe(events.TopicEditFinished, func(_ context.Context, e events.Event) {
		out, ok := e.Payload.(events.EditOutcome)
		if !ok {
			return
		}
		t.Record(Record{At: out.At, Outcome: out.Outcome, Duration: out.Duration})
	})
}

// Flush writes the pending delta. On failure the delta is kept for the next try.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	delta := t.pending
	t.pending = NewStats()
	t.mu.Unlock()
	if delta.empty() {
		return nil
	}
	if err := t.storage.Add(ctx, delta); err != nil {
		t.mu.Lock()
		t.pending.Merge(delta)
		t.mu.Unlock()
		return err
	}
	return nil
}

// GetStats returns a deep copy.
func (t *Tracker) GetStats() *Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Clone()
}

func (t *Tracker) persistWorker(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := t.Flush(ctx); err != nil {
				log.WithError(err).Error("Failed to persist usage statistics")
			}
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
