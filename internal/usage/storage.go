package usage

import (
	"context"
	"fmt"
	"sync"

	"photo-architect/internal/config"
)

// Storage persists counters. Add must be additive so several processes can
// share one backend.
type Storage interface {
	Load(ctx context.Context) (*Stats, error)
	Add(ctx context.Context, delta *Stats) error
	Close() error
}

// MemoryStorage keeps counters for the lifetime of the process.
type MemoryStorage struct {
	mu    sync.Mutex
	stats *Stats
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{stats: NewStats()}
}

func (m *MemoryStorage) Load(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.Clone(), nil
}

func (m *MemoryStorage) Add(ctx context.Context, delta *Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Merge(delta)
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

// NewStorage selects the backend named by usage.backend.
func NewStorage(ctx context.Context, cfg config.UsageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "redis":
		rs := NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	}
	return nil, fmt.Errorf("unknown usage backend %q", cfg.Backend)
}
