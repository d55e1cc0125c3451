package main

import (
	"context"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/usage"

	log "github.com/sirupsen/logrus"
)

const usageConnectTimeout = 5 * time.Second

type usageFlusher interface {
	Stop(ctx context.Context) error
}

// buildUsageStorage opens the configured usage backend. 存储后端不可用时降级为内存，
// 统计数据丢失不应阻止服务启动。
func buildUsageStorage(ctx context.Context, cfg config.UsageConfig) usage.Storage {
	connectCtx, cancel := context.WithTimeout(ctx, usageConnectTimeout)
	defer cancel()
	st, err := usage.NewStorage(connectCtx, cfg)
	if err == nil {
		return st
	}
	log.WithError(err).WithField("backend", cfg.Backend).Warn("usage backend unavailable; falling back to memory")
	return usage.NewMemoryStorage()
}

// stopUsage flushes the tracker and then releases its storage.
func stopUsage(ctx context.Context, tracker usageFlusher, st usage.Storage) {
	if err := tracker.Stop(ctx); err != nil {
		log.WithError(err).Warn("final usage flush failed")
	}
	if err := st.Close(); err != nil {
		log.WithError(err).Warn("failed to close usage storage")
	}
}
