package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/abgdnv/catalogdesk/pkg/bootstrap"
	"github.com/abgdnv/catalogdesk/pkg/config"
)

// NewSlot opens the durable slot selected by cfg.Driver. The returned close
// function releases its connections and is never nil.
func NewSlot(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Slot, func(), error) {
	noop := func() {}
	var (
		slot    store.Slot
		closeFn = noop
	)

	switch cfg.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage, products are lost on restart")
		return store.NewMemorySlot(), noop, nil

	case config.StorageDriverFile:
		fileSlot, err := store.NewFileSlot(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using file storage", "dir", cfg.Dir)
		return fileSlot, noop, nil

	case config.StorageDriverRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create redis client: %w", err)
		}
		logger.Info("Using redis storage", "url", config.MaskURL(cfg.Redis.URL))
		slot = store.NewRedisSlot(client)
		closeFn = func() { _ = client.Close() }

	case config.StorageDriverPostgres:
		if err := store.Migrate(cfg.Database.URL); err != nil {
			return nil, noop, fmt.Errorf("failed to migrate database: %w", err)
		}
		pool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using postgres storage", "url", config.MaskURL(cfg.Database.URL))
		slot = store.NewPgSlot(pool)
		closeFn = pool.Close

	default:
		return nil, noop, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}

	if cfg.Breaker.Enabled {
		logger.Info("Storage circuit breaker enabled", "consecutive_failures", cfg.Breaker.ConsecutiveFailures, "open_timeout", cfg.Breaker.OpenTimeout)
		slot = store.NewBreakerSlot(slot, cfg.Breaker)
	}
	return slot, closeFn, nil
}
