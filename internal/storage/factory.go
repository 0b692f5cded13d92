package storage

import (
	"context"
	"fmt"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/logging"
)

// Open создаёт репозиторий контрольных точек по конфигурации.
// Пустой backend означает хранение в памяти.
func Open(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (CheckpointRepo, error) {
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.Backend {
	case "", "memory":
		logger.Warn("⚠️ Контрольные точки хранятся в памяти и будут потеряны при перезапуске")
		return NewMemoryCheckpointRepo(), nil
	case "badger":
		repo, err := NewBadgerCheckpointRepo(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		logger.Info("💾 BadgerDB открыта: %s", cfg.BadgerPath)
		return repo, nil
	case "redis":
		rc := DefaultRedisConfig()
		if cfg.RedisAddr != "" {
			rc.Addr = cfg.RedisAddr
		}
		rc.DB = cfg.RedisDB
		if cfg.KeyPrefix != "" {
			rc.KeyPrefix = cfg.KeyPrefix
		}
		repo, err := NewRedisCheckpointRepo(ctx, rc, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("неизвестное хранилище: %q", cfg.Backend)
	}
}
