package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/wildlands/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей (0: без срока)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "wildlands:checkpoint:",
		TTL:       7 * 24 * time.Hour,
	}
}

// RedisCheckpointRepo хранит контрольные точки в Redis в виде JSON
type RedisCheckpointRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       *logging.Logger
}

// NewRedisCheckpointRepo подключается к Redis и проверяет соединение
func NewRedisCheckpointRepo(ctx context.Context, cfg *RedisConfig, logger *logging.Logger) (*RedisCheckpointRepo, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("🔴 Connected to Redis at %s", cfg.Addr)
	return NewRedisCheckpointRepoWithClient(client, cfg.KeyPrefix, cfg.TTL, logger), nil
}

// NewRedisCheckpointRepoWithClient использует готовый клиент
func NewRedisCheckpointRepoWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *logging.Logger) *RedisCheckpointRepo {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisCheckpointRepo{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		log:       logger,
	}
}

func (r *RedisCheckpointRepo) key(entityID string) string {
	return r.keyPrefix + entityID
}

// Save сохраняет контрольную точку с TTL
func (r *RedisCheckpointRepo) Save(ctx context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := r.client.Set(ctx, r.key(cp.EntityID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	r.log.Debug("контрольная точка %s сохранена в Redis", cp.EntityID)
	return nil
}

// Load загружает контрольную точку
func (r *RedisCheckpointRepo) Load(ctx context.Context, entityID string) (Checkpoint, error) {
	data, err := r.client.Get(ctx, r.key(entityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, entityID)
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return cp, nil
}

// Delete удаляет контрольную точку
func (r *RedisCheckpointRepo) Delete(ctx context.Context, entityID string) error {
	n, err := r.client.Del(ctx, r.key(entityID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, entityID)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisCheckpointRepo) Close() error {
	return r.client.Close()
}
