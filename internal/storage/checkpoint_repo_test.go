package storage

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logging.Logger {
	return logging.NewConsoleLogger("storage", io.Discard, logging.ERROR)
}

func sampleCheckpoint(id string) Checkpoint {
	return Checkpoint{
		EntityID: id,
		Position: vec.Vec3{X: 12.5, Y: 3, Z: -7.25},
		Health:   64,
		Stamina:  31.5,
		SavedAt:  time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

// runRepoContract общий набор проверок для любой реализации CheckpointRepo
func runRepoContract(t *testing.T, repo CheckpointRepo) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		cp := sampleCheckpoint("player-1")
		require.NoError(t, repo.Save(ctx, cp))

		got, err := repo.Load(ctx, "player-1")
		require.NoError(t, err)
		assert.Equal(t, cp.Position, got.Position)
		assert.Equal(t, cp.Health, got.Health)
		assert.Equal(t, cp.Stamina, got.Stamina)
		assert.True(t, cp.SavedAt.Equal(got.SavedAt))
	})

	t.Run("Overwrite", func(t *testing.T) {
		cp := sampleCheckpoint("player-2")
		require.NoError(t, repo.Save(ctx, cp))
		cp.Health = 10
		require.NoError(t, repo.Save(ctx, cp))

		got, err := repo.Load(ctx, "player-2")
		require.NoError(t, err)
		assert.Equal(t, 10.0, got.Health)
	})

	t.Run("Load missing", func(t *testing.T) {
		_, err := repo.Load(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sampleCheckpoint("player-3")))
		require.NoError(t, repo.Delete(ctx, "player-3"))

		_, err := repo.Load(ctx, "player-3")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "player-3"), ErrNotFound)
	})

	t.Run("Invalid checkpoint", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, Checkpoint{}))

		bad := sampleCheckpoint("player-nan")
		bad.Position.Y = math.NaN()
		assert.Error(t, repo.Save(ctx, bad))
	})
}

func TestMemoryCheckpointRepo(t *testing.T) {
	repo := NewMemoryCheckpointRepo()
	runRepoContract(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, repo.Save(ctx, sampleCheckpoint("late")), context.Canceled)
}

func TestBadgerCheckpointRepo(t *testing.T) {
	repo, err := NewBadgerCheckpointRepo("")
	require.NoError(t, err)
	defer repo.Close()

	runRepoContract(t, repo)
}

func TestBadgerCheckpointRepo_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewBadgerCheckpointRepo(dir)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sampleCheckpoint("player-1")))
	require.NoError(t, repo.Close())

	reopened, err := NewBadgerCheckpointRepo(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, 64.0, got.Health)
}

func TestBadgerCheckpointRepo_ClosedRepo(t *testing.T) {
	repo, err := NewBadgerCheckpointRepo("")
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "повторное закрытие не ошибка")

	assert.Error(t, repo.Save(context.Background(), sampleCheckpoint("p")))
}

func TestRedisCheckpointRepo(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis недоступен: %v", err)
	}

	prefix := "wildlands:test:" + time.Now().Format("150405.000000") + ":"
	repo := NewRedisCheckpointRepoWithClient(client, prefix, time.Minute, quietLogger())
	defer repo.Close()

	runRepoContract(t, repo)

	ttl, err := client.TTL(context.Background(), prefix+"player-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, config.StorageConfig{}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCheckpointRepo{}, repo)

	repo, err = Open(ctx, config.StorageConfig{Backend: "badger", BadgerPath: t.TempDir()}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &BadgerCheckpointRepo{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open(ctx, config.StorageConfig{Backend: "floppy"}, quietLogger())
	assert.Error(t, err)
}
