package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCheckpointRepo реализует CheckpointRepo в памяти.
// Используется, когда внешнее хранилище не настроено, и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryCheckpointRepo struct {
	mu   sync.RWMutex
	data map[string]Checkpoint
}

// NewMemoryCheckpointRepo создает новый репозиторий в памяти
func NewMemoryCheckpointRepo() *MemoryCheckpointRepo {
	return &MemoryCheckpointRepo{
		data: make(map[string]Checkpoint),
	}
}

// Save сохраняет контрольную точку в памяти
func (r *MemoryCheckpointRepo) Save(ctx context.Context, cp Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[cp.EntityID] = cp
	return nil
}

// Load загружает контрольную точку из памяти
func (r *MemoryCheckpointRepo) Load(ctx context.Context, entityID string) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, ok := r.data[entityID]
	if !ok {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, entityID)
	}
	return cp, nil
}

// Delete удаляет контрольную точку из памяти
func (r *MemoryCheckpointRepo) Delete(ctx context.Context, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[entityID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, entityID)
	}
	delete(r.data, entityID)
	return nil
}

// Count возвращает количество сохранённых точек (для отладки)
func (r *MemoryCheckpointRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close ничего не делает
func (r *MemoryCheckpointRepo) Close() error { return nil }
