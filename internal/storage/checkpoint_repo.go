package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/annel0/wildlands/internal/vec"
)

// ErrNotFound контрольная точка для сущности не сохранена
var ErrNotFound = errors.New("storage: checkpoint not found")

// Checkpoint сохранённое состояние игрока
type Checkpoint struct {
	EntityID string    `json:"entity_id"`
	Position vec.Vec3  `json:"position"`
	Health   float64   `json:"health"`
	Stamina  float64   `json:"stamina"`
	SavedAt  time.Time `json:"saved_at"`
}

// Validate проверяет, что контрольную точку можно сохранить
func (c Checkpoint) Validate() error {
	if c.EntityID == "" {
		return errors.New("storage: пустой entity id")
	}
	for _, v := range []float64{c.Position.X, c.Position.Y, c.Position.Z, c.Health, c.Stamina} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("storage: некорректное значение в контрольной точке %s", c.EntityID)
		}
	}
	return nil
}

// CheckpointRepo определяет интерфейс для сохранения и загрузки контрольных точек.
// Ключ: ID сущности игрока.
type CheckpointRepo interface {
	// Save сохраняет (перезаписывает) контрольную точку
	Save(ctx context.Context, cp Checkpoint) error

	// Load загружает контрольную точку; ErrNotFound, если её нет
	Load(ctx context.Context, entityID string) (Checkpoint, error)

	// Delete удаляет контрольную точку; ErrNotFound, если её нет
	Delete(ctx context.Context, entityID string) error

	// Close освобождает ресурсы хранилища
	Close() error
}
