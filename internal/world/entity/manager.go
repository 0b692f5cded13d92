package entity

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/vec"
)

var (
	// ErrDuplicateID сущность с таким ID уже зарегистрирована
	ErrDuplicateID = errors.New("entity: duplicate id")
	// ErrPlayerNotManaged игрок обновляется отдельно от автономных сущностей
	ErrPlayerNotManaged = errors.New("entity: player is not managed by the entity manager")
)

// UpdateFailure ошибка обновления одной сущности
type UpdateFailure struct {
	ID  string
	Err error
}

// UpdateReport итог прохода UpdateAll
type UpdateReport struct {
	Updated  int
	Failures []UpdateFailure
}

// Stats статистика менеджера
type Stats struct {
	Total  int          `json:"total"`
	Alive  int          `json:"alive"`
	Dead   int          `json:"dead"`
	ByKind map[Kind]int `json:"by_kind"`
}

// Manager реестр автономных сущностей (животные, NPC) в порядке добавления.
// Сами сущности из реестра себя не удаляют: это делает владелец через Remove или Reap.
type Manager struct {
	entities map[string]Entity
	order    []string
	log      *logging.Logger
	mu       sync.RWMutex
}

// NewManager создаёт пустой менеджер
func NewManager(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		entities: make(map[string]Entity),
		log:      logger,
	}
}

// Add регистрирует сущность
func (m *Manager) Add(e Entity) error {
	if e == nil {
		return errors.New("entity: nil entity")
	}
	if e.Kind() == KindPlayer {
		return ErrPlayerNotManaged
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entities[e.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID())
	}
	m.entities[e.ID()] = e
	m.order = append(m.order, e.ID())
	return nil
}

// Remove удаляет сущность и снимает все её отложенные события
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

func (m *Manager) removeLocked(id string) bool {
	e, exists := m.entities[id]
	if !exists {
		return false
	}
	e.base().events.Clear()
	delete(m.entities, id)

	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Get возвращает сущность по ID
func (m *Manager) Get(id string) (Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	return e, ok
}

// Len количество сущностей
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// All возвращает сущности в порядке добавления
func (m *Manager) All() []Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entities[id])
	}
	return out
}

// InRange возвращает живые сущности в радиусе от точки
func (m *Manager) InRange(center vec.Vec3, radius float64) []Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Entity
	for _, id := range m.order {
		e := m.entities[id]
		if !e.IsDead() && e.Position().DistanceSqTo(center) <= radius*radius {
			result = append(result, e)
		}
	}
	return result
}

// Colliders возвращает сущности как динамические коллайдеры.
// Фильтрация мёртвых и неколлизионных выполняется резолвером.
func (m *Manager) Colliders() []physics.Collider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]physics.Collider, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, physics.DynamicCollider(m.entities[id]))
	}
	return out
}

// UpdateAll обновляет все сущности. Паника одной сущности перехватывается,
// записывается в отчёт и не останавливает обработку остальных.
func (m *Manager) UpdateAll(f *Frame) UpdateReport {
	var report UpdateReport
	for _, e := range m.All() {
		if err := m.updateOne(e, f); err != nil {
			report.Failures = append(report.Failures, UpdateFailure{ID: e.ID(), Err: err})
			continue
		}
		report.Updated++
	}
	return report
}

func (m *Manager) updateOne(e Entity, f *Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s update: %v", e.ID(), r)
			m.log.Error("❌ %v\n%s", err, debug.Stack())
		}
	}()
	e.Update(f)
	return nil
}

// Reap удаляет трупы, пролежавшие не меньше delay секунд. Возвращает удалённые ID.
func (m *Manager) Reap(now, delay float64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var reaped []string
	for _, id := range append([]string(nil), m.order...) {
		e := m.entities[id]
		if !e.IsDead() || now-e.base().diedAt < delay {
			continue
		}
		m.removeLocked(id)
		reaped = append(reaped, id)
	}

	if len(reaped) > 0 {
		sort.Strings(reaped)
		m.log.Debug("удалено трупов: %d", len(reaped))
	}
	return reaped
}

// Stats возвращает статистику по сущностям
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{ByKind: make(map[Kind]int)}
	for _, e := range m.entities {
		stats.Total++
		if e.IsDead() {
			stats.Dead++
		} else {
			stats.Alive++
		}
		stats.ByKind[e.Kind()]++
	}
	return stats
}
