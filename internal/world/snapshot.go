package world

import (
	"github.com/annel0/wildlands/internal/vec"
	"github.com/annel0/wildlands/internal/world/entity"
)

// EntitySnapshot неизменяемая копия состояния сущности для читателей вне игрового цикла
type EntitySnapshot struct {
	ID        string      `json:"id"`
	Kind      entity.Kind `json:"kind"`
	Position  vec.Vec3    `json:"position"`
	Velocity  vec.Vec3    `json:"velocity"`
	Yaw       float64     `json:"yaw"`
	Health    float64     `json:"health"`
	MaxHealth float64     `json:"max_health"`
	Dead      bool        `json:"dead"`

	// Животные
	Species string `json:"species,omitempty"`
	State   string `json:"state,omitempty"`
	Hostile bool   `json:"hostile,omitempty"`

	// NPC
	Name     string `json:"name,omitempty"`
	Dialogue string `json:"dialogue,omitempty"`
	QuestID  string `json:"quest_id,omitempty"`

	// Игрок
	Stamina   float64 `json:"stamina,omitempty"`
	Grounded  bool    `json:"grounded,omitempty"`
	Exhausted bool    `json:"exhausted,omitempty"`
}

// Snapshot состояние мира после кадра
type Snapshot struct {
	Frame    uint64           `json:"frame"`
	Time     float64          `json:"time"`
	Entities []EntitySnapshot `json:"entities"`
}

// Find ищет сущность в снимке по ID
func (s *Snapshot) Find(id string) (EntitySnapshot, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return EntitySnapshot{}, false
}

// Snapshot возвращает последний опубликованный снимок.
// Безопасно вызывать из любых горутин; снимок нельзя изменять.
func (s *Simulation) Snapshot() *Snapshot {
	return s.snapshot.Load().(*Snapshot)
}

// publishLocked собирает и публикует снимок; вызывается под s.mu
func (s *Simulation) publishLocked() {
	all := s.manager.All()
	snap := &Snapshot{
		Frame:    s.frame,
		Time:     s.now,
		Entities: make([]EntitySnapshot, 0, len(all)+1),
	}

	if s.player != nil {
		snap.Entities = append(snap.Entities, snapshotOf(s.player))
	}
	for _, e := range all {
		snap.Entities = append(snap.Entities, snapshotOf(e))
	}

	s.snapshot.Store(snap)
}

func snapshotOf(e entity.Entity) EntitySnapshot {
	es := EntitySnapshot{
		ID:        e.ID(),
		Kind:      e.Kind(),
		Position:  e.Position(),
		Velocity:  e.Velocity(),
		Yaw:       e.Rotation().Yaw(),
		Health:    e.Health(),
		MaxHealth: e.MaxHealth(),
		Dead:      e.IsDead(),
	}

	switch v := e.(type) {
	case *entity.Player:
		es.Stamina = v.Stamina()
		es.Grounded = v.IsGrounded()
		es.Exhausted = v.IsExhausted()
	case *entity.Animal:
		es.Species = v.Species()
		es.State = v.State().String()
		es.Hostile = v.IsHostile()
	case *entity.NPC:
		es.Name = v.Name()
		es.Dialogue = v.Dialogue().String()
		es.QuestID = v.QuestID()
	}
	return es
}
