package entity

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/vec"
)

// Kind вариант сущности
type Kind uint8

const (
	KindPlayer Kind = iota + 1 // Игрок
	KindAnimal                 // Животное с поведением
	KindNPC                    // Неигровой персонаж (не двигается)
)

// String возвращает имя варианта
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAnimal:
		return "animal"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// MarshalText позволяет использовать Kind как ключ JSON
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText разбирает имя варианта
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player":
		*k = KindPlayer
	case "animal":
		*k = KindAnimal
	case "npc":
		*k = KindNPC
	default:
		return fmt.Errorf("entity: unknown kind %q", b)
	}
	return nil
}

var (
	// ErrEmptyID сущность без идентификатора
	ErrEmptyID = errors.New("entity: empty id")
	// ErrInvalidSize размер бокса не положительный или не конечный
	ErrInvalidSize = errors.New("entity: invalid size")
	// ErrInvalidHealth максимальное здоровье не положительное
	ErrInvalidHealth = errors.New("entity: invalid max health")
	// ErrUnknownSpecies вид животного не найден в конфигурации
	ErrUnknownSpecies = errors.New("entity: unknown species")
)

// Entity общий контракт сущностей мира.
// Реализуется только *Animal, *Player и *NPC.
type Entity interface {
	ID() string
	Kind() Kind
	Position() vec.Vec3
	SetPosition(vec.Vec3)
	Rotation() vec.Quat
	SetRotation(vec.Quat)
	Velocity() vec.Vec3
	Health() float64
	MaxHealth() float64
	IsDead() bool
	BoundingBox() (physics.AABB, bool)
	IsCollidable() bool
	IsInteractable() bool

	// Update продвигает сущность на один кадр
	Update(f *Frame)

	base() *Base
	onDamage(amount float64)
	onDeath()
}

// Deps внешние зависимости сущности, передаваемые при создании
type Deps struct {
	Log     *logging.Logger
	Sink    EventSink
	Rand    *rand.Rand
	Ground  physics.GroundProbe
	Bounds  physics.Bounds // Нулевые границы: мир без границ
	Margin  float64        // Отступ от границ для целей блуждания
	Physics config.PhysicsConfig
}

// withDefaults заполняет незаданные зависимости безопасными значениями
func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logging.Default()
	}
	if d.Sink == nil {
		d.Sink = NopSink{}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d.Ground = physics.ProbeOrDefault(d.Ground)
	if d.Physics.Gravity == 0 {
		d.Physics = config.Default().Physics
	}
	return d
}

// Base общие данные сущности.
// Позиция: точка основания; бокс пересчитывается при каждом SetPosition.
type Base struct {
	id   string
	kind Kind

	position vec.Vec3
	rotation vec.Quat
	velocity vec.Vec3
	size     vec.Vec3
	box      physics.AABB

	health    float64
	maxHealth float64
	dead      bool
	diedAt    float64

	collidable   bool
	interactable bool

	clock  float64 // Время последнего кадра сущности
	events Scheduler
	deps   Deps
}

// NewBase проверяет параметры и создаёт общую часть сущности
func NewBase(id string, kind Kind, position, size vec.Vec3, maxHealth float64, deps Deps) (*Base, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if !size.IsFinite() || size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("%w: %s has size %+v", ErrInvalidSize, id, size)
	}
	if math.IsNaN(maxHealth) || maxHealth <= 0 {
		return nil, fmt.Errorf("%w: %s has max health %v", ErrInvalidHealth, id, maxHealth)
	}
	if !position.IsFinite() {
		return nil, fmt.Errorf("entity: %s has non-finite position %+v", id, position)
	}

	b := &Base{
		id:           id,
		kind:         kind,
		rotation:     vec.Identity(),
		size:         size,
		health:       maxHealth,
		maxHealth:    maxHealth,
		collidable:   true,
		interactable: true,
		deps:         deps.withDefaults(),
	}
	b.SetPosition(position)
	return b, nil
}

func sizeFrom(s [3]float64) vec.Vec3 {
	return vec.Vec3{X: s[0], Y: s[1], Z: s[2]}
}

func (b *Base) base() *Base { return b }

// ID возвращает идентификатор
func (b *Base) ID() string { return b.id }

// Kind возвращает вариант сущности
func (b *Base) Kind() Kind { return b.kind }

// Position возвращает позицию основания
func (b *Base) Position() vec.Vec3 { return b.position }

// SetPosition перемещает сущность и пересчитывает бокс
func (b *Base) SetPosition(p vec.Vec3) {
	b.position = p
	b.box = physics.FromBase(p, b.size)
}

// Rotation возвращает ориентацию
func (b *Base) Rotation() vec.Quat { return b.rotation }

// SetRotation задаёт ориентацию
func (b *Base) SetRotation(q vec.Quat) { b.rotation = q.Normalized() }

// Velocity возвращает скорость (м/с)
func (b *Base) Velocity() vec.Vec3 { return b.velocity }

// SetVelocity задаёт скорость
func (b *Base) SetVelocity(v vec.Vec3) { b.velocity = v }

// Size возвращает закешированный размер бокса
func (b *Base) Size() vec.Vec3 { return b.size }

func (b *Base) Health() float64 { return b.health }
func (b *Base) MaxHealth() float64 { return b.maxHealth }
func (b *Base) IsDead() bool { return b.dead }

// DiedAt время смерти по часам сущности
func (b *Base) DiedAt() float64 { return b.diedAt }

// BoundingBox возвращает бокс; ok == false, если бокс непригоден
func (b *Base) BoundingBox() (physics.AABB, bool) {
	return b.box, !b.box.IsEmpty()
}

func (b *Base) IsCollidable() bool { return b.collidable }
func (b *Base) IsInteractable() bool { return b.interactable }

// Clock время последнего обработанного кадра
func (b *Base) Clock() float64 { return b.clock }

// Events очередь отложенных событий сущности
func (b *Base) Events() *Scheduler { return &b.events }

// advance переводит часы сущности и выполняет наступившие отложенные события
func (b *Base) advance(now float64) {
	if now > b.clock {
		b.clock = now
	}
	b.events.RunDue(b.clock)
}

// after ставит событие через delay секунд от текущих часов сущности
func (b *Base) after(delay float64, name string, fn func()) {
	b.events.Schedule(b.clock+delay, name, fn)
}

// horizontalSpeed длина горизонтальной скорости
func (b *Base) horizontalSpeed() float64 {
	return b.velocity.Horizontal().Length()
}

// TakeDamage наносит урон сущности.
// Отрицательный или нечисловой урон отклоняется с предупреждением; по мёртвой сущности: no-op.
// Возвращает true, если урон применён.
func TakeDamage(e Entity, amount float64) bool {
	b := e.base()
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		b.deps.Log.Warn("⚠️ %s: отклонён некорректный урон %v", b.id, amount)
		return false
	}
	if b.dead || amount == 0 {
		return false
	}

	b.health -= amount
	if b.health <= 0 {
		b.health = 0
		Die(e)
		return true
	}

	e.onDamage(amount)
	return true
}

// Die переводит сущность в мёртвое состояние. Повторные вызовы ничего не делают.
// Возвращает true, если сущность умерла именно в этом вызове.
func Die(e Entity) bool {
	b := e.base()
	if b.dead {
		return false
	}

	b.dead = true
	b.health = 0
	b.diedAt = b.clock
	b.velocity = vec.Vec3{}
	b.collidable = false
	b.interactable = false

	e.onDeath()
	b.deps.Log.Debug("%s %s погиб", b.kind, b.id)
	return true
}

// Heal восстанавливает здоровье, не превышая максимум. Мёртвых не лечит.
func Heal(e Entity, amount float64) bool {
	b := e.base()
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		b.deps.Log.Warn("⚠️ %s: отклонено некорректное лечение %v", b.id, amount)
		return false
	}
	if b.dead || amount == 0 {
		return false
	}
	b.health = math.Min(b.maxHealth, b.health+amount)
	return true
}

// RestoreHealth выставляет здоровье из контрольной точки.
// Значение ограничивается диапазоном [0, max]; ноль убивает сущность.
func RestoreHealth(e Entity, health float64) {
	b := e.base()
	if b.dead || math.IsNaN(health) {
		return
	}
	b.health = vec.Clamp(health, 0, b.maxHealth)
	if b.health == 0 {
		Die(e)
	}
}
