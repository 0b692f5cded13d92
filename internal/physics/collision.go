package physics

import (
	"fmt"

	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/vec"
)

// ColliderKind тег варианта коллайдера
type ColliderKind uint8

const (
	ColliderStatic  ColliderKind = iota + 1 // Статический объект сцены (камень, стена, платформа)
	ColliderDynamic                         // Сущность с поведением (животное, NPC)
	ColliderTerrain                         // Рельеф: обрабатывается лучом земли, а не выталкиванием
)

// String возвращает имя варианта
func (k ColliderKind) String() string {
	switch k {
	case ColliderStatic:
		return "static"
	case ColliderDynamic:
		return "dynamic"
	case ColliderTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// GeometrySource вычисляет бокс по полной геометрии объекта.
// Дорогой путь: используется, только если закешированного бокса нет.
type GeometrySource interface {
	ComputeBounds() (AABB, bool)
}

// GeometryFunc адаптирует функцию к GeometrySource
type GeometryFunc func() (AABB, bool)

// ComputeBounds реализует GeometrySource
func (f GeometryFunc) ComputeBounds() (AABB, bool) {
	return f()
}

// StaticBody простой статический коллайдер
type StaticBody struct {
	ID       string
	Box      *AABB          // Закешированный бокс; обновляется владельцем при перемещении объекта
	Geometry GeometrySource // Запасной путь
}

// NewStaticBody создаёт статический объект с закешированным боксом
func NewStaticBody(id string, box AABB) *StaticBody {
	return &StaticBody{ID: id, Box: &box}
}

// SetBox обновляет закешированный бокс
func (s *StaticBody) SetBox(box AABB) {
	s.Box = &box
}

// Bounds возвращает закешированный бокс или вычисляет его по геометрии
func (s *StaticBody) Bounds() (AABB, bool) {
	if s.Box != nil {
		return *s.Box, !s.Box.IsEmpty()
	}
	if s.Geometry != nil {
		box, ok := s.Geometry.ComputeBounds()
		return box, ok && !box.IsEmpty()
	}
	return AABB{}, false
}

// DynamicBody контракт сущности, участвующей в столкновениях
type DynamicBody interface {
	ID() string
	IsDead() bool
	IsCollidable() bool
	BoundingBox() (AABB, bool)
}

// Collider вариант: статический объект, сущность или рельеф
type Collider struct {
	Kind      ColliderKind
	Static    *StaticBody
	Dynamic   DynamicBody
	TerrainID string
}

// StaticCollider оборачивает статический объект
func StaticCollider(s *StaticBody) Collider {
	return Collider{Kind: ColliderStatic, Static: s}
}

// DynamicCollider оборачивает сущность
func DynamicCollider(d DynamicBody) Collider {
	return Collider{Kind: ColliderDynamic, Dynamic: d}
}

// TerrainCollider помечает рельеф
func TerrainCollider(id string) Collider {
	return Collider{Kind: ColliderTerrain, TerrainID: id}
}

// ID возвращает идентификатор обёрнутого объекта
func (c Collider) ID() string {
	switch c.Kind {
	case ColliderStatic:
		if c.Static != nil {
			return c.Static.ID
		}
	case ColliderDynamic:
		if c.Dynamic != nil {
			return c.Dynamic.ID()
		}
	case ColliderTerrain:
		return c.TerrainID
	}
	return ""
}

// Pushable тело, которое резолвер выталкивает из препятствий (игрок)
type Pushable interface {
	ID() string
	Position() vec.Vec3
	SetPosition(vec.Vec3) // Обязан пересчитать бокс
	BoundingBox() (AABB, bool)
	Velocity() vec.Vec3
	SetVelocity(vec.Vec3)
	Land(fallSpeed float64) // Обнулить вертикальную скорость, выставить флаги земли
}

// ResolverConfig параметры разрешения столкновений
type ResolverConfig struct {
	BroadPhaseRadius float64 // Отсечение по расстоянию до ближайшей точки бокса
	Epsilon          float64 // Добавка к глубине выталкивания
	SupportTolerance float64 // Зазор над верхней гранью, в котором тело считается стоящим на объекте (0: 2*Epsilon)
}

// Result итог прохода резолвера за кадр
type Result struct {
	Checked int  // Пары, дошедшие до точной проверки
	Pushes  int  // Выполненные выталкивания
	Skipped int  // Кандидаты без пригодного бокса
	Failed  int  // Кандидаты, проверка которых завершилась паникой
	Landed  bool // Тело приземлилось на объект
}

// Resolver выталкивает тело из пересекающихся коллайдеров по минимальной оси
type Resolver struct {
	cfg ResolverConfig
	log *logging.Logger
}

// NewResolver создаёт резолвер
func NewResolver(cfg ResolverConfig, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SupportTolerance <= 0 {
		cfg.SupportTolerance = 2 * cfg.Epsilon
	}
	return &Resolver{cfg: cfg, log: logger}
}

type outcome uint8

const (
	outcomeFiltered outcome = iota
	outcomeSkipped
	outcomeClear
	outcomePushed
)

// Resolve проверяет тело против всех коллайдеров и выталкивает его.
// После каждого толчка бокс тела пересчитывается до проверки следующего кандидата.
func (r *Resolver) Resolve(body Pushable, colliders []Collider) Result {
	var res Result

	box, ok := body.BoundingBox()
	if !ok || box.IsEmpty() {
		r.log.Warn("тело %s без бокса, столкновения пропущены", body.ID())
		res.Skipped++
		return res
	}

	radiusSq := r.cfg.BroadPhaseRadius * r.cfg.BroadPhaseRadius

	for _, c := range colliders {
		out, landed, err := r.resolveOne(body, &box, c, radiusSq)
		if err != nil {
			r.log.Error("ошибка проверки коллайдера %s: %v", c.ID(), err)
			res.Failed++
			continue
		}

		switch out {
		case outcomeSkipped:
			res.Skipped++
		case outcomeClear:
			res.Checked++
		case outcomePushed:
			res.Checked++
			res.Pushes++
		}
		if landed {
			res.Landed = true
		}
	}

	return res
}

// resolveOne обрабатывает одного кандидата; паника изолируется и превращается в ошибку
func (r *Resolver) resolveOne(body Pushable, box *AABB, c Collider, radiusSq float64) (out outcome, landed bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	var other AABB
	switch c.Kind {
	case ColliderTerrain:
		return outcomeFiltered, false, nil
	case ColliderStatic:
		if c.Static == nil {
			return outcomeFiltered, false, nil
		}
		if c.Static.ID == body.ID() {
			return outcomeFiltered, false, nil
		}
		b, ok := c.Static.Bounds()
		if !ok {
			r.log.Warn("статический объект %s без бокса, проверка пропущена", c.Static.ID)
			return outcomeSkipped, false, nil
		}
		other = b
	case ColliderDynamic:
		if c.Dynamic == nil {
			return outcomeFiltered, false, nil
		}
		if c.Dynamic.ID() == body.ID() || c.Dynamic.IsDead() || !c.Dynamic.IsCollidable() {
			return outcomeFiltered, false, nil
		}
		b, ok := c.Dynamic.BoundingBox()
		if !ok || b.IsEmpty() {
			r.log.Warn("сущность %s без бокса, проверка пропущена", c.Dynamic.ID())
			return outcomeSkipped, false, nil
		}
		other = b
	default:
		return outcomeFiltered, false, fmt.Errorf("неизвестный вид коллайдера %d", c.Kind)
	}

	// Широкая фаза: квадрат расстояния от центра тела до ближайшей точки бокса
	if radiusSq > 0 && closestPointDistanceSq(box.Center, other) > radiusSq {
		return outcomeFiltered, false, nil
	}

	vel := body.Velocity()
	push, axis, hit := box.MTV(other, r.cfg.Epsilon)
	if !hit {
		// Тело, опустившееся меньше чем на зазор выталкивания, всё ещё стоит на объекте
		if r.restsOn(*box, other, vel) {
			body.Land(-vel.Y)
			return outcomeClear, true, nil
		}
		return outcomeClear, false, nil
	}

	body.SetPosition(body.Position().Add(push))

	if axis == AxisY {
		if push.Y > 0 && vel.Y <= 0 {
			body.Land(-vel.Y)
			landed = true
		} else if push.Y < 0 && vel.Y > 0 {
			vel.Y = 0
			body.SetVelocity(vel)
		}
	}

	refreshed, ok := body.BoundingBox()
	if !ok {
		// Тело не может потерять бокс после сдвига; используем сдвинутый старый
		refreshed = box.Translate(push)
	}
	*box = refreshed

	return outcomePushed, landed, nil
}

// restsOn: низ бокса не выше верхней грани other на SupportTolerance,
// проекции на XZ перекрываются, тело не поднимается
func (r *Resolver) restsOn(box, other AABB, vel vec.Vec3) bool {
	if vel.Y > 0 {
		return false
	}
	gap := box.Min().Y - other.Max().Y
	if gap < 0 || gap > r.cfg.SupportTolerance {
		return false
	}
	o := box.Overlap(other)
	return o.X > 0 && o.Z > 0
}

// closestPointDistanceSq квадрат расстояния от точки до бокса (0, если точка внутри)
func closestPointDistanceSq(p vec.Vec3, b AABB) float64 {
	min, max := b.Min(), b.Max()
	closest := vec.Vec3{
		X: vec.Clamp(p.X, min.X, max.X),
		Y: vec.Clamp(p.Y, min.Y, max.Y),
		Z: vec.Clamp(p.Z, min.Z, max.Z),
	}
	return p.DistanceSqTo(closest)
}
