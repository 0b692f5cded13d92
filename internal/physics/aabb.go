package physics

import (
	"math"

	"github.com/annel0/wildlands/internal/vec"
)

// Axis ось мировой системы координат
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

// String возвращает имя оси
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "none"
	}
}

// AABB ограничивающий параллелепипед, выровненный по осям.
// Задаётся центром в мировых координатах и полным размером (ширина, высота, глубина).
type AABB struct {
	Center vec.Vec3
	Size   vec.Vec3
}

// NewAABB создаёт бокс по центру и размеру
func NewAABB(center, size vec.Vec3) AABB {
	return AABB{Center: center, Size: size}
}

// FromBase создаёт бокс, стоящий основанием на точке base
func FromBase(base, size vec.Vec3) AABB {
	return AABB{
		Center: vec.Vec3{X: base.X, Y: base.Y + size.Y/2, Z: base.Z},
		Size:   size,
	}
}

// FromMinMax создаёт бокс по двум углам
func FromMinMax(min, max vec.Vec3) AABB {
	return AABB{
		Center: vec.Lerp3(min, max, 0.5),
		Size:   max.Sub(min),
	}
}

// HalfExtents возвращает половину размера
func (b AABB) HalfExtents() vec.Vec3 {
	return b.Size.Mul(0.5)
}

// Min нижний угол
func (b AABB) Min() vec.Vec3 {
	return b.Center.Sub(b.HalfExtents())
}

// Max верхний угол
func (b AABB) Max() vec.Vec3 {
	return b.Center.Add(b.HalfExtents())
}

// IsEmpty сообщает, что бокс непригоден для проверок (нулевой/отрицательный размер или NaN)
func (b AABB) IsEmpty() bool {
	if !b.Center.IsFinite() || !b.Size.IsFinite() {
		return true
	}
	return b.Size.X <= 0 || b.Size.Y <= 0 || b.Size.Z <= 0
}

// ContainsPoint проверяет, находится ли точка внутри бокса (границы включительно)
func (b AABB) ContainsPoint(p vec.Vec3) bool {
	min, max := b.Min(), b.Max()
	return p.X >= min.X && p.X <= max.X &&
		p.Y >= min.Y && p.Y <= max.Y &&
		p.Z >= min.Z && p.Z <= max.Z
}

// Overlap возвращает глубину перекрытия по каждой оси:
// (halfA + halfB) - |centerA - centerB|. Положительное значение: перекрытие по оси.
func (b AABB) Overlap(other AABB) vec.Vec3 {
	ha := b.HalfExtents()
	hb := other.HalfExtents()
	return vec.Vec3{
		X: ha.X + hb.X - math.Abs(b.Center.X-other.Center.X),
		Y: ha.Y + hb.Y - math.Abs(b.Center.Y-other.Center.Y),
		Z: ha.Z + hb.Z - math.Abs(b.Center.Z-other.Center.Z),
	}
}

// Intersects проверяет строгое пересечение (касание гранями пересечением не считается)
func (b AABB) Intersects(other AABB) bool {
	o := b.Overlap(other)
	return o.X > 0 && o.Y > 0 && o.Z > 0
}

// MTV возвращает минимальный вектор выталкивания b из other.
// Выбирается ось с наименьшим положительным перекрытием; толчок направлен от центра other
// и равен глубине перекрытия плюс epsilon, чтобы на следующем кадре боксы гарантированно разошлись.
func (b AABB) MTV(other AABB, epsilon float64) (vec.Vec3, Axis, bool) {
	if !b.Intersects(other) {
		return vec.Vec3{}, AxisNone, false
	}

	o := b.Overlap(other)
	axis := AxisX
	depth := o.X
	if o.Y < depth {
		axis, depth = AxisY, o.Y
	}
	if o.Z < depth {
		axis, depth = AxisZ, o.Z
	}

	push := depth + epsilon
	switch axis {
	case AxisX:
		return vec.Vec3{X: push * direction(b.Center.X-other.Center.X)}, axis, true
	case AxisY:
		return vec.Vec3{Y: push * direction(b.Center.Y-other.Center.Y)}, axis, true
	default:
		return vec.Vec3{Z: push * direction(b.Center.Z-other.Center.Z)}, axis, true
	}
}

// Translate сдвигает бокс
func (b AABB) Translate(delta vec.Vec3) AABB {
	return AABB{Center: b.Center.Add(delta), Size: b.Size}
}

// direction знак разности центров; совпадающие центры толкают в положительную сторону
func direction(d float64) float64 {
	if d < 0 {
		return -1
	}
	return 1
}
