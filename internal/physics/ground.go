package physics

import (
	"github.com/annel0/wildlands/internal/vec"
)

// GroundProbe бросает луч вниз и сообщает высоту первой поверхности.
// maxDist: длина луча от origin; ok == false, если поверхность не найдена.
type GroundProbe interface {
	CastDown(origin vec.Vec3, maxDist float64) (hitY float64, ok bool)
}

// FlatGround бесконечная горизонтальная плоскость на высоте Y
type FlatGround struct {
	Y float64
}

// CastDown реализует GroundProbe
func (g FlatGround) CastDown(origin vec.Vec3, maxDist float64) (float64, bool) {
	if origin.Y < g.Y || origin.Y-g.Y > maxDist {
		return 0, false
	}
	return g.Y, true
}

// HeightFunc адаптирует функцию высоты heightAt(x, z) к GroundProbe
type HeightFunc func(x, z float64) float64

// CastDown реализует GroundProbe
func (f HeightFunc) CastDown(origin vec.Vec3, maxDist float64) (float64, bool) {
	h := f(origin.X, origin.Z)
	if origin.Y < h || origin.Y-h > maxDist {
		return 0, false
	}
	return h, true
}

// ProbeOrDefault возвращает пробу или плоскую землю на нуле, если проба не задана
func ProbeOrDefault(p GroundProbe) GroundProbe {
	if p == nil {
		return FlatGround{}
	}
	return p
}

// Bounds прямоугольные границы мира в плоскости XZ
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// SquareBounds создаёт границы [-half, half] по обеим осям
func SquareBounds(half float64) Bounds {
	return Bounds{MinX: -half, MaxX: half, MinZ: -half, MaxZ: half}
}

// Contains проверяет, лежит ли точка внутри границ с отступом margin
func (b Bounds) Contains(p vec.Vec3, margin float64) bool {
	return p.X >= b.MinX+margin && p.X <= b.MaxX-margin &&
		p.Z >= b.MinZ+margin && p.Z <= b.MaxZ-margin
}

// Clamp прижимает точку к границам с отступом margin (Y не меняется)
func (b Bounds) Clamp(p vec.Vec3, margin float64) vec.Vec3 {
	return vec.Vec3{
		X: vec.Clamp(p.X, b.MinX+margin, b.MaxX-margin),
		Y: p.Y,
		Z: vec.Clamp(p.Z, b.MinZ+margin, b.MaxZ-margin),
	}
}

// IsZero сообщает, что границы не заданы
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}
