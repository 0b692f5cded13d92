package vec

import "math"

// Vec2 представляет 2D вектор ввода (X: вправо, Y: вперёд)
type Vec2 struct {
	X, Y float64
}

// LengthSq возвращает квадрат длины
func (v Vec2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Length возвращает длину вектора
func (v Vec2) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// Normalized возвращает нормализованный вектор
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// RotateYaw поворачивает ввод (вправо, вперёд) в мировую плоскость XZ.
// При yaw == 0 «вперёд» совпадает с +Z.
func (v Vec2) RotateYaw(yaw float64) Vec3 {
	sin, cos := math.Sincos(yaw)
	return Vec3{
		X: v.Y*sin + v.X*cos,
		Z: v.Y*cos - v.X*sin,
	}
}
