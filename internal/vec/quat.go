package vec

import "math"

// Quat кватернион ориентации (единичный)
type Quat struct {
	X, Y, Z, W float64
}

// Identity возвращает единичный кватернион
func Identity() Quat {
	return Quat{W: 1}
}

// QuatFromYaw строит поворот вокруг оси Y
func QuatFromYaw(yaw float64) Quat {
	sin, cos := math.Sincos(yaw / 2)
	return Quat{Y: sin, W: cos}
}

// Yaw извлекает угол поворота вокруг Y
func (q Quat) Yaw() float64 {
	// Проекция на плоскость XZ повёрнутого вектора +Z
	x := 2 * (q.X*q.Z + q.W*q.Y)
	z := 1 - 2*(q.X*q.X+q.Y*q.Y)
	return math.Atan2(x, z)
}

// Dot скалярное произведение кватернионов
func (q Quat) Dot(other Quat) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Mul композиция поворотов (сначала other, затем q)
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Normalized возвращает нормализованный кватернион
func (q Quat) Normalized() Quat {
	length := math.Sqrt(q.Dot(q))
	if length == 0 {
		return Identity()
	}
	return Quat{X: q.X / length, Y: q.Y / length, Z: q.Z / length, W: q.W / length}
}

// AngleTo возвращает угол между ориентациями в радианах
func (q Quat) AngleTo(other Quat) float64 {
	d := math.Abs(q.Dot(other))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// Slerp сферическая интерполяция по кратчайшему пути
func Slerp(a, b Quat, t float64) Quat {
	cosTheta := a.Dot(b)
	if cosTheta < 0 {
		b = Quat{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
		cosTheta = -cosTheta
	}

	// Почти совпадающие ориентации: линейная интерполяция с нормализацией
	if cosTheta > 0.9995 {
		return Quat{
			X: Lerp(a.X, b.X, t),
			Y: Lerp(a.Y, b.Y, t),
			Z: Lerp(a.Z, b.Z, t),
			W: Lerp(a.W, b.W, t),
		}.Normalized()
	}

	theta := math.Acos(cosTheta)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta

	return Quat{
		X: a.X*wa + b.X*wb,
		Y: a.Y*wa + b.Y*wb,
		Z: a.Z*wa + b.Z*wb,
		W: a.W*wa + b.W*wb,
	}
}

// DampQuat плавно поворачивает current к target независимо от частоты кадров
func DampQuat(current, target Quat, lambda, dt float64) Quat {
	return Slerp(current, target, DampFactor(lambda, dt))
}
