package vec

import "math"

// Clamp ограничивает значение диапазоном [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Lerp линейная интерполяция
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// DampFactor возвращает коэффициент сглаживания, не зависящий от частоты кадров.
// lambda: скорость сходимости (1/с).
func DampFactor(lambda, dt float64) float64 {
	if lambda <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-lambda*dt)
}

// Damp плавно приближает current к target
func Damp(current, target, lambda, dt float64) float64 {
	return Lerp(current, target, DampFactor(lambda, dt))
}

// Damp3 плавно приближает вектор current к target
func Damp3(current, target Vec3, lambda, dt float64) Vec3 {
	return Lerp3(current, target, DampFactor(lambda, dt))
}

// YawTowards возвращает угол поворота вокруг Y, смотрящий из from в to.
// Совпадает с соглашением ForwardFromYaw: yaw = atan2(dx, dz).
func YawTowards(from, to Vec3) float64 {
	return math.Atan2(to.X-from.X, to.Z-from.Z)
}

// YawFromDirection возвращает yaw для горизонтального направления
func YawFromDirection(dir Vec3) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// ForwardFromYaw возвращает единичный горизонтальный вектор взгляда
func ForwardFromYaw(yaw float64) Vec3 {
	sin, cos := math.Sincos(yaw)
	return Vec3{X: sin, Z: cos}
}

// WrapAngle приводит угол к диапазону (-π, π]
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
