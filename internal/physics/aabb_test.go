package physics

import (
	"math"
	"testing"

	"github.com/annel0/wildlands/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAABB_FromBase(t *testing.T) {
	box := FromBase(vec.Vec3{X: 3, Y: 1, Z: -2}, vec.Vec3{X: 0.8, Y: 2, Z: 0.8})

	assert.Equal(t, vec.Vec3{X: 3, Y: 2, Z: -2}, box.Center)
	assert.InDelta(t, 1.0, box.Min().Y, 1e-12)
	assert.InDelta(t, 3.0, box.Max().Y, 1e-12)
}

func TestAABB_IsEmpty(t *testing.T) {
	assert.False(t, NewAABB(vec.Vec3{}, vec.Vec3{X: 1, Y: 1, Z: 1}).IsEmpty())
	assert.True(t, NewAABB(vec.Vec3{}, vec.Vec3{X: 1, Y: 0, Z: 1}).IsEmpty())
	assert.True(t, NewAABB(vec.Vec3{X: math.NaN()}, vec.Vec3{X: 1, Y: 1, Z: 1}).IsEmpty())
	assert.True(t, AABB{}.IsEmpty())
}

func TestAABB_IntersectsIsStrict(t *testing.T) {
	a := NewAABB(vec.Vec3{}, vec.Vec3{X: 1, Y: 1, Z: 1})
	touching := NewAABB(vec.Vec3{X: 1}, vec.Vec3{X: 1, Y: 1, Z: 1})
	overlapping := NewAABB(vec.Vec3{X: 0.9}, vec.Vec3{X: 1, Y: 1, Z: 1})

	assert.False(t, a.Intersects(touching), "касание гранями не является пересечением")
	assert.True(t, a.Intersects(overlapping))
}

func TestAABB_MTV_XAxisScenario(t *testing.T) {
	player := NewAABB(vec.Vec3{X: 0, Y: 1, Z: 0}, vec.Vec3{X: 0.8, Y: 2, Z: 0.8})
	obstacle := NewAABB(vec.Vec3{X: 0.5, Y: 1, Z: 0}, vec.Vec3{X: 1, Y: 2, Z: 1})
	const eps = 0.001

	overlap := player.Overlap(obstacle)
	assert.InDelta(t, 0.4, overlap.X, 1e-12)
	assert.InDelta(t, 2.0, overlap.Y, 1e-12)
	assert.InDelta(t, 0.9, overlap.Z, 1e-12)

	push, axis, ok := player.MTV(obstacle, eps)
	require.True(t, ok)
	assert.Equal(t, AxisX, axis)
	assert.InDelta(t, overlap.X+eps, push.Length(), 1e-12, "величина толчка = перекрытие + epsilon")
	assert.Less(t, push.X, 0.0, "толчок направлен от центра препятствия")
	assert.Zero(t, push.Y)
	assert.Zero(t, push.Z)
}

func TestAABB_MTV_PicksSmallestAxis(t *testing.T) {
	tests := []struct {
		name   string
		center vec.Vec3
		axis   Axis
		sign   float64
	}{
		{"сверху", vec.Vec3{Y: 0.9}, AxisY, 1},
		{"снизу", vec.Vec3{Y: -0.9}, AxisY, -1},
		{"сзади", vec.Vec3{Z: -0.95}, AxisZ, -1},
		{"справа", vec.Vec3{X: 0.95}, AxisX, 1},
	}

	obstacle := NewAABB(vec.Vec3{}, vec.Vec3{X: 1, Y: 1, Z: 1})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := NewAABB(tt.center, vec.Vec3{X: 1, Y: 1, Z: 1})
			push, axis, ok := box.MTV(obstacle, 0)
			require.True(t, ok)
			assert.Equal(t, tt.axis, axis)

			var component float64
			switch axis {
			case AxisX:
				component = push.X
			case AxisY:
				component = push.Y
			case AxisZ:
				component = push.Z
			}
			assert.Equal(t, tt.sign, math.Copysign(1, component))
		})
	}
}

func TestAABB_MTV_SeparatesAfterPush(t *testing.T) {
	obstacle := NewAABB(vec.Vec3{X: 0.3, Y: 0.2, Z: -0.1}, vec.Vec3{X: 2, Y: 1, Z: 1.5})
	box := NewAABB(vec.Vec3{}, vec.Vec3{X: 0.8, Y: 2, Z: 0.8})

	push, _, ok := box.MTV(obstacle, 0.001)
	require.True(t, ok)

	moved := box.Translate(push)
	assert.False(t, moved.Intersects(obstacle))

	_, _, again := moved.MTV(obstacle, 0.001)
	assert.False(t, again, "повторное разрешение не даёт дополнительного перекрытия")
}

func TestBounds_Clamp(t *testing.T) {
	b := SquareBounds(100)

	p := b.Clamp(vec.Vec3{X: 150, Y: 7, Z: -120}, 5)
	assert.Equal(t, vec.Vec3{X: 95, Y: 7, Z: -95}, p)
	assert.True(t, b.Contains(p, 5))
	assert.False(t, b.Contains(vec.Vec3{X: 99}, 5))
}

func TestGroundProbes(t *testing.T) {
	flat := FlatGround{Y: 2}

	y, ok := flat.CastDown(vec.Vec3{Y: 2.5}, 1)
	require.True(t, ok)
	assert.Equal(t, 2.0, y)

	_, ok = flat.CastDown(vec.Vec3{Y: 4}, 1)
	assert.False(t, ok, "поверхность дальше длины луча")

	_, ok = flat.CastDown(vec.Vec3{Y: 1}, 1)
	assert.False(t, ok, "начало луча под поверхностью")

	slope := HeightFunc(func(x, z float64) float64 { return x * 0.5 })
	y, ok = slope.CastDown(vec.Vec3{X: 2, Y: 1.5}, 1)
	require.True(t, ok)
	assert.Equal(t, 1.0, y)

	_, ok = ProbeOrDefault(nil).CastDown(vec.Vec3{Y: 0.5}, 1)
	assert.True(t, ok, "без пробы земля считается плоской на нуле")
}
