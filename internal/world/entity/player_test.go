package entity

import (
	"math"
	"testing"

	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groundedPlayer возвращает игрока, уже стоящего на плоской земле
func groundedPlayer(t *testing.T, deps Deps) *Player {
	t.Helper()
	p := newTestPlayer(vec.Vec3{}, deps)
	p.Update(NewFrame(0.016, 0.016, p, nil))
	require.True(t, p.IsGrounded())
	require.True(t, p.CanJump())
	return p
}

func TestPlayer_FallDamageScenario(t *testing.T) {
	t.Run("resolver landing", func(t *testing.T) {
		p := newTestPlayer(vec.Vec3{Y: 5}, testDeps(1))
		p.Land(15)

		assert.Equal(t, 20.0, p.LastFallDamage())
		assert.Equal(t, 80.0, p.Health())
		assert.True(t, p.IsGrounded())
		assert.Zero(t, p.Velocity().Y)
	})

	t.Run("terrain landing", func(t *testing.T) {
		p := newTestPlayer(vec.Vec3{Y: 0.2}, testDeps(1))
		p.SetVelocity(vec.Vec3{Y: -15})

		p.Update(NewFrame(0.001, 0.001, p, nil))

		require.True(t, p.IsGrounded())
		assert.Equal(t, 0.0, p.Position().Y)
		assert.Equal(t, 20.0, p.LastFallDamage())
		assert.Equal(t, 80.0, p.Health())
	})

	t.Run("below threshold", func(t *testing.T) {
		p := newTestPlayer(vec.Vec3{Y: 1}, testDeps(1))
		p.Land(9.5)
		assert.Zero(t, p.LastFallDamage())
		assert.Equal(t, p.MaxHealth(), p.Health())
	})

	t.Run("already grounded", func(t *testing.T) {
		p := groundedPlayer(t, testDeps(1))
		p.Land(30)
		assert.Equal(t, p.MaxHealth(), p.Health(), "повторное приземление без полёта не ранит")
	})
}

func TestPlayer_GroundSnapIsExact(t *testing.T) {
	deps := testDeps(1)
	deps.Ground = physics.FlatGround{Y: 0.1234}
	p := newTestPlayer(vec.Vec3{Y: 0.25}, deps)
	p.SetVelocity(vec.Vec3{Y: -1})

	p.Update(NewFrame(0.016, 0.016, p, nil))

	assert.True(t, p.IsGrounded())
	assert.Equal(t, 0.1234, p.Position().Y)
	assert.Zero(t, p.Velocity().Y)
}

func TestPlayer_RisingDoesNotSnap(t *testing.T) {
	p := newTestPlayer(vec.Vec3{Y: 0.1}, testDeps(1))
	p.SetVelocity(vec.Vec3{Y: 5})

	p.Update(NewFrame(0.016, 0.016, p, nil))

	assert.False(t, p.IsGrounded())
	assert.Greater(t, p.Position().Y, 0.1)
}

func TestPlayer_StaysGroundedWithContactVelocity(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))

	now := 0.016
	for i := 0; i < 30; i++ {
		now += 0.016
		p.Update(NewFrame(0.016, now, p, nil))
		require.True(t, p.IsGrounded())
		assert.Equal(t, 0.0, p.Position().Y)
	}
}

func TestPlayer_TerminalVelocity(t *testing.T) {
	deps := testDeps(1)
	deps.Ground = physics.HeightFunc(func(x, z float64) float64 { return -1e6 })
	p := newTestPlayer(vec.Vec3{Y: 100}, deps)

	now := 0.0
	for i := 0; i < 100; i++ {
		now += 0.05
		p.Update(NewFrame(0.05, now, p, nil))
	}
	assert.Equal(t, -deps.Physics.TerminalVelocity, p.Velocity().Y)
}

func TestPlayer_InputRotatedByYaw(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  vec.Vec3
	}{
		{"вперёд", Input{Forward: 1}, vec.Vec3{Z: 4}},
		{"вперёд при yaw π/2", Input{Forward: 1, Yaw: math.Pi / 2}, vec.Vec3{X: 4}},
		{"вправо", Input{Right: 1}, vec.Vec3{X: 4}},
		{"диагональ нормализуется", Input{Forward: 1, Right: 1}, vec.Vec3{X: 4 / math.Sqrt2, Z: 4 / math.Sqrt2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := groundedPlayer(t, testDeps(1))
			p.SetInput(tt.input)
			p.Update(NewFrame(0.016, 0.032, p, nil))

			v := p.Velocity()
			assert.InDelta(t, tt.want.X, v.X, 1e-9)
			assert.InDelta(t, tt.want.Z, v.Z, 1e-9)
		})
	}
}

func TestPlayer_SprintDrainsStamina(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))
	p.SetInput(Input{Forward: 1, Sprint: true})

	now := 0.016
	for i := 0; i < 20; i++ {
		now += 0.05
		p.Update(NewFrame(0.05, now, p, nil))
	}

	assert.True(t, p.IsSprinting())
	assert.InDelta(t, 80.0, p.Stamina(), 1e-9)
	assert.InDelta(t, 8.0, p.Velocity().Horizontal().Length(), 1e-9)

	// Спринт без движения не расходует выносливость
	p.SetInput(Input{Sprint: true})
	p.Update(NewFrame(0.05, now+0.05, p, nil))
	assert.False(t, p.IsSprinting())
	assert.InDelta(t, 80.5, p.Stamina(), 1e-9)
}

func TestPlayer_ExhaustionHysteresis(t *testing.T) {
	deps := testDeps(1)
	sink := &recorder{}
	deps.Sink = sink
	p := groundedPlayer(t, deps)
	p.stamina = 0.5
	p.SetInput(Input{Forward: 1, Sprint: true})

	now := 0.016
	step := func() {
		now += 0.05
		p.Update(NewFrame(0.05, now, p, nil))
		require.GreaterOrEqual(t, p.Stamina(), 0.0)
		require.LessOrEqual(t, p.Stamina(), p.MaxStamina())
	}

	step()
	require.True(t, p.IsExhausted())
	assert.Zero(t, p.Stamina())
	assert.Contains(t, sink.Messages(), "😮‍💨 Вы выдохлись")

	// Сразу после восстановления над нулём истощение сохраняется
	step()
	assert.True(t, p.IsExhausted())
	assert.False(t, p.IsSprinting())
	assert.InDelta(t, 0.25, p.Stamina(), 1e-9, "при истощении восстановление вдвое медленнее")
	assert.InDelta(t, 4.0, p.Velocity().Horizontal().Length(), 1e-9, "без спринта: скорость ходьбы")

	threshold := 0.2 * p.MaxStamina()
	for p.Stamina() < threshold-1e-9 {
		assert.True(t, p.IsExhausted(), "истощение не снимается ниже порога")
		step()
	}
	assert.False(t, p.IsExhausted())
	assert.Contains(t, sink.Messages(), "Отдышитесь, прежде чем снова бежать")
}

func TestPlayer_StaminaRegenClamped(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))
	p.stamina = 99.9

	p.Update(NewFrame(0.05, 0.1, p, nil))
	assert.Equal(t, p.MaxStamina(), p.Stamina())
}

func TestPlayer_Jump(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))
	p.SetInput(Input{Jump: true})

	p.Update(NewFrame(0.016, 0.032, p, nil))

	assert.False(t, p.IsGrounded())
	assert.False(t, p.CanJump())
	assert.InDelta(t, 90.0, p.Stamina(), 0.5)
	assert.Greater(t, p.Velocity().Y, 7.0)
	assert.Greater(t, p.Position().Y, 0.0)
	assert.False(t, p.Input().Jump, "нажатие прыжка обрабатывается один раз")

	// Повторный прыжок в воздухе невозможен
	vy := p.Velocity().Y
	p.SetInput(Input{Jump: true})
	p.Update(NewFrame(0.016, 0.048, p, nil))
	assert.Less(t, p.Velocity().Y, vy)
}

func TestPlayer_JumpNeedsStamina(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))
	p.stamina = 5
	p.SetInput(Input{Jump: true})

	p.Update(NewFrame(0.016, 0.032, p, nil))

	assert.True(t, p.IsGrounded())
	assert.Zero(t, p.Velocity().Y)
}

func TestPlayer_HeadBob(t *testing.T) {
	p := groundedPlayer(t, testDeps(1))
	p.SetInput(Input{Forward: 1})

	now := 0.016
	moved := false
	for i := 0; i < 10; i++ {
		now += 0.016
		p.Update(NewFrame(0.016, now, p, nil))
		if p.HeadBob() != 0 {
			moved = true
		}
		assert.LessOrEqual(t, math.Abs(p.HeadBob()), 0.05+1e-12)
	}
	assert.True(t, moved)

	p.SetInput(Input{})
	for i := 0; i < 200; i++ {
		now += 0.016
		p.Update(NewFrame(0.016, now, p, nil))
	}
	assert.InDelta(t, 0, p.HeadBob(), 1e-6)
}

func TestPlayer_RestoreStamina(t *testing.T) {
	p := newTestPlayer(vec.Vec3{}, testDeps(1))
	p.RestoreStamina(500)
	assert.Equal(t, p.MaxStamina(), p.Stamina())
	p.RestoreStamina(0)
	assert.True(t, p.IsExhausted())
}

func TestPlayer_RestoreStaminaKeepsExhaustionBelowThreshold(t *testing.T) {
	p := newTestPlayer(vec.Vec3{}, testDeps(1))
	threshold := 0.2 * p.MaxStamina()

	p.RestoreStamina(0)
	require.True(t, p.IsExhausted())

	p.RestoreStamina(threshold / 2)
	assert.True(t, p.IsExhausted(), "ниже порога истощение сохраняется")
	assert.Equal(t, threshold/2, p.Stamina())

	p.RestoreStamina(threshold)
	assert.False(t, p.IsExhausted(), "на пороге истощение снимается")

	p.RestoreStamina(threshold / 2)
	assert.False(t, p.IsExhausted(), "отдохнувший игрок не истощается выше нуля")

	p.RestoreStamina(math.NaN())
	assert.Equal(t, threshold/2, p.Stamina())
}
