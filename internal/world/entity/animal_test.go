package entity

import (
	"math"
	"testing"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupSpecies(t *testing.T) {
	_, err := LookupSpecies(config.DefaultAnimals(), "dragon")
	assert.ErrorIs(t, err, ErrUnknownSpecies)

	cfg, err := LookupSpecies(config.DefaultAnimals(), "wolf")
	require.NoError(t, err)
	assert.True(t, cfg.Hostile)
}

func TestAnimal_StartsWandering(t *testing.T) {
	deps := testDeps(7)
	a := newTestAnimal("deer", vec.Vec3{}, deps)

	assert.Equal(t, StateWandering, a.State())
	assert.GreaterOrEqual(t, a.Timer(), 5.0)
	assert.LessOrEqual(t, a.Timer(), 10.0)

	dist := math.Sqrt(a.Position().HorizontalDistanceSqTo(a.Target()))
	assert.GreaterOrEqual(t, dist, 10.0)
	assert.LessOrEqual(t, dist, 25.0)
}

func TestAnimal_WolfDetectsPlayerWhileIdle(t *testing.T) {
	deps := testDeps(1)
	wolf := newTestAnimal("wolf", vec.Vec3{}, deps)
	wolf.enterIdle()
	require.Equal(t, StateIdle, wolf.State())
	require.False(t, wolf.IsHostile())

	player := newTestPlayer(vec.Vec3{X: 15}, deps)
	wolf.Update(NewFrame(0.016, 0.016, player, nil))

	assert.Equal(t, StateAttacking, wolf.State())
	assert.True(t, wolf.IsHostile())
	assert.Greater(t, wolf.Velocity().X, 0.0, "волк сближается с игроком")
}

func TestAnimal_AttackHysteresis(t *testing.T) {
	deps := testDeps(1)
	wolf := newTestAnimal("wolf", vec.Vec3{}, deps)
	player := newTestPlayer(vec.Vec3{X: 15}, deps)

	wolf.Update(NewFrame(0.016, 0.016, player, nil))
	require.Equal(t, StateAttacking, wolf.State())

	// Между 1.0 и 1.2 радиуса обнаружения волк не теряет цель
	player.SetPosition(vec.Vec3{X: 22})
	wolf.Update(NewFrame(0.016, 0.032, player, nil))
	assert.Equal(t, StateAttacking, wolf.State())

	player.SetPosition(vec.Vec3{X: 30})
	wolf.Update(NewFrame(0.016, 0.048, player, nil))
	assert.Equal(t, StateIdle, wolf.State())
	assert.False(t, wolf.IsHostile(), "флаг агрессии снимается при потере цели")
	assert.Zero(t, wolf.Velocity().X)
}

func TestAnimal_AttackRespectsCooldown(t *testing.T) {
	deps := testDeps(1)
	sink := &recorder{}
	deps.Sink = sink
	wolf := newTestAnimal("wolf", vec.Vec3{}, deps)
	player := newTestPlayer(vec.Vec3{X: 1}, deps)

	now := 0.1
	wolf.Update(NewFrame(0.1, now, player, nil))
	assert.Equal(t, 90.0, player.Health())
	assert.Zero(t, wolf.Velocity().X, "в радиусе атаки волк стоит")

	for i := 0; i < 20; i++ {
		now += 0.1
		wolf.Update(NewFrame(0.1, now, player, nil))
	}
	assert.Equal(t, 80.0, player.Health(), "за 2 секунды при перезарядке 1.5 с: ровно ещё одна атака")
	assert.NotEmpty(t, sink.Messages())
}

func TestAnimal_PassiveNeverAttacks(t *testing.T) {
	deps := testDeps(3)
	deer := newTestAnimal("deer", vec.Vec3{}, deps)
	player := newTestPlayer(vec.Vec3{X: 1}, deps)

	now := 0.0
	for i := 0; i < 200; i++ {
		now += 0.05
		deer.Update(NewFrame(0.05, now, player, nil))
		assert.NotEqual(t, StateAttacking, deer.State())
		assert.False(t, deer.IsHostile())
	}
	assert.Equal(t, player.MaxHealth(), player.Health())
}

func TestAnimal_DeerFleesAndReturnsToWandering(t *testing.T) {
	deps := testDeps(11)
	deer := newTestAnimal("deer", vec.Vec3{}, deps)
	player := newTestPlayer(vec.Vec3{X: 8}, deps)

	deer.Update(NewFrame(0.1, 0.1, player, nil))
	require.Equal(t, StateFleeing, deer.State())
	assert.InDelta(t, -3.75, deer.Velocity().X, 1e-9, "бег от игрока в 1.5 раза быстрее базовой скорости")
	assert.Less(t, deer.Position().X, 0.0)

	// Между радиусами входа и выхода олень продолжает убегать
	player.SetPosition(vec.Vec3{X: 15})
	deer.Update(NewFrame(0.1, 0.2, player, nil))
	assert.Equal(t, StateFleeing, deer.State())

	player.SetPosition(vec.Vec3{X: 30})
	before := deer.Position()
	deer.Update(NewFrame(0.1, 0.3, player, nil))

	require.Equal(t, StateWandering, deer.State())
	assert.True(t, deps.Bounds.Contains(deer.Target(), deps.Margin), "цель внутри границ мира с отступом")
	dist := math.Sqrt(before.HorizontalDistanceSqTo(deer.Target()))
	assert.GreaterOrEqual(t, dist, 10.0)
	assert.LessOrEqual(t, dist, 25.0)
	assert.GreaterOrEqual(t, deer.Timer(), 5.0)
	assert.LessOrEqual(t, deer.Timer(), 10.0)
}

func TestAnimal_FleeFromCoincidentPlayer(t *testing.T) {
	deps := testDeps(5)
	deer := newTestAnimal("deer", vec.Vec3{X: 4, Z: 4}, deps)
	player := newTestPlayer(vec.Vec3{X: 4, Z: 4}, deps)

	deer.Update(NewFrame(0.05, 0.05, player, nil))

	require.Equal(t, StateFleeing, deer.State())
	v := deer.Velocity().Horizontal()
	assert.False(t, math.IsNaN(v.X) || math.IsNaN(v.Z))
	assert.InDelta(t, 3.75, v.Length(), 1e-9, "убегает в случайном направлении")
}

func TestAnimal_DegradesWithoutPlayer(t *testing.T) {
	deps := testDeps(9)
	wolf := newTestAnimal("wolf", vec.Vec3{}, deps)

	now := 0.0
	for i := 0; i < 100; i++ {
		now += 0.05
		assert.NotPanics(t, func() { wolf.Update(NewFrame(0.05, now, nil, nil)) })
		assert.Contains(t, []AnimalState{StateWandering, StateIdle}, wolf.State())
	}
	assert.False(t, wolf.IsHostile())

	wolf.hostile = true
	wolf.setState(StateAttacking)
	wolf.Update(NewFrame(0.05, now+0.05, nil, nil))
	assert.Equal(t, StateIdle, wolf.State(), "атака без игрока заканчивается")
}

func TestAnimal_WanderLegEnd(t *testing.T) {
	t.Run("idle detour", func(t *testing.T) {
		deps := testDeps(2)
		deer := newTestAnimal("deer", vec.Vec3{}, deps)
		deer.cfg.IdleChance = 1
		deer.timer = 0.01

		deer.Update(NewFrame(0.05, 0.05, nil, nil))
		assert.Equal(t, StateIdle, deer.State())
		assert.GreaterOrEqual(t, deer.Timer(), 2.0)
		assert.LessOrEqual(t, deer.Timer(), 5.0)
		assert.Zero(t, deer.Velocity().Horizontal().Length())
	})

	t.Run("new target", func(t *testing.T) {
		deps := testDeps(2)
		deer := newTestAnimal("deer", vec.Vec3{}, deps)
		deer.cfg.IdleChance = 0
		old := deer.Target()
		deer.target = deer.Position()

		deer.Update(NewFrame(0.05, 0.05, nil, nil))
		assert.Equal(t, StateWandering, deer.State())
		assert.NotEqual(t, old, deer.Target())
		assert.Greater(t, deer.Timer(), 4.9)
	})

	t.Run("idle expires", func(t *testing.T) {
		deps := testDeps(2)
		deer := newTestAnimal("deer", vec.Vec3{}, deps)
		deer.enterIdle()
		deer.timer = 0.01

		deer.Update(NewFrame(0.05, 0.05, nil, nil))
		assert.Equal(t, StateWandering, deer.State())
	})
}

func TestAnimal_WanderTargetClampedToBounds(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		deps := testDeps(seed)
		deer := newTestAnimal("deer", vec.Vec3{X: 198, Z: -198}, deps)
		for i := 0; i < 5; i++ {
			deer.pickWanderTarget()
			assert.True(t, deps.Bounds.Contains(deer.Target(), deps.Margin), "seed %d: %+v", seed, deer.Target())
		}
	}
}

func TestAnimal_DamageReaction(t *testing.T) {
	deps := testDeps(4)

	deer := newTestAnimal("deer", vec.Vec3{}, deps)
	TakeDamage(deer, 1)
	assert.Equal(t, StateFleeing, deer.State())

	wolf := newTestAnimal("wolf", vec.Vec3{}, deps)
	TakeDamage(wolf, 1)
	assert.Equal(t, StateAttacking, wolf.State())
	assert.True(t, wolf.IsHostile())
}

func TestAnimal_ToppleIsDeferred(t *testing.T) {
	deps := testDeps(4)
	deer := newTestAnimal("deer", vec.Vec3{}, deps)
	deer.Update(NewFrame(0.05, 1.0, nil, nil))

	require.True(t, TakeDamage(deer, 1000))
	assert.Equal(t, StateDead, deer.State())
	assert.False(t, deer.IsToppled())
	rot := deer.Rotation()

	deer.Update(NewFrame(0.05, 1.5, nil, nil))
	assert.False(t, deer.IsToppled())

	deer.Update(NewFrame(0.05, 2.0, nil, nil))
	assert.True(t, deer.IsToppled())
	assert.NotEqual(t, rot, deer.Rotation())
	assert.Zero(t, deer.Velocity().Horizontal().Length())
	assert.Zero(t, deer.LegSwing())
}

func TestAnimal_FallsToGround(t *testing.T) {
	deps := testDeps(6)
	deer := newTestAnimal("deer", vec.Vec3{Y: 3}, deps)

	now := 0.0
	for i := 0; i < 60 && !deer.IsGrounded(); i++ {
		now += 0.05
		deer.Update(NewFrame(0.05, now, nil, nil))
	}

	require.True(t, deer.IsGrounded())
	assert.Equal(t, 0.0, deer.Position().Y)
	assert.Zero(t, deer.Velocity().Y)
}

func TestAnimal_FacesMovementSmoothly(t *testing.T) {
	deps := testDeps(8)
	deer := newTestAnimal("deer", vec.Vec3{}, deps)
	deer.SetRotation(vec.QuatFromYaw(math.Pi))
	deer.target = vec.Vec3{X: 20}
	deer.timer = 10

	deer.Update(NewFrame(0.016, 0.016, nil, nil))
	want := vec.QuatFromYaw(math.Pi / 2)
	first := deer.Rotation().AngleTo(want)
	assert.Greater(t, first, 0.1, "разворот не мгновенный")

	now := 0.016
	for i := 0; i < 120; i++ {
		now += 0.016
		deer.Update(NewFrame(0.016, now, nil, nil))
	}
	assert.Less(t, deer.Rotation().AngleTo(want), 0.05)
}
