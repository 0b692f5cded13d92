package entity

import (
	"fmt"
	"math"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/vec"
)

// AnimalState состояние поведения животного
type AnimalState uint8

const (
	StateWandering AnimalState = iota // Идёт к случайной цели
	StateIdle                         // Стоит на месте
	StateFleeing                      // Убегает от игрока
	StateAttacking                    // Преследует и атакует игрока (только хищники)
	StateDead                         // Терминальное состояние
)

// String возвращает имя состояния
func (s AnimalState) String() string {
	switch s {
	case StateWandering:
		return "wandering"
	case StateIdle:
		return "idle"
	case StateFleeing:
		return "fleeing"
	case StateAttacking:
		return "attacking"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

const (
	// minFacingSpeedSq ниже этого квадрата скорости животное не разворачивается
	minFacingSpeedSq = 0.01
	// legSwingAmplitude максимальный угол размаха ног в радианах
	legSwingAmplitude = 0.5
	// legSwingRate шагов на метр пройденного пути
	legSwingRate = 3.0
)

// Animal животное с конечным автоматом поведения
type Animal struct {
	*Base

	species string
	cfg     config.AnimalConfig

	state  AnimalState
	timer  float64  // Обратный отсчёт до принудительного перехода
	target vec.Vec3 // Цель блуждания (только X и Z)

	hostileCapable bool    // Вид умеет нападать
	hostile        bool    // Животное сейчас агрессивно к игроку
	attackCooldown float64 // Секунд до следующей атаки

	grounded bool
	legPhase float64
	toppled  bool
}

// LookupSpecies возвращает параметры вида из конфигурации
func LookupSpecies(animals map[string]config.AnimalConfig, species string) (config.AnimalConfig, error) {
	cfg, ok := animals[species]
	if !ok {
		return config.AnimalConfig{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, species)
	}
	return cfg, nil
}

// NewAnimal создаёт животное. Начальное состояние: блуждание к случайной цели.
func NewAnimal(id, species string, cfg config.AnimalConfig, position vec.Vec3, deps Deps) (*Animal, error) {
	if cfg.BaseSpeed <= 0 {
		return nil, fmt.Errorf("animal %s (%s): base speed must be positive", id, species)
	}

	base, err := NewBase(id, KindAnimal, position, sizeFrom(cfg.Size), cfg.MaxHealth, deps)
	if err != nil {
		return nil, fmt.Errorf("animal %s (%s): %w", id, species, err)
	}

	a := &Animal{
		Base:           base,
		species:        species,
		cfg:            cfg,
		hostileCapable: cfg.Hostile,
	}
	a.rotation = vec.QuatFromYaw(a.deps.Rand.Float64() * 2 * math.Pi)
	a.pickWanderTarget()

	return a, nil
}

// Species возвращает вид животного
func (a *Animal) Species() string { return a.species }

// State возвращает текущее состояние
func (a *Animal) State() AnimalState { return a.state }

// Target возвращает цель блуждания
func (a *Animal) Target() vec.Vec3 { return a.target }

// Timer возвращает остаток таймера текущего состояния
func (a *Animal) Timer() float64 { return a.timer }

// IsHostile сообщает, агрессивно ли животное сейчас
func (a *Animal) IsHostile() bool { return a.hostile }

// IsHostileCapable сообщает, может ли животное нападать
func (a *Animal) IsHostileCapable() bool { return a.hostileCapable }

// IsGrounded сообщает, стоит ли животное на земле
func (a *Animal) IsGrounded() bool { return a.grounded }

// IsToppled сообщает, завалилась ли туша после смерти
func (a *Animal) IsToppled() bool { return a.toppled }

// LegSwing текущий угол размаха ног
func (a *Animal) LegSwing() float64 {
	if a.dead || a.horizontalSpeed() == 0 {
		return 0
	}
	return math.Sin(a.legPhase) * legSwingAmplitude
}

// Update продвигает автомат на один кадр
func (a *Animal) Update(f *Frame) {
	a.advance(f.Now)
	dt := f.DT

	if a.dead {
		a.velocity.X, a.velocity.Z = 0, 0
		a.integrate(dt)
		return
	}

	if a.attackCooldown > 0 {
		a.attackCooldown = math.Max(0, a.attackCooldown-dt)
	}

	distSq := f.DistanceSqToPlayer(a.position)
	if a.state == StateWandering || a.state == StateIdle {
		a.checkProximity(distSq)
	}

	switch a.state {
	case StateIdle:
		a.updateIdle(dt)
	case StateWandering:
		a.updateWandering(dt)
	case StateFleeing:
		a.updateFleeing(f, distSq)
	case StateAttacking:
		a.updateAttacking(f, distSq)
	}

	a.integrate(dt)
	a.face(f, dt)
}

// checkProximity входные переходы по дистанции до игрока (из блуждания и покоя)
func (a *Animal) checkProximity(distSq float64) {
	if math.IsInf(distSq, 1) {
		return
	}

	if a.hostileCapable && a.cfg.DetectionRange > 0 && distSq < sq(a.cfg.DetectionRange) {
		a.hostile = true
		a.setState(StateAttacking)
		return
	}

	if !a.hostileCapable && a.cfg.FleeRadius > 0 && distSq < sq(a.cfg.FleeRadius) {
		a.setState(StateFleeing)
	}
}

func (a *Animal) updateIdle(dt float64) {
	a.velocity.X, a.velocity.Z = 0, 0

	a.timer -= dt
	if a.timer <= 0 {
		a.pickWanderTarget()
	}
}

func (a *Animal) updateWandering(dt float64) {
	a.timer -= dt

	arrived := a.position.HorizontalDistanceSqTo(a.target) < sq(a.cfg.ArriveDistance)
	if arrived || a.timer <= 0 {
		if a.deps.Rand.Float64() < a.cfg.IdleChance {
			a.enterIdle()
			return
		}
		a.pickWanderTarget()
	}

	dir := a.target.Sub(a.position).Horizontal().Normalized()
	a.setHorizontalVelocity(dir, a.cfg.BaseSpeed)
}

func (a *Animal) updateFleeing(f *Frame, distSq float64) {
	if distSq > sq(a.cfg.FleeExitRadius) {
		a.pickWanderTarget()
		dir := a.target.Sub(a.position).Horizontal().Normalized()
		a.setHorizontalVelocity(dir, a.cfg.BaseSpeed)
		return
	}

	away := a.position.Sub(f.PlayerPos).Horizontal()
	if away.LengthSq() == 0 {
		// Игрок ровно в той же точке: направление не определено
		angle := a.deps.Rand.Float64() * 2 * math.Pi
		away = vec.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}
	}
	a.setHorizontalVelocity(away.Normalized(), a.cfg.BaseSpeed*a.cfg.RunMultiplier)
}

func (a *Animal) updateAttacking(f *Frame, distSq float64) {
	exit := a.cfg.DetectionRange * a.cfg.AggroExitFactor
	if !f.HasPlayer || distSq > sq(exit) {
		a.hostile = false
		a.enterIdle()
		return
	}

	if distSq > sq(a.cfg.AttackRange) {
		dir := f.PlayerPos.Sub(a.position).Horizontal().Normalized()
		a.setHorizontalVelocity(dir, a.cfg.BaseSpeed*a.cfg.RunMultiplier)
		return
	}

	a.velocity.X, a.velocity.Z = 0, 0
	if a.attackCooldown > 0 || f.Player == nil {
		return
	}

	if TakeDamage(f.Player, a.cfg.AttackDamage) {
		a.deps.Sink.LogEvent(fmt.Sprintf("🐺 %s атакует: -%.0f здоровья", a.species, a.cfg.AttackDamage))
	}
	a.attackCooldown = a.cfg.AttackCooldown
}

// integrate перемещает животное по горизонтали и выполняет проверку земли каждый кадр
func (a *Animal) integrate(dt float64) {
	if dt <= 0 {
		return
	}

	pos := a.position
	pos.X += a.velocity.X * dt
	pos.Z += a.velocity.Z * dt
	if !a.deps.Bounds.IsZero() {
		pos = a.deps.Bounds.Clamp(pos, 0)
	}

	phys := a.deps.Physics
	a.velocity.Y -= phys.Gravity * dt
	if phys.TerminalVelocity > 0 && a.velocity.Y < -phys.TerminalVelocity {
		a.velocity.Y = -phys.TerminalVelocity
	}
	pos.Y += a.velocity.Y * dt

	origin := vec.Vec3{X: pos.X, Y: pos.Y + phys.GroundProbe, Z: pos.Z}
	hitY, ok := a.deps.Ground.CastDown(origin, phys.GroundProbe+phys.SnapThreshold)
	if ok && a.velocity.Y <= 0 {
		pos.Y = hitY
		a.velocity.Y = 0
		a.grounded = true
	} else {
		a.grounded = false
	}

	a.legPhase += a.horizontalSpeed() * dt * legSwingRate
	a.SetPosition(pos)
}

// face плавно разворачивает животное по направлению движения (или к игроку во время атаки)
func (a *Animal) face(f *Frame, dt float64) {
	dir := a.velocity.Horizontal()
	if dir.LengthSq() <= minFacingSpeedSq {
		if a.state != StateAttacking || !f.HasPlayer {
			return
		}
		dir = f.PlayerPos.Sub(a.position).Horizontal()
		if dir.LengthSq() == 0 {
			return
		}
	}

	target := vec.QuatFromYaw(vec.YawFromDirection(dir))
	a.rotation = vec.DampQuat(a.rotation, target, a.cfg.TurnRate, dt)
}

// pickWanderTarget выбирает новую цель блуждания и сбрасывает таймер
func (a *Animal) pickWanderTarget() {
	angle := a.deps.Rand.Float64() * 2 * math.Pi
	dist := randRange(a.deps.Rand.Float64(), a.cfg.WanderDistance)

	target := vec.Vec3{
		X: a.position.X + math.Cos(angle)*dist,
		Y: a.position.Y,
		Z: a.position.Z + math.Sin(angle)*dist,
	}
	if !a.deps.Bounds.IsZero() {
		target = a.deps.Bounds.Clamp(target, a.deps.Margin)
	}

	a.target = target
	a.timer = randRange(a.deps.Rand.Float64(), a.cfg.WanderTime)
	a.setState(StateWandering)
}

func (a *Animal) enterIdle() {
	a.velocity.X, a.velocity.Z = 0, 0
	a.timer = randRange(a.deps.Rand.Float64(), a.cfg.IdleTime)
	a.setState(StateIdle)
}

func (a *Animal) setState(s AnimalState) {
	if a.state == s {
		return
	}
	a.deps.Log.Trace("%s %s: %s -> %s", a.species, a.id, a.state, s)
	a.state = s
}

func (a *Animal) setHorizontalVelocity(dir vec.Vec3, speed float64) {
	a.velocity.X = dir.X * speed
	a.velocity.Z = dir.Z * speed
}

// onDamage травоядные убегают, хищники переходят в атаку
func (a *Animal) onDamage(float64) {
	if a.hostileCapable {
		a.hostile = true
		a.setState(StateAttacking)
		return
	}
	a.setState(StateFleeing)
}

// onDeath сбрасывает флаги и через ToppleDelay заваливает тушу набок
func (a *Animal) onDeath() {
	a.hostile = false
	a.hostileCapable = false
	a.setState(StateDead)
	a.deps.Sink.LogEvent(fmt.Sprintf("💀 %s погибает", a.species))

	a.after(a.cfg.ToppleDelay, "topple", func() {
		half := math.Pi / 4
		roll := vec.Quat{Z: math.Sin(half), W: math.Cos(half)}
		a.rotation = a.rotation.Mul(roll).Normalized()
		a.toppled = true
	})
}

func randRange(r float64, bounds [2]float64) float64 {
	return bounds[0] + r*(bounds[1]-bounds[0])
}

func sq(v float64) float64 {
	return v * v
}
