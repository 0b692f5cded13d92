package entity

import (
	"fmt"
	"math"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/vec"
)

const (
	// exhaustionHintDelay через сколько секунд после истощения напомнить игроку
	exhaustionHintDelay = 2.0
	// bobSettleRate скорость возврата камеры при остановке
	bobSettleRate = 10.0
	// minBobSpeed ниже этой горизонтальной скорости покачивание затухает
	minBobSpeed = 0.1
)

// Input намерения игрока на текущий кадр
type Input struct {
	Forward float64 // -1..1, вперёд по направлению взгляда
	Right   float64 // -1..1, вправо
	Sprint  bool
	Jump    bool    // Фронт нажатия; сбрасывается после кадра
	Yaw     float64 // Направление взгляда в радианах
}

// Player кинематическое состояние игрока
type Player struct {
	*Base

	cfg   config.PlayerConfig
	input Input

	stamina   float64
	grounded  bool
	canJump   bool
	sprinting bool
	exhausted bool

	lastFallDamage float64

	bobPhase  float64
	bobOffset float64
}

// NewPlayer создаёт игрока с полной выносливостью. Игрок считается в воздухе до первой проверки земли.
func NewPlayer(id string, cfg config.PlayerConfig, position vec.Vec3, deps Deps) (*Player, error) {
	if cfg.MaxStamina <= 0 {
		return nil, fmt.Errorf("player %s: max stamina must be positive", id)
	}

	base, err := NewBase(id, KindPlayer, position, sizeFrom(cfg.Size), cfg.MaxHealth, deps)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", id, err)
	}
	base.interactable = false

	return &Player{
		Base:    base,
		cfg:     cfg,
		stamina: cfg.MaxStamina,
	}, nil
}

// SetInput задаёт ввод на следующий кадр
func (p *Player) SetInput(in Input) { p.input = in }

// Input возвращает текущий ввод
func (p *Player) Input() Input { return p.input }

func (p *Player) Stamina() float64 { return p.stamina }
func (p *Player) MaxStamina() float64 { return p.cfg.MaxStamina }
func (p *Player) IsGrounded() bool { return p.grounded }
func (p *Player) CanJump() bool { return p.canJump }
func (p *Player) IsSprinting() bool { return p.sprinting }
func (p *Player) IsExhausted() bool { return p.exhausted }

// HeadBob вертикальное смещение камеры от покачивания при ходьбе
func (p *Player) HeadBob() float64 { return p.bobOffset }

// LastFallDamage урон последнего приземления (0, если урона не было)
func (p *Player) LastFallDamage() float64 { return p.lastFallDamage }

// RestoreStamina выставляет выносливость из контрольной точки.
// Истощение снимается только после порога, как и при обычном восстановлении.
func (p *Player) RestoreStamina(v float64) {
	if math.IsNaN(v) {
		return
	}
	p.stamina = vec.Clamp(v, 0, p.cfg.MaxStamina)
	switch {
	case p.stamina == 0:
		p.exhausted = true
		p.sprinting = false
	case p.stamina >= p.cfg.ExhaustionThreshold*p.cfg.MaxStamina:
		p.exhausted = false
	}
}

// Update выполняет кадр передвижения игрока:
// выносливость, горизонтальная скорость, прыжок, гравитация,
// горизонтальный шаг с проверкой земли, вертикальный шаг, урон от падения.
func (p *Player) Update(f *Frame) {
	p.advance(f.Now)
	dt := f.DT
	if dt <= 0 {
		return
	}

	in := p.input
	p.input.Jump = false
	if p.dead {
		in = Input{Yaw: in.Yaw}
	}

	move := vec.Vec2{X: in.Right, Y: in.Forward}
	moving := move.LengthSq() > 0
	wasGrounded := p.grounded

	// 1. Выносливость
	p.updateStamina(dt, in.Sprint && moving)

	// 2. Желаемая горизонтальная скорость в системе взгляда
	speed := p.cfg.WalkSpeed
	if p.sprinting {
		speed = p.cfg.RunSpeed
	}
	dir := move.Normalized().RotateYaw(in.Yaw)
	p.velocity.X = dir.X * speed
	p.velocity.Z = dir.Z * speed
	p.rotation = vec.QuatFromYaw(in.Yaw)

	// 3. Прыжок
	if in.Jump && p.grounded && p.canJump && p.stamina >= p.cfg.JumpCost {
		p.velocity.Y = p.cfg.JumpVelocity
		p.spendStamina(p.cfg.JumpCost)
		p.grounded = false
		p.canJump = false
	}

	// 4. Гравитация
	phys := p.deps.Physics
	if p.grounded && p.velocity.Y <= 0 {
		p.velocity.Y = phys.ContactVelocity
	} else {
		p.velocity.Y -= phys.Gravity * dt
		if phys.TerminalVelocity > 0 && p.velocity.Y < -phys.TerminalVelocity {
			p.velocity.Y = -phys.TerminalVelocity
		}
	}
	fallSpeed := -p.velocity.Y

	// 5. Горизонтальный шаг и проверка земли
	pos := p.position
	pos.X += p.velocity.X * dt
	pos.Z += p.velocity.Z * dt
	if !p.deps.Bounds.IsZero() {
		pos = p.deps.Bounds.Clamp(pos, 0)
	}

	origin := vec.Vec3{X: pos.X, Y: pos.Y + phys.GroundProbe, Z: pos.Z}
	hitY, ok := p.deps.Ground.CastDown(origin, phys.GroundProbe+phys.SnapThreshold)
	if ok && p.velocity.Y <= 0 {
		pos.Y = hitY
		p.velocity.Y = 0
		p.grounded = true
		p.canJump = true
	} else {
		p.grounded = false
	}

	// 6. Вертикальный шаг
	pos.Y += p.velocity.Y * dt
	p.SetPosition(pos)

	// 7. Урон от падения при переходе из воздуха на землю
	if !wasGrounded && p.grounded {
		p.applyFallDamage(fallSpeed)
	}

	p.updateHeadBob(dt)
}

// Land приземление на объект (платформу, камень) по результату выталкивания
func (p *Player) Land(fallSpeed float64) {
	wasGrounded := p.grounded
	p.velocity.Y = 0
	p.grounded = true
	p.canJump = true

	if !wasGrounded {
		p.applyFallDamage(fallSpeed)
	}
}

// updateStamina расход при беге и восстановление в остальное время (вдвое медленнее при истощении).
// Истощение наступает на нуле и снимается только после порога ExhaustionThreshold.
func (p *Player) updateStamina(dt float64, wantsSprint bool) {
	if wantsSprint && !p.exhausted && !p.dead {
		p.sprinting = true
		p.spendStamina(p.cfg.StaminaDrain * dt)
	} else {
		p.sprinting = false
		regen := p.cfg.StaminaRegen * dt
		if p.exhausted {
			regen *= 0.5
		}
		p.stamina = math.Min(p.cfg.MaxStamina, p.stamina+regen)
	}

	if p.exhausted && p.stamina >= p.cfg.ExhaustionThreshold*p.cfg.MaxStamina {
		p.exhausted = false
		p.deps.Log.Debug("игрок %s восстановил дыхание", p.id)
	}
}

// spendStamina списывает выносливость; на нуле игрок истощается
func (p *Player) spendStamina(amount float64) {
	p.stamina = math.Max(0, p.stamina-amount)
	if p.stamina > 0 || p.exhausted {
		return
	}

	p.exhausted = true
	p.sprinting = false
	p.deps.Sink.LogEvent("😮‍💨 Вы выдохлись")

	p.events.Cancel("exhaustion_hint")
	p.after(exhaustionHintDelay, "exhaustion_hint", func() {
		if p.exhausted && !p.dead {
			p.deps.Sink.LogEvent("Отдышитесь, прежде чем снова бежать")
		}
	})
}

// applyFallDamage damage = round((fallSpeed - threshold) * factor)
func (p *Player) applyFallDamage(fallSpeed float64) {
	p.lastFallDamage = 0
	if fallSpeed <= p.cfg.FallDamageThreshold {
		return
	}

	damage := math.Round((fallSpeed - p.cfg.FallDamageThreshold) * p.cfg.FallDamageFactor)
	if damage <= 0 {
		return
	}
	p.lastFallDamage = damage
	p.deps.Log.Debug("игрок %s: падение со скоростью %.2f, урон %.0f", p.id, fallSpeed, damage)
	TakeDamage(p, damage)
}

func (p *Player) updateHeadBob(dt float64) {
	speed := p.horizontalSpeed()
	if !p.grounded || speed < minBobSpeed || p.cfg.WalkSpeed <= 0 {
		p.bobOffset = vec.Damp(p.bobOffset, 0, bobSettleRate, dt)
		return
	}
	p.bobPhase += dt * p.cfg.HeadBobFrequency * (speed / p.cfg.WalkSpeed)
	p.bobOffset = math.Sin(p.bobPhase) * p.cfg.HeadBobAmplitude
}

func (p *Player) onDamage(amount float64) {
	p.deps.Sink.LogEvent(fmt.Sprintf("❤️ Получен урон: %.0f (здоровье %.0f/%.0f)", amount, p.health, p.maxHealth))
}

func (p *Player) onDeath() {
	p.sprinting = false
	p.events.Clear()
	p.deps.Sink.LogEvent("☠️ Вы погибли")
}
