package entity

import (
	"math"

	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/vec"
)

// Frame входные данные одного кадра.
// Позиция игрока снимается один раз до цикла по сущностям и не меняется внутри кадра.
type Frame struct {
	DT        float64
	Now       float64
	Player    *Player
	PlayerPos vec.Vec3
	HasPlayer bool
	Colliders []physics.Collider
}

// NewFrame собирает кадр и снимает снимок позиции игрока.
// Отсутствующий или мёртвый игрок: допустимый режим: дистанция до него бесконечна.
func NewFrame(dt, now float64, player *Player, colliders []physics.Collider) *Frame {
	f := &Frame{DT: dt, Now: now, Player: player, Colliders: colliders}
	if player != nil && !player.IsDead() {
		f.PlayerPos = player.Position()
		f.HasPlayer = true
	}
	return f
}

// DistanceSqToPlayer квадрат расстояния до игрока или +Inf без игрока
func (f *Frame) DistanceSqToPlayer(p vec.Vec3) float64 {
	if f == nil || !f.HasPlayer {
		return math.Inf(1)
	}
	return p.DistanceSqTo(f.PlayerPos)
}
