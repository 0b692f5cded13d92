package entity

import (
	"io"
	"math/rand"
	"sync"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/vec"
)

// recorder собирает сообщения для игрока
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) LogEvent(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func testDeps(seed int64) Deps {
	cfg := config.Default()
	return Deps{
		Log:     logging.NewConsoleLogger("test", io.Discard, logging.ERROR),
		Sink:    NopSink{},
		Rand:    rand.New(rand.NewSource(seed)),
		Ground:  physics.FlatGround{Y: 0},
		Bounds:  physics.SquareBounds(cfg.Simulation.WorldHalfSize),
		Margin:  cfg.Simulation.BoundsMargin,
		Physics: cfg.Physics,
	}
}

func newTestPlayer(pos vec.Vec3, deps Deps) *Player {
	p, err := NewPlayer("player", config.Default().Player, pos, deps)
	if err != nil {
		panic(err)
	}
	return p
}

func newTestAnimal(species string, pos vec.Vec3, deps Deps) *Animal {
	cfg, err := LookupSpecies(config.DefaultAnimals(), species)
	if err != nil {
		panic(err)
	}
	a, err := NewAnimal(species+"-1", species, cfg, pos, deps)
	if err != nil {
		panic(err)
	}
	return a
}
