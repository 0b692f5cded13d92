package world

import (
	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/aquilax/go-perlin"
)

// Terrain процедурный рельеф на шуме Перлина.
// Реализует physics.GroundProbe.
type Terrain struct {
	noise *perlin.Perlin
	cfg   config.TerrainConfig
}

// NewTerrain создаёт рельеф с параметрами шума из конфигурации
func NewTerrain(cfg config.TerrainConfig) *Terrain {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 3
	}
	return &Terrain{
		noise: perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, cfg.Seed),
		cfg:   cfg,
	}
}

// HeightAt возвращает высоту поверхности в точке (x, z).
// Результат лежит в [BaseLevel, BaseLevel+Amplitude].
func (t *Terrain) HeightAt(x, z float64) float64 {
	if t.cfg.Amplitude == 0 {
		return t.cfg.BaseLevel
	}

	// Шум от -1 до 1 переводим в 0..1
	n := (t.noise.Noise2D(x/t.cfg.Scale, z/t.cfg.Scale) + 1.0) / 2.0
	return t.cfg.BaseLevel + vec.Clamp(n, 0, 1)*t.cfg.Amplitude
}

// CastDown бросает луч вниз из origin длиной maxDist.
// Попадание есть, если поверхность лежит на отрезке луча.
func (t *Terrain) CastDown(origin vec.Vec3, maxDist float64) (float64, bool) {
	h := t.HeightAt(origin.X, origin.Z)
	if origin.Y < h || origin.Y-h > maxDist {
		return 0, false
	}
	return h, true
}
