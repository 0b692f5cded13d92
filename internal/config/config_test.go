package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.05, cfg.Simulation.MaxDelta, "dt ограничен 50 мс")
	assert.True(t, cfg.Animals["wolf"].Hostile)
	assert.False(t, cfg.Animals["deer"].Hostile)
	assert.Equal(t, 10.0, cfg.Animals["deer"].FleeRadius)
	assert.Equal(t, 20.0, cfg.Animals["deer"].FleeExitRadius)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv("WILDLANDS_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	content := `
simulation:
  tick_rate: 30
player:
  run_speed: 9.5
animals:
  wolf:
    detection_range: 25
  boar:
    hostile: true
    base_speed: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Simulation.TickRate)
	assert.Equal(t, 0.05, cfg.Simulation.MaxDelta, "незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, 9.5, cfg.Player.RunSpeed)
	assert.Equal(t, 4.0, cfg.Player.WalkSpeed)

	wolf := cfg.Animals["wolf"]
	assert.Equal(t, 25.0, wolf.DetectionRange)
	assert.Equal(t, 10.0, wolf.AttackDamage, "частично описанный вид дополняется значениями по умолчанию")

	boar, ok := cfg.Animals["boar"]
	require.True(t, ok)
	assert.True(t, boar.Hostile)
	assert.Equal(t, 3.0, boar.BaseSpeed)

	_, ok = cfg.Animals["deer"]
	assert.True(t, ok, "встроенные виды остаются")
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0644))
	t.Setenv("WILDLANDS_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate_RejectsBrokenValues(t *testing.T) {
	cfg := Default()
	cfg.Player.Size = [3]float64{0.8, 0, 0.8}
	cfg.Physics.ContactVelocity = 0.5

	deer := cfg.Animals["deer"]
	deer.FleeExitRadius = 5
	deer.WanderDistance = [2]float64{25, 10}
	cfg.Animals["deer"] = deer

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player.size")
	assert.Contains(t, err.Error(), "contact_velocity")
	assert.Contains(t, err.Error(), "flee_exit_radius")
	assert.Contains(t, err.Error(), "неверный диапазон")
}

func TestValidate_RejectsNonPositiveSpeedsAndProbe(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"отрицательная скорость шага", func(c *Config) { c.Player.WalkSpeed = -4 }, "player.walk_speed"},
		{"нулевая скорость бега", func(c *Config) { c.Player.RunSpeed = 0 }, "player.run_speed"},
		{"нулевой множитель бега", func(c *Config) {
			wolf := c.Animals["wolf"]
			wolf.RunMultiplier = 0
			c.Animals["wolf"] = wolf
		}, "animals.wolf: run_multiplier"},
		{"нулевой луч земли", func(c *Config) { c.Physics.GroundProbe = 0 }, "physics.ground_probe"},
		{"отрицательный порог прилипания", func(c *Config) { c.Physics.SnapThreshold = -1 }, "physics.snap_threshold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	cfg := Default()
	cfg.Physics.SnapThreshold = 0
	assert.NoError(t, cfg.Validate(), "нулевой порог прилипания допустим")
}

func TestServerConfig_PortFallback(t *testing.T) {
	s := ServerConfig{}

	t.Setenv("WILDLANDS_API_PORT", "9090")
	assert.Equal(t, 9090, s.GetAPIPort())

	t.Setenv("WILDLANDS_METRICS_PORT", "garbage")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.APIPort = 7000
	assert.Equal(t, 7000, s.GetAPIPort())
}
