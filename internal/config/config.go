package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации симуляции.
type Config struct {
	Simulation SimulationConfig        `yaml:"simulation"`
	Physics    PhysicsConfig           `yaml:"physics"`
	Terrain    TerrainConfig           `yaml:"terrain"`
	Player     PlayerConfig            `yaml:"player"`
	Animals    map[string]AnimalConfig `yaml:"animals"`
	NPC        NPCConfig               `yaml:"npc"`
	Server     ServerConfig            `yaml:"server"`
	Storage    StorageConfig           `yaml:"storage"`
	Telemetry  TelemetryConfig         `yaml:"telemetry"`
	LogLevel   string                  `yaml:"log_level"`
}

// SimulationConfig параметры игрового цикла
type SimulationConfig struct {
	TickRate        int     `yaml:"tick_rate"`         // Кадров в секунду
	MaxDelta        float64 `yaml:"max_delta"`         // Верхняя граница dt в секундах
	WorldHalfSize   float64 `yaml:"world_half_size"`   // Мир: квадрат [-half, half] по X и Z
	BoundsMargin    float64 `yaml:"bounds_margin"`     // Отступ от края для целей блуждания
	CorpseReapDelay float64 `yaml:"corpse_reap_delay"` // Через сколько секунд владелец удаляет труп
}

// PhysicsConfig общие физические константы
type PhysicsConfig struct {
	Gravity          float64 `yaml:"gravity"`
	BroadPhaseRadius float64 `yaml:"broad_phase_radius"`
	Epsilon          float64 `yaml:"epsilon"`
	GroundProbe      float64 `yaml:"ground_probe"`     // Высота начала луча над основанием
	SnapThreshold    float64 `yaml:"snap_threshold"`   // Допуск прилипания к земле
	ContactVelocity  float64 `yaml:"contact_velocity"` // Небольшая отрицательная скорость на земле
	TerminalVelocity float64 `yaml:"terminal_velocity"`
}

// TerrainConfig параметры процедурного рельефа
type TerrainConfig struct {
	Seed      int64   `yaml:"seed"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`     // Метров на единицу шума
	Amplitude float64 `yaml:"amplitude"` // Максимальный перепад высот
	BaseLevel float64 `yaml:"base_level"`
}

// PlayerConfig параметры передвижения игрока
type PlayerConfig struct {
	MaxHealth           float64    `yaml:"max_health"`
	Size                [3]float64 `yaml:"size"` // Ширина, высота, глубина
	WalkSpeed           float64    `yaml:"walk_speed"`
	RunSpeed            float64    `yaml:"run_speed"`
	JumpVelocity        float64    `yaml:"jump_velocity"`
	MaxStamina          float64    `yaml:"max_stamina"`
	StaminaDrain        float64    `yaml:"stamina_drain"` // В секунду при беге
	StaminaRegen        float64    `yaml:"stamina_regen"` // В секунду в покое
	JumpCost            float64    `yaml:"jump_cost"`
	ExhaustionThreshold float64    `yaml:"exhaustion_threshold"` // Доля от MaxStamina
	FallDamageThreshold float64    `yaml:"fall_damage_threshold"`
	FallDamageFactor    float64    `yaml:"fall_damage_factor"`
	HeadBobFrequency    float64    `yaml:"head_bob_frequency"`
	HeadBobAmplitude    float64    `yaml:"head_bob_amplitude"`
}

// AnimalConfig параметры вида животного
type AnimalConfig struct {
	MaxHealth       float64    `yaml:"max_health"`
	Size            [3]float64 `yaml:"size"`
	BaseSpeed       float64    `yaml:"base_speed"`
	Hostile         bool       `yaml:"hostile"`
	DetectionRange  float64    `yaml:"detection_range"`
	AttackRange     float64    `yaml:"attack_range"`
	AttackDamage    float64    `yaml:"attack_damage"`
	AttackCooldown  float64    `yaml:"attack_cooldown"`
	FleeRadius      float64    `yaml:"flee_radius"`
	FleeExitRadius  float64    `yaml:"flee_exit_radius"`
	AggroExitFactor float64    `yaml:"aggro_exit_factor"`
	RunMultiplier   float64    `yaml:"run_multiplier"`
	IdleChance      float64    `yaml:"idle_chance"`
	WanderDistance  [2]float64 `yaml:"wander_distance"`
	WanderTime      [2]float64 `yaml:"wander_time"`
	IdleTime        [2]float64 `yaml:"idle_time"`
	ArriveDistance  float64    `yaml:"arrive_distance"`
	TurnRate        float64    `yaml:"turn_rate"`
	ToppleDelay     float64    `yaml:"topple_delay"`
}

// NPCConfig параметры неигровых персонажей
type NPCConfig struct {
	MaxHealth        float64    `yaml:"max_health"`
	Size             [3]float64 `yaml:"size"`
	LookInterval     [2]float64 `yaml:"look_interval"`
	LookRadius       float64    `yaml:"look_radius"`
	PlayerLookChance float64    `yaml:"player_look_chance"`
	RandomLookChance float64    `yaml:"random_look_chance"`
	LookSpread       float64    `yaml:"look_spread"` // Радианы относительно начального направления
	TurnRate         float64    `yaml:"turn_rate"`
	InteractRadius   float64    `yaml:"interact_radius"`
}

// ServerConfig порты вспомогательных HTTP серверов
type ServerConfig struct {
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// StorageConfig выбор хранилища контрольных точек
type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory | badger | redis
	BadgerPath string `yaml:"badger_path"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// TelemetryConfig настройки OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// GetAPIPort возвращает порт API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "WILDLANDS_API_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "WILDLANDS_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV WILDLANDS_CONFIG; если и он пуст: возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WILDLANDS_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse накладывает YAML на существующую конфигурацию и проверяет результат.
// Виды животных, описанные частично, дополняются значениями вида по умолчанию.
func Parse(data []byte, cfg *Config) error {
	defaults := cfg.Animals
	cfg.Animals = nil

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("разбор YAML: %w", err)
	}

	merged := make(map[string]AnimalConfig, len(defaults))
	for name, a := range defaults {
		merged[name] = a
	}
	if len(cfg.Animals) > 0 {
		var raw struct {
			Animals map[string]yaml.Node `yaml:"animals"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("разбор animals: %w", err)
		}
		for name, node := range raw.Animals {
			base, ok := defaults[name]
			if !ok {
				base = defaults["deer"]
			}
			if err := node.Decode(&base); err != nil {
				return fmt.Errorf("разбор вида %s: %w", name, err)
			}
			merged[name] = base
		}
	}
	cfg.Animals = merged

	return cfg.Validate()
}

// Validate проверяет согласованность параметров
func (c *Config) Validate() error {
	var errs []error

	if c.Simulation.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate должен быть > 0"))
	}
	if c.Simulation.MaxDelta <= 0 {
		errs = append(errs, fmt.Errorf("simulation.max_delta должен быть > 0"))
	}
	if c.Simulation.WorldHalfSize <= c.Simulation.BoundsMargin {
		errs = append(errs, fmt.Errorf("simulation.world_half_size должен превышать bounds_margin"))
	}
	if c.Physics.Gravity <= 0 {
		errs = append(errs, fmt.Errorf("physics.gravity должен быть > 0"))
	}
	if c.Physics.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("physics.epsilon должен быть > 0"))
	}
	if c.Physics.ContactVelocity > 0 {
		errs = append(errs, fmt.Errorf("physics.contact_velocity не может быть положительным"))
	}
	if c.Physics.GroundProbe <= 0 {
		errs = append(errs, fmt.Errorf("physics.ground_probe должен быть > 0"))
	}
	if c.Physics.SnapThreshold < 0 {
		errs = append(errs, fmt.Errorf("physics.snap_threshold не может быть отрицательным"))
	}
	if err := validateSize("player.size", c.Player.Size); err != nil {
		errs = append(errs, err)
	}
	if c.Player.WalkSpeed <= 0 || c.Player.RunSpeed <= 0 {
		errs = append(errs, fmt.Errorf("player.walk_speed и player.run_speed должны быть > 0"))
	}
	if c.Player.MaxStamina <= 0 || c.Player.MaxHealth <= 0 {
		errs = append(errs, fmt.Errorf("player.max_stamina и player.max_health должны быть > 0"))
	}
	if c.Player.ExhaustionThreshold <= 0 || c.Player.ExhaustionThreshold > 1 {
		errs = append(errs, fmt.Errorf("player.exhaustion_threshold должен быть в (0, 1]"))
	}
	for name, a := range c.Animals {
		if err := validateSize("animals."+name+".size", a.Size); err != nil {
			errs = append(errs, err)
		}
		if a.BaseSpeed <= 0 || a.MaxHealth <= 0 {
			errs = append(errs, fmt.Errorf("animals.%s: base_speed и max_health должны быть > 0", name))
		}
		if a.RunMultiplier <= 0 {
			errs = append(errs, fmt.Errorf("animals.%s: run_multiplier должен быть > 0", name))
		}
		if a.FleeExitRadius < a.FleeRadius {
			errs = append(errs, fmt.Errorf("animals.%s: flee_exit_radius меньше flee_radius", name))
		}
		if a.AggroExitFactor < 1 {
			errs = append(errs, fmt.Errorf("animals.%s: aggro_exit_factor должен быть >= 1", name))
		}
		for _, r := range [][2]float64{a.WanderDistance, a.WanderTime, a.IdleTime} {
			if r[0] > r[1] || r[0] < 0 {
				errs = append(errs, fmt.Errorf("animals.%s: неверный диапазон %v", name, r))
			}
		}
	}
	if err := validateSize("npc.size", c.NPC.Size); err != nil {
		errs = append(errs, err)
	}
	if c.NPC.LookInterval[0] > c.NPC.LookInterval[1] || c.NPC.LookInterval[0] <= 0 {
		errs = append(errs, fmt.Errorf("npc.look_interval: неверный диапазон %v", c.NPC.LookInterval))
	}

	return errors.Join(errs...)
}

func validateSize(name string, size [3]float64) error {
	if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
		return fmt.Errorf("%s: все размеры должны быть > 0, получено %v", name, size)
	}
	return nil
}
