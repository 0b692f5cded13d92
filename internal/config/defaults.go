package config

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:        60,
			MaxDelta:        0.05,
			WorldHalfSize:   200,
			BoundsMargin:    5,
			CorpseReapDelay: 30,
		},
		Physics: PhysicsConfig{
			Gravity:          20,
			BroadPhaseRadius: 10,
			Epsilon:          0.001,
			GroundProbe:      1.0,
			SnapThreshold:    0.3,
			ContactVelocity:  -0.1,
			TerminalVelocity: 20,
		},
		Terrain: TerrainConfig{
			Seed:      1337,
			Alpha:     2.0,
			Beta:      2.0,
			Octaves:   3,
			Scale:     60,
			Amplitude: 8,
			BaseLevel: 0,
		},
		Player: PlayerConfig{
			MaxHealth:           100,
			Size:                [3]float64{0.8, 2, 0.8},
			WalkSpeed:           4,
			RunSpeed:            8,
			JumpVelocity:        8,
			MaxStamina:          100,
			StaminaDrain:        20,
			StaminaRegen:        10,
			JumpCost:            10,
			ExhaustionThreshold: 0.2,
			FallDamageThreshold: 10,
			FallDamageFactor:    4,
			HeadBobFrequency:    10,
			HeadBobAmplitude:    0.05,
		},
		Animals: DefaultAnimals(),
		NPC: NPCConfig{
			MaxHealth:        100,
			Size:             [3]float64{0.8, 1.9, 0.8},
			LookInterval:     [2]float64{3, 7},
			LookRadius:       8,
			PlayerLookChance: 0.7,
			RandomLookChance: 0.5,
			LookSpread:       1.0,
			TurnRate:         4,
			InteractRadius:   3,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			BadgerPath: "data/checkpoints",
			RedisAddr:  "localhost:6379",
			KeyPrefix:  "wildlands:checkpoint:",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "wildlands-sim",
		},
		LogLevel: "info",
	}
}

// DefaultAnimals возвращает параметры встроенных видов
func DefaultAnimals() map[string]AnimalConfig {
	passive := AnimalConfig{
		MaxHealth:       30,
		Size:            [3]float64{0.8, 1.2, 1.4},
		BaseSpeed:       2.5,
		DetectionRange:  0,
		AttackRange:     0,
		FleeRadius:      10,
		FleeExitRadius:  20,
		AggroExitFactor: 1.2,
		RunMultiplier:   1.5,
		IdleChance:      0.3,
		WanderDistance:  [2]float64{10, 25},
		WanderTime:      [2]float64{5, 10},
		IdleTime:        [2]float64{2, 5},
		ArriveDistance:  1.0,
		TurnRate:        6,
		ToppleDelay:     1.0,
	}

	rabbit := passive
	rabbit.MaxHealth = 10
	rabbit.Size = [3]float64{0.4, 0.4, 0.5}
	rabbit.BaseSpeed = 3.5

	hostile := passive
	hostile.Hostile = true
	hostile.MaxHealth = 50
	hostile.Size = [3]float64{0.7, 0.9, 1.3}
	hostile.BaseSpeed = 3.5
	hostile.DetectionRange = 20
	hostile.AttackRange = 1.8
	hostile.AttackDamage = 10
	hostile.AttackCooldown = 1.5

	bear := hostile
	bear.MaxHealth = 120
	bear.Size = [3]float64{1.4, 1.6, 2.2}
	bear.BaseSpeed = 2.8
	bear.DetectionRange = 12
	bear.AttackRange = 2.5
	bear.AttackDamage = 25
	bear.AttackCooldown = 2.5

	return map[string]AnimalConfig{
		"deer":   passive,
		"rabbit": rabbit,
		"wolf":   hostile,
		"bear":   bear,
	}
}
