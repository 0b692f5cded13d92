package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/wildlands/internal/api"
	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/eventbus"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/metrics"
	"github.com/annel0/wildlands/internal/observability"
	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/quest"
	"github.com/annel0/wildlands/internal/storage"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/annel0/wildlands/internal/world"
	"github.com/annel0/wildlands/internal/world/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const playerID = "player"

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $WILDLANDS_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("simd"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(*configPath); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Симуляция успешно остановлена")
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Логгеры компонентов пишут каждый в свой файл
	lm := logging.GetLoggerManager()
	defer lm.CloseAll()
	simLog := logging.GetSimLogger()
	apiLog := logging.GetAPILogger()
	storageLog := logging.GetStorageLogger()

	if level, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		logging.Default().SetLevels(level, logging.DEBUG)
		for _, component := range lm.ListComponents() {
			_ = lm.SetLogLevel(component, level, logging.DEBUG)
		}
	} else {
		logging.Warn("⚠️ Неизвестный уровень логов %q, используется INFO", cfg.LogLevel)
	}

	logging.Info("🌲 Запуск симуляции Wildlands (tick=%d Гц)", cfg.Simulation.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	simMetrics, err := metrics.NewSimMetrics(registry)
	if err != nil {
		return fmt.Errorf("метрики симуляции: %w", err)
	}

	// === ШИНА СОБЫТИЙ ===
	bus := eventbus.NewMemoryBus(1024)
	defer bus.Close()

	feedback, err := eventbus.NewFeedbackLog(ctx, bus, 50)
	if err != nil {
		return fmt.Errorf("журнал сообщений: %w", err)
	}
	defer feedback.Close()

	if _, err := eventbus.StartLoggingListener(bus, simLog); err != nil {
		return fmt.Errorf("логирование событий: %w", err)
	}

	exporter, err := eventbus.NewMetricsExporter(bus, registry, 5*time.Second)
	if err != nil {
		return fmt.Errorf("метрики шины: %w", err)
	}
	exporter.Start()
	defer exporter.Stop()

	// === СИМУЛЯЦИЯ ===
	journal := quest.NewJournal(quest.NewInventory())
	sim, err := world.New(world.Options{
		Config:  cfg,
		Logger:  simLog,
		Sink:    eventbus.NewSink(bus, "sim", simLog),
		Metrics: simMetrics,
		Quests:  journal,
	})
	if err != nil {
		return err
	}
	if err := populate(sim); err != nil {
		return fmt.Errorf("заселение мира: %w", err)
	}

	// === КОНТРОЛЬНЫЕ ТОЧКИ ===
	repo, err := storage.Open(ctx, cfg.Storage, storageLog)
	if err != nil {
		return fmt.Errorf("хранилище контрольных точек: %w", err)
	}
	defer repo.Close()

	if cp, err := repo.Load(ctx, playerID); err == nil {
		if err := sim.Restore(cp); err != nil {
			logging.Warn("⚠️ Контрольная точка игрока отклонена: %v", err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		logging.Warn("⚠️ Не удалось прочитать контрольную точку: %v", err)
	}

	// === HTTP СЕРВЕРЫ ===
	metricsServer := metrics.NewServer(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()), registry, apiLog)
	metricsServer.Start()

	apiServer, err := api.NewRestServer(api.Config{
		Addr:     fmt.Sprintf(":%d", cfg.Server.GetAPIPort()),
		World:    sim,
		Feedback: feedback,
		Quests:   journal,
		Logger:   apiLog,
		Registry: registry,
	})
	if err != nil {
		return fmt.Errorf("inspection API: %w", err)
	}
	apiServer.Start()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetAPIPort())
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())

	// Блокируется до SIGINT/SIGTERM
	runErr := sim.Run(ctx)

	// === GRACEFUL SHUTDOWN ===
	logging.Debug("Остановка сервисов...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cp, err := sim.Checkpoint(); err == nil {
		if err := repo.Save(shutdownCtx, cp); err != nil {
			logging.Error("❌ Ошибка сохранения контрольной точки: %v", err)
		} else {
			logging.Info("💾 Контрольная точка игрока сохранена")
		}
	}

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
	}
	return runErr
}

// populate заселяет стартовую поляну: игрок, стада, охотник с заданием и камни
func populate(sim *world.Simulation) error {
	if _, err := sim.SpawnPlayer(playerID, vec.Vec3{}); err != nil {
		return err
	}

	herds := []struct {
		species string
		count   int
		center  vec.Vec3
		radius  float64
	}{
		{"deer", 6, vec.Vec3{X: 30, Z: 20}, 10},
		{"rabbit", 8, vec.Vec3{X: -15, Z: 25}, 8},
		{"wolf", 3, vec.Vec3{X: -60, Z: -50}, 6},
		{"bear", 1, vec.Vec3{X: 80, Z: -70}, 0},
	}
	for _, h := range herds {
		if _, err := sim.SpawnHerd(h.species, h.count, h.center, h.radius); err != nil {
			return err
		}
	}

	pelts := quest.Quest{ID: "winter_pelts", Title: "Шкуры для зимы", Item: "pelt", Count: 3}
	if _, err := sim.SpawnNPC("hunter", vec.Vec3{X: 6, Z: 6}, entity.NPCParams{
		Name:  "Охотник Ярослав",
		Role:  "villager",
		Yaw:   3.14,
		Quest: &pelts,
	}); err != nil {
		return err
	}

	rocks := []struct {
		id   string
		x, z float64
		size vec.Vec3
	}{
		{"rock-1", 10, -4, vec.Vec3{X: 2, Y: 1.5, Z: 2}},
		{"rock-2", -8, 12, vec.Vec3{X: 3, Y: 1, Z: 1.5}},
		{"log-1", 4, 15, vec.Vec3{X: 5, Y: 0.6, Z: 0.6}},
	}
	for _, r := range rocks {
		base := vec.Vec3{X: r.x, Y: sim.GroundHeight(r.x, r.z), Z: r.z}
		if err := sim.AddStatic(physics.NewStaticBody(r.id, physics.FromBase(base, r.size))); err != nil {
			return err
		}
	}
	return nil
}
