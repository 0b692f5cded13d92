package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/wildlands/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wildlands"

// SimMetrics Prometheus-метрики игрового цикла.
// Все методы безопасно вызывать на nil.
type SimMetrics struct {
	tickDuration     prometheus.Histogram
	frames           prometheus.Counter
	dtClamped        prometheus.Counter
	updateFailures   prometheus.Counter
	collisionPushes  prometheus.Counter
	collisionSkipped prometheus.Counter
	collisionFailed  prometheus.Counter
	reaped           prometheus.Counter
	entities         *prometheus.GaugeVec
	playerHealth     prometheus.Gauge
	playerStamina    prometheus.Gauge
}

// NewSimMetrics создаёт метрики и регистрирует их в reg (по умолчанию: глобальный регистр)
func NewSimMetrics(reg prometheus.Registerer) (*SimMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &SimMetrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "tick_duration_seconds",
			Help:      "Время обработки одного кадра симуляции.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.05},
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "frames_total",
			Help:      "Обработано кадров.",
		}),
		dtClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "dt_clamped_total",
			Help:      "Кадров, у которых dt был урезан до максимума.",
		}),
		updateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "entity_update_failures_total",
			Help:      "Перехваченных ошибок обновления сущностей.",
		}),
		collisionPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physics",
			Name:      "collision_pushes_total",
			Help:      "Выталкиваний игрока из препятствий.",
		}),
		collisionSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physics",
			Name:      "collision_skipped_total",
			Help:      "Коллайдеров, пропущенных из-за отсутствия бокса.",
		}),
		collisionFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physics",
			Name:      "collision_failed_total",
			Help:      "Коллайдеров, проверка которых завершилась ошибкой.",
		}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "corpses_reaped_total",
			Help:      "Удалённых трупов.",
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "entities",
			Help:      "Количество сущностей по виду и состоянию.",
		}, []string{"kind", "status"}),
		playerHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "health",
			Help:      "Текущее здоровье игрока.",
		}),
		playerStamina: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "stamina",
			Help:      "Текущая выносливость игрока.",
		}),
	}

	collectors := []prometheus.Collector{
		m.tickDuration, m.frames, m.dtClamped, m.updateFailures,
		m.collisionPushes, m.collisionSkipped, m.collisionFailed,
		m.reaped, m.entities, m.playerHealth, m.playerStamina,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveTick учитывает обработанный кадр
func (m *SimMetrics) ObserveTick(d time.Duration, clamped bool) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.tickDuration.Observe(d.Seconds())
	if clamped {
		m.dtClamped.Inc()
	}
}

// ObserveCollision учитывает результат прохода резолвера
func (m *SimMetrics) ObserveCollision(pushes, skipped, failed int) {
	if m == nil {
		return
	}
	m.collisionPushes.Add(float64(pushes))
	m.collisionSkipped.Add(float64(skipped))
	m.collisionFailed.Add(float64(failed))
}

// ObserveUpdateFailures учитывает перехваченные ошибки обновления
func (m *SimMetrics) ObserveUpdateFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.updateFailures.Add(float64(n))
}

// ObserveReaped учитывает удалённые трупы
func (m *SimMetrics) ObserveReaped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reaped.Add(float64(n))
}

// SetEntities выставляет количество живых и мёртвых сущностей вида kind
func (m *SimMetrics) SetEntities(kind string, alive, dead int) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues(kind, "alive").Set(float64(alive))
	m.entities.WithLabelValues(kind, "dead").Set(float64(dead))
}

// SetPlayer выставляет показатели игрока
func (m *SimMetrics) SetPlayer(health, stamina float64) {
	if m == nil {
		return
	}
	m.playerHealth.Set(health)
	m.playerStamina.Set(stamina)
}

// Server HTTP-эндпоинт /metrics
type Server struct {
	srv *http.Server
	log *logging.Logger
}

// NewServer создаёт сервер метрик для указанного регистра
func NewServer(addr string, gatherer prometheus.Gatherer, logger *logging.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log: logger,
	}
}

// Start запускает сервер в отдельной горутине
func (s *Server) Start() {
	go func() {
		s.log.Info("📈 Prometheus /metrics доступен по адресу %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
