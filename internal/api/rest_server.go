package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/annel0/wildlands/internal/eventbus"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/middleware"
	"github.com/annel0/wildlands/internal/quest"
	"github.com/annel0/wildlands/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SnapshotSource источник снимков мира
type SnapshotSource interface {
	Snapshot() *world.Snapshot
}

// FeedbackSource последние сообщения игроку
type FeedbackSource interface {
	Recent() []eventbus.Feedback
}

// QuestSource журнал заданий
type QuestSource interface {
	Quests() []quest.Quest
	Progress(id string) (quest.Progress, bool)
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string // адрес для запуска сервера
	World    SnapshotSource
	Feedback FeedbackSource // может быть nil
	Quests   QuestSource    // может быть nil
	Logger   *logging.Logger
	Registry prometheus.Registerer
}

// RestServer read-only HTTP API для просмотра состояния симуляции
type RestServer struct {
	router   *gin.Engine
	srv      *http.Server
	world    SnapshotSource
	feedback FeedbackSource
	quests   QuestSource
	metrics  *ServerMetrics
	log      *logging.Logger
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.World == nil {
		return nil, errors.New("api: snapshot source is required")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Logger == nil {
		config.Logger = logging.Default()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("inspect_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw, err := middleware.NewPrometheusMiddleware("inspect_api", config.Registry)
	if err != nil {
		return nil, err
	}
	router.Use(promMw.Handler())

	server := &RestServer{
		router:   router,
		world:    config.World,
		feedback: config.Feedback,
		quests:   config.Quests,
		metrics:  NewServerMetrics(),
		log:      config.Logger,
	}
	server.srv = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/entities", rs.handleEntities)
		api.GET("/entities/:id", rs.handleEntity)
		api.GET("/stats", rs.handleStats)
		api.GET("/feedback", rs.handleFeedback)
		api.GET("/quests", rs.handleQuests)
	}
}

// Handler возвращает HTTP-обработчик (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает сервер в отдельной горутине
func (rs *RestServer) Start() {
	go func() {
		rs.log.Info("🌐 Inspection API доступен по адресу %s", rs.srv.Addr)
		if err := rs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.log.Error("Ошибка HTTP сервера API: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.srv.Shutdown(ctx)
}

// handleHealth проверка состояния сервера и ресурсов процесса
func (rs *RestServer) handleHealth(c *gin.Context) {
	snap := rs.world.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"frame":   snap.Frame,
		"process": rs.metrics.Collect(),
	})
}

// handleEntities список сущностей; фильтры ?kind=animal|npc|player и ?alive=true
func (rs *RestServer) handleEntities(c *gin.Context) {
	snap := rs.world.Snapshot()
	kind := c.Query("kind")
	aliveOnly := c.Query("alive") == "true"

	out := make([]world.EntitySnapshot, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		if kind != "" && e.Kind.String() != kind {
			continue
		}
		if aliveOnly && e.Dead {
			continue
		}
		out = append(out, e)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сущности получены",
		Data: gin.H{
			"frame":    snap.Frame,
			"time":     snap.Time,
			"entities": out,
		},
	})
}

// handleEntity одна сущность по ID
func (rs *RestServer) handleEntity(c *gin.Context) {
	id := c.Param("id")
	e, ok := rs.world.Snapshot().Find(id)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Сущность не найдена",
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сущность получена",
		Data:    e,
	})
}

// EntityStats сводка по сущностям снимка
type EntityStats struct {
	Frame  uint64         `json:"frame"`
	Time   float64        `json:"time"`
	Total  int            `json:"total"`
	Alive  int            `json:"alive"`
	Dead   int            `json:"dead"`
	ByKind map[string]int `json:"by_kind"`
	States map[string]int `json:"animal_states"`
}

// handleStats возвращает статистику сущностей
func (rs *RestServer) handleStats(c *gin.Context) {
	snap := rs.world.Snapshot()
	stats := EntityStats{
		Frame:  snap.Frame,
		Time:   snap.Time,
		ByKind: make(map[string]int),
		States: make(map[string]int),
	}
	for _, e := range snap.Entities {
		stats.Total++
		if e.Dead {
			stats.Dead++
		} else {
			stats.Alive++
		}
		stats.ByKind[e.Kind.String()]++
		if e.State != "" {
			stats.States[e.State]++
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleFeedback последние сообщения игроку
func (rs *RestServer) handleFeedback(c *gin.Context) {
	items := []eventbus.Feedback{}
	if rs.feedback != nil {
		items = append(items, rs.feedback.Recent()...)
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сообщения получены",
		Data:    items,
	})
}

// handleQuests прогресс по всем заданиям
func (rs *RestServer) handleQuests(c *gin.Context) {
	progress := []quest.Progress{}
	if rs.quests != nil {
		for _, q := range rs.quests.Quests() {
			if p, ok := rs.quests.Progress(q.ID); ok {
				progress = append(progress, p)
			}
		}
	}
	sort.Slice(progress, func(i, j int) bool { return progress[i].Quest.ID < progress[j].Quest.ID })

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Задания получены",
		Data:    progress,
	})
}
