package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/logging"
	"github.com/annel0/wildlands/internal/metrics"
	"github.com/annel0/wildlands/internal/observability"
	"github.com/annel0/wildlands/internal/physics"
	"github.com/annel0/wildlands/internal/quest"
	"github.com/annel0/wildlands/internal/storage"
	"github.com/annel0/wildlands/internal/vec"
	"github.com/annel0/wildlands/internal/world/entity"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoPlayer игрок не создан
	ErrNoPlayer = errors.New("world: no player")
	// ErrPlayerExists игрок уже создан
	ErrPlayerExists = errors.New("world: player already spawned")
	// ErrEntityNotFound сущность с таким ID не найдена
	ErrEntityNotFound = errors.New("world: entity not found")
	// ErrOutOfRange игрок слишком далеко для взаимодействия
	ErrOutOfRange = errors.New("world: target out of interaction range")
)

// terrainCollider ID рельефа в списке коллайдеров; резолвер его пропускает
const terrainCollider = "terrain"

// Options зависимости симуляции. Незаданные поля заполняются значениями по умолчанию.
type Options struct {
	Config  *config.Config
	Logger  *logging.Logger
	Sink    entity.EventSink
	Metrics *metrics.SimMetrics
	Tracer  trace.Tracer
	Rand    *rand.Rand
	Ground  physics.GroundProbe // По умолчанию: рельеф из Config.Terrain
	Quests  *quest.Journal
}

// StepReport итог одного кадра
type StepReport struct {
	Frame     uint64
	DT        float64
	Clamped   bool
	Collision physics.Result
	Updated   int
	Failures  []entity.UpdateFailure
	Reaped    []string
	Duration  time.Duration
}

// Simulation владеет игроком, сущностями и статическими объектами и прогоняет кадры
type Simulation struct {
	cfg      *config.Config
	log      *logging.Logger
	deps     entity.Deps
	resolver *physics.Resolver
	manager  *entity.Manager
	quests   *quest.Journal
	metrics  *metrics.SimMetrics
	tracer   trace.Tracer

	mu      sync.Mutex
	player  *entity.Player
	statics []*physics.StaticBody
	now     float64
	frame   uint64

	snapshot atomic.Value // *Snapshot
}

// New создаёт пустую симуляцию
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация симуляции: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ground := opts.Ground
	if ground == nil {
		ground = NewTerrain(cfg.Terrain)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.Tracer("sim")
	}
	quests := opts.Quests
	if quests == nil {
		quests = quest.NewJournal(quest.NewInventory())
	}

	s := &Simulation{
		cfg: cfg,
		log: logger,
		deps: entity.Deps{
			Log:     logger,
			Sink:    opts.Sink,
			Rand:    rng,
			Ground:  ground,
			Bounds:  physics.SquareBounds(cfg.Simulation.WorldHalfSize),
			Margin:  cfg.Simulation.BoundsMargin,
			Physics: cfg.Physics,
		},
		resolver: physics.NewResolver(physics.ResolverConfig{
			BroadPhaseRadius: cfg.Physics.BroadPhaseRadius,
			Epsilon:          cfg.Physics.Epsilon,
		}, logger),
		manager: entity.NewManager(logger),
		quests:  quests,
		metrics: opts.Metrics,
		tracer:  tracer,
	}
	s.snapshot.Store(&Snapshot{Entities: []EntitySnapshot{}})
	return s, nil
}

// Deps зависимости, с которыми создаются сущности симуляции
func (s *Simulation) Deps() entity.Deps { return s.deps }

// Manager реестр автономных сущностей
func (s *Simulation) Manager() *entity.Manager { return s.manager }

// Quests журнал заданий и инвентарь игрока
func (s *Simulation) Quests() *quest.Journal { return s.quests }

// Config конфигурация симуляции
func (s *Simulation) Config() *config.Config { return s.cfg }

// Player возвращает игрока или nil
func (s *Simulation) Player() *entity.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// Now время симуляции в секундах
func (s *Simulation) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// SpawnPlayer создаёт единственного игрока
func (s *Simulation) SpawnPlayer(id string, pos vec.Vec3) (*entity.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return nil, ErrPlayerExists
	}
	if id == "" {
		id = "player"
	}

	p, err := entity.NewPlayer(id, s.cfg.Player, s.placeOnGround(pos), s.deps)
	if err != nil {
		return nil, err
	}
	s.player = p
	s.log.Info("🧍 Игрок %s появился в (%.1f, %.1f, %.1f)", id, p.Position().X, p.Position().Y, p.Position().Z)
	return p, nil
}

// SpawnAnimal создаёт животное вида species. Пустой id генерируется.
func (s *Simulation) SpawnAnimal(species, id string, pos vec.Vec3) (*entity.Animal, error) {
	cfg, err := entity.LookupSpecies(s.cfg.Animals, species)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = species + "-" + uuid.NewString()[:8]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := entity.NewAnimal(id, species, cfg, s.placeOnGround(pos), s.deps)
	if err != nil {
		return nil, err
	}
	if err := s.manager.Add(a); err != nil {
		return nil, err
	}
	s.log.Debug("животное %s (%s) добавлено", id, species)
	return a, nil
}

// SpawnHerd создаёт n животных вида species в круге радиуса radius вокруг center
func (s *Simulation) SpawnHerd(species string, n int, center vec.Vec3, radius float64) ([]*entity.Animal, error) {
	herd := make([]*entity.Animal, 0, n)
	for i := 0; i < n; i++ {
		s.mu.Lock()
		angle := s.deps.Rand.Float64() * 2 * math.Pi
		dist := math.Sqrt(s.deps.Rand.Float64()) * radius
		s.mu.Unlock()

		pos := vec.Vec3{
			X: center.X + math.Cos(angle)*dist,
			Y: center.Y,
			Z: center.Z + math.Sin(angle)*dist,
		}
		a, err := s.SpawnAnimal(species, "", pos)
		if err != nil {
			return herd, err
		}
		herd = append(herd, a)
	}
	return herd, nil
}

// SpawnNPC создаёт NPC. Задание NPC регистрируется в журнале симуляции.
func (s *Simulation) SpawnNPC(id string, pos vec.Vec3, params entity.NPCParams) (*entity.NPC, error) {
	if params.Quest != nil {
		if params.Quests == nil {
			params.Quests = s.quests
		}
		if err := s.quests.Register(*params.Quest); err != nil && !errors.Is(err, quest.ErrDuplicateQuest) {
			return nil, fmt.Errorf("npc %s: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := entity.NewNPC(id, s.cfg.NPC, s.placeOnGround(pos), params, s.deps)
	if err != nil {
		return nil, err
	}
	if err := s.manager.Add(n); err != nil {
		return nil, err
	}
	s.log.Debug("npc %s (%s) добавлен", id, n.Name())
	return n, nil
}

// AddStatic добавляет статический объект (камень, дерево, платформу)
func (s *Simulation) AddStatic(body *physics.StaticBody) error {
	if body == nil || body.ID == "" {
		return errors.New("world: static body requires an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statics = append(s.statics, body)
	return nil
}

// Statics возвращает статические объекты
func (s *Simulation) Statics() []*physics.StaticBody {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*physics.StaticBody(nil), s.statics...)
}

// SetPlayerInput задаёт ввод игрока на следующий кадр
func (s *Simulation) SetPlayerInput(in entity.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return ErrNoPlayer
	}
	s.player.SetInput(in)
	return nil
}

// Damage наносит урон сущности с указанным ID (игроку или автономной сущности)
func (s *Simulation) Damage(id string, amount float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil && s.player.ID() == id {
		return entity.TakeDamage(s.player, amount), nil
	}
	e, ok := s.manager.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return entity.TakeDamage(e, amount), nil
}

// Interact начинает разговор игрока с NPC
func (s *Simulation) Interact(npcID string) (entity.DialogueState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.reachableNPC(npcID)
	if err != nil {
		return entity.DialogueIdle, err
	}
	return n.Interact(), nil
}

// AcceptQuest принимает задание, предложенное NPC
func (s *Simulation) AcceptQuest(npcID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.reachableNPC(npcID)
	if err != nil {
		return false, err
	}
	return n.AcceptQuest(), nil
}

// CompleteQuest пытается сдать задание NPC
func (s *Simulation) CompleteQuest(npcID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.reachableNPC(npcID)
	if err != nil {
		return false, err
	}
	return n.TryComplete(), nil
}

// EndDialogue завершает разговор с NPC
func (s *Simulation) EndDialogue(npcID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.npc(npcID)
	if err != nil {
		return err
	}
	n.EndDialogue()
	return nil
}

func (s *Simulation) npc(id string) (*entity.NPC, error) {
	e, ok := s.manager.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	n, ok := e.(*entity.NPC)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an npc", ErrEntityNotFound, id)
	}
	return n, nil
}

func (s *Simulation) reachableNPC(id string) (*entity.NPC, error) {
	if s.player == nil || s.player.IsDead() {
		return nil, ErrNoPlayer
	}
	n, err := s.npc(id)
	if err != nil {
		return nil, err
	}
	if !n.CanInteract(s.player.Position()) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, id)
	}
	return n, nil
}

// heightSampler рельеф, умеющий отвечать на запрос высоты в точке
type heightSampler interface {
	HeightAt(x, z float64) float64
}

// placeOnGround поднимает точку появления на поверхность, если она под землёй
func (s *Simulation) placeOnGround(p vec.Vec3) vec.Vec3 {
	if h, ok := s.deps.Ground.(heightSampler); ok {
		p.Y = math.Max(p.Y, h.HeightAt(p.X, p.Z))
	}
	return p
}

// GroundHeight высота рельефа в точке; без карты высот: 0
func (s *Simulation) GroundHeight(x, z float64) float64 {
	if h, ok := s.deps.Ground.(heightSampler); ok {
		return h.HeightAt(x, z)
	}
	return 0
}

// colliders собирает кандидатов для резолвера: рельеф, статические объекты, сущности
func (s *Simulation) colliders() []physics.Collider {
	out := make([]physics.Collider, 0, 1+len(s.statics)+s.manager.Len())
	out = append(out, physics.TerrainCollider(terrainCollider))
	for _, st := range s.statics {
		out = append(out, physics.StaticCollider(st))
	}
	return append(out, s.manager.Colliders()...)
}

// Step выполняет один кадр:
// игрок, выталкивание игрока, снимок позиции игрока, автономные сущности, уборка трупов.
func (s *Simulation) Step(ctx context.Context, dt float64) StepReport {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "sim.step")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var rep StepReport
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	if dt > s.cfg.Simulation.MaxDelta {
		s.log.Trace("dt %.4f урезан до %.4f", dt, s.cfg.Simulation.MaxDelta)
		dt = s.cfg.Simulation.MaxDelta
		rep.Clamped = true
	}

	s.now += dt
	s.frame++
	rep.Frame = s.frame
	rep.DT = dt

	colliders := s.colliders()

	if s.player != nil {
		s.player.Update(entity.NewFrame(dt, s.now, s.player, colliders))
		if !s.player.IsDead() {
			rep.Collision = s.resolver.Resolve(s.player, colliders)
		}
	}

	upd := s.manager.UpdateAll(entity.NewFrame(dt, s.now, s.player, colliders))
	rep.Updated = upd.Updated
	rep.Failures = upd.Failures

	rep.Reaped = s.manager.Reap(s.now, s.cfg.Simulation.CorpseReapDelay)

	s.publishLocked()
	rep.Duration = time.Since(start)

	s.recordLocked(rep)
	span.SetAttributes(
		attribute.Int64("sim.frame", int64(rep.Frame)),
		attribute.Float64("sim.dt", rep.DT),
		attribute.Bool("sim.dt_clamped", rep.Clamped),
		attribute.Int("sim.entities_updated", rep.Updated),
		attribute.Int("sim.update_failures", len(rep.Failures)),
		attribute.Int("physics.pushes", rep.Collision.Pushes),
		attribute.Int("sim.reaped", len(rep.Reaped)),
	)
	return rep
}

func (s *Simulation) recordLocked(rep StepReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveTick(rep.Duration, rep.Clamped)
	s.metrics.ObserveCollision(rep.Collision.Pushes, rep.Collision.Skipped, rep.Collision.Failed)
	s.metrics.ObserveUpdateFailures(len(rep.Failures))
	s.metrics.ObserveReaped(len(rep.Reaped))

	alive := map[entity.Kind]int{}
	dead := map[entity.Kind]int{}
	for _, e := range s.manager.All() {
		if e.IsDead() {
			dead[e.Kind()]++
		} else {
			alive[e.Kind()]++
		}
	}
	for _, kind := range []entity.Kind{entity.KindAnimal, entity.KindNPC} {
		s.metrics.SetEntities(kind.String(), alive[kind], dead[kind])
	}
	if s.player != nil {
		s.metrics.SetPlayer(s.player.Health(), s.player.Stamina())
	}
}

// Run прогоняет кадры с частотой TickRate до отмены контекста
func (s *Simulation) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.Simulation.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("▶️ Симуляция запущена: %d кадров/с", s.cfg.Simulation.TickRate)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("⏹️ Симуляция остановлена на кадре %d", s.frameCount())
			return nil
		case now := <-ticker.C:
			s.Step(ctx, now.Sub(last).Seconds())
			last = now
		}
	}
}

func (s *Simulation) frameCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Checkpoint снимает контрольную точку игрока
func (s *Simulation) Checkpoint() (storage.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return storage.Checkpoint{}, ErrNoPlayer
	}
	return storage.Checkpoint{
		EntityID: s.player.ID(),
		Position: s.player.Position(),
		Health:   s.player.Health(),
		Stamina:  s.player.Stamina(),
		SavedAt:  time.Now().UTC(),
	}, nil
}

// Restore применяет контрольную точку к игроку с тем же ID
func (s *Simulation) Restore(cp storage.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cp.Validate(); err != nil {
		return err
	}
	if s.player == nil {
		return ErrNoPlayer
	}
	if cp.EntityID != s.player.ID() {
		return fmt.Errorf("world: checkpoint for %s cannot be applied to %s", cp.EntityID, s.player.ID())
	}
	if s.player.IsDead() {
		return fmt.Errorf("world: player %s is dead", cp.EntityID)
	}

	s.player.SetPosition(s.placeOnGround(cp.Position))
	s.player.SetVelocity(vec.Vec3{})
	entity.RestoreHealth(s.player, cp.Health)
	s.player.RestoreStamina(cp.Stamina)
	s.log.Info("💾 Игрок %s восстановлен из контрольной точки от %s", cp.EntityID, cp.SavedAt.Format(time.RFC3339))
	s.publishLocked()
	return nil
}
