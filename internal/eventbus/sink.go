package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/wildlands/internal/logging"
)

// EventPlayerFeedback сообщение, показываемое игроку
const EventPlayerFeedback = "player_feedback"

// Feedback полезная нагрузка события player_feedback
type Feedback struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink публикует сообщения игроку в шину.
// Реализует entity.EventSink; публикация не блокирует игровой цикл.
type Sink struct {
	bus    EventBus
	source string
	log    *logging.Logger
}

// NewSink создаёт приёмник сообщений для источника source
func NewSink(bus EventBus, source string, logger *logging.Logger) *Sink {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sink{bus: bus, source: source, log: logger}
}

// LogEvent публикует сообщение как событие player_feedback
func (s *Sink) LogEvent(message string) {
	ev, err := NewEnvelope(s.source, EventPlayerFeedback, PriorityLow, Feedback{
		Message: message,
		At:      time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("⚠️ Сообщение игроку не отправлено: %v", err)
		return
	}
	if err := s.bus.Publish(context.Background(), ev); err != nil {
		s.log.Warn("⚠️ Сообщение игроку не опубликовано: %v", err)
	}
}

// FeedbackLog хранит последние сообщения игроку
type FeedbackLog struct {
	mu    sync.RWMutex
	items []Feedback
	limit int
	sub   Subscription
}

// NewFeedbackLog подписывается на player_feedback и хранит не больше limit сообщений
func NewFeedbackLog(ctx context.Context, bus EventBus, limit int) (*FeedbackLog, error) {
	if limit <= 0 {
		limit = 50
	}
	fl := &FeedbackLog{limit: limit}

	sub, err := bus.Subscribe(ctx, Filter{Types: []string{EventPlayerFeedback}}, func(_ context.Context, ev *Envelope) {
		var fb Feedback
		if err := ev.Decode(&fb); err != nil {
			logging.Warn("⚠️ Битое событие %s: %v", ev.ID, err)
			return
		}
		fl.add(fb)
	})
	if err != nil {
		return nil, err
	}
	fl.sub = sub
	return fl, nil
}

func (fl *FeedbackLog) add(fb Feedback) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.items = append(fl.items, fb)
	if len(fl.items) > fl.limit {
		fl.items = append([]Feedback(nil), fl.items[len(fl.items)-fl.limit:]...)
	}
}

// Recent возвращает сохранённые сообщения от старых к новым
func (fl *FeedbackLog) Recent() []Feedback {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return append([]Feedback(nil), fl.items...)
}

// Close отписывается от шины
func (fl *FeedbackLog) Close() {
	if fl.sub != nil {
		fl.sub.Unsubscribe()
	}
}
