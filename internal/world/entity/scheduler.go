package entity

import (
	"container/heap"
)

// scheduledEvent отложенное действие сущности
type scheduledEvent struct {
	at   float64 // Время срабатывания по часам сущности
	seq  uint64  // Порядок постановки, чтобы одновременные события выполнялись FIFO
	name string
	fn   func()
}

type eventQueue struct {
	q []scheduledEvent
}

func (e *eventQueue) Len() int {
	return len(e.q)
}

func (e *eventQueue) Less(i, j int) bool {
	if e.q[i].at == e.q[j].at {
		return e.q[i].seq < e.q[j].seq
	}
	return e.q[i].at < e.q[j].at
}

func (e *eventQueue) Swap(i, j int) {
	e.q[i], e.q[j] = e.q[j], e.q[i]
}

func (e *eventQueue) Push(x interface{}) {
	e.q = append(e.q, x.(scheduledEvent))
}

func (e *eventQueue) Pop() (v interface{}) {
	last := len(e.q) - 1
	v, e.q = e.q[last], e.q[:last]
	return v
}

// Scheduler очередь отложенных событий одной сущности.
// Проверяется каждый тик; после Clear ни одно событие не выполнится.
type Scheduler struct {
	inner eventQueue
	seq   uint64
}

// Schedule ставит действие fn на момент at
func (s *Scheduler) Schedule(at float64, name string, fn func()) {
	if fn == nil {
		return
	}
	s.seq++
	heap.Push(&s.inner, scheduledEvent{at: at, seq: s.seq, name: name, fn: fn})
}

// Cancel снимает все события с указанным именем и возвращает их количество
func (s *Scheduler) Cancel(name string) int {
	kept := s.inner.q[:0]
	removed := 0
	for _, ev := range s.inner.q {
		if ev.name == name {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	s.inner.q = kept
	heap.Init(&s.inner)
	return removed
}

// Clear снимает все события
func (s *Scheduler) Clear() {
	s.inner.q = nil
}

// Len количество ожидающих событий
func (s *Scheduler) Len() int {
	return s.inner.Len()
}

// Pending сообщает, ожидает ли событие с указанным именем
func (s *Scheduler) Pending(name string) bool {
	for _, ev := range s.inner.q {
		if ev.name == name {
			return true
		}
	}
	return false
}

// RunDue выполняет все события со временем at <= now в порядке времени.
// События, поставленные из обработчиков, выполняются в этом же вызове, если уже наступили.
func (s *Scheduler) RunDue(now float64) int {
	ran := 0
	for s.inner.Len() > 0 && s.inner.q[0].at <= now {
		ev := heap.Pop(&s.inner).(scheduledEvent)
		ev.fn()
		ran++
	}
	return ran
}
