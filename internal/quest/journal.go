package quest

import (
	"errors"
	"fmt"
	"sync"
)

// Status статус задания
type Status uint8

const (
	StatusUnknown   Status = iota // Задание не зарегистрировано
	StatusAvailable               // Можно взять
	StatusActive                  // Взято, цель не сдана
	StatusCompleted               // Сдано
)

// String возвращает имя статуса
func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText сериализует статус строкой
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrDuplicateQuest задание с таким ID уже зарегистрировано
var ErrDuplicateQuest = errors.New("quest: duplicate id")

// Quest задание на сбор предметов
type Quest struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Item  string `yaml:"item" json:"item"`
	Count int    `yaml:"count" json:"count"`
}

// Progress прогресс по заданию
type Progress struct {
	Quest  Quest  `json:"quest"`
	Status Status `json:"status"`
	Have   int    `json:"have"`
}

// Done сообщает, выполнена ли цель
func (p Progress) Done() bool {
	return p.Have >= p.Quest.Count
}

// Journal журнал заданий поверх инвентаря.
// Реализует сервис заданий для диалогов NPC.
type Journal struct {
	inv    *Inventory
	quests map[string]Quest
	status map[string]Status
	mu     sync.RWMutex
}

// NewJournal создаёт журнал
func NewJournal(inv *Inventory) *Journal {
	if inv == nil {
		inv = NewInventory()
	}
	return &Journal{
		inv:    inv,
		quests: make(map[string]Quest),
		status: make(map[string]Status),
	}
}

// Inventory возвращает инвентарь журнала
func (j *Journal) Inventory() *Inventory {
	return j.inv
}

// Register добавляет задание в статусе available
func (j *Journal) Register(q Quest) error {
	if q.ID == "" || q.Item == "" || q.Count <= 0 {
		return fmt.Errorf("quest %q: id, item and positive count are required", q.ID)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.quests[q.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateQuest, q.ID)
	}
	j.quests[q.ID] = q
	j.status[q.ID] = StatusAvailable
	return nil
}

// HasItem реализует сервис инвентаря
func (j *Journal) HasItem(item string, count int) bool {
	return j.inv.HasItem(item, count)
}

// ItemCount сколько предметов item сейчас у игрока
func (j *Journal) ItemCount(item string) int {
	return j.inv.Count(item)
}

// QuestStatus возвращает статус задания
func (j *Journal) QuestStatus(id string) Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status[id]
}

// AcceptQuest переводит задание available -> active
func (j *Journal) AcceptQuest(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status[id] != StatusAvailable {
		return false
	}
	j.status[id] = StatusActive
	return true
}

// CompleteQuest переводит задание active -> completed и забирает предметы.
// Без выполненной цели ничего не меняется.
func (j *Journal) CompleteQuest(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status[id] != StatusActive {
		return false
	}
	q := j.quests[id]
	if !j.inv.Remove(q.Item, q.Count) {
		return false
	}
	j.status[id] = StatusCompleted
	return true
}

// Progress возвращает прогресс по заданию
func (j *Journal) Progress(id string) (Progress, bool) {
	j.mu.RLock()
	q, ok := j.quests[id]
	status := j.status[id]
	j.mu.RUnlock()

	if !ok {
		return Progress{}, false
	}
	return Progress{Quest: q, Status: status, Have: j.inv.Count(q.Item)}, true
}

// Quests возвращает все зарегистрированные задания
func (j *Journal) Quests() []Quest {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Quest, 0, len(j.quests))
	for _, q := range j.quests {
		out = append(out, q)
	}
	return out
}
