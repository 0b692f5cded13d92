package entity

import (
	"errors"
	"fmt"

	"github.com/annel0/wildlands/internal/config"
	"github.com/annel0/wildlands/internal/quest"
	"github.com/annel0/wildlands/internal/vec"
)

// DialogueState состояние диалога NPC (не влияет на движение)
type DialogueState uint8

const (
	DialogueIdle            DialogueState = iota // Диалог не идёт
	DialogueGreeting                             // Приветствие без задания
	DialogueQuestOffer                           // Предложение задания
	DialogueQuestIncomplete                      // Задание взято, цель не выполнена
	DialogueQuestComplete                        // Задание сдано
	DialoguePostQuest                            // Разговор после сданного задания
)

// String возвращает имя состояния
func (d DialogueState) String() string {
	switch d {
	case DialogueIdle:
		return "idle"
	case DialogueGreeting:
		return "greeting"
	case DialogueQuestOffer:
		return "quest_offer"
	case DialogueQuestIncomplete:
		return "quest_incomplete"
	case DialogueQuestComplete:
		return "quest_complete"
	case DialoguePostQuest:
		return "post_quest"
	default:
		return "unknown"
	}
}

// ErrNoQuestService NPC с заданием создан без сервиса заданий
var ErrNoQuestService = errors.New("entity: npc has a quest but no quest service")

// QuestService сервис инвентаря и заданий, к которому обращается диалог
type QuestService interface {
	HasItem(item string, count int) bool
	ItemCount(item string) int
	QuestStatus(id string) quest.Status
	AcceptQuest(id string) bool
	CompleteQuest(id string) bool
}

// NPCParams параметры конкретного NPC
type NPCParams struct {
	Name   string
	Role   string  // villager, trader, guard
	Yaw    float64 // Начальное направление взгляда
	Quest  *quest.Quest
	Quests QuestService
}

// NPC неподвижный персонаж: периодически выбирает, куда смотреть, и ведёт диалог
type NPC struct {
	*Base

	cfg    config.NPCConfig
	name   string
	role   string
	quest  *quest.Quest
	quests QuestService

	initialYaw      float64
	lookTarget      vec.Quat
	lookTimer       float64
	lookingAtPlayer bool

	dialogue DialogueState
}

// NewNPC создаёт NPC, смотрящего в начальном направлении
func NewNPC(id string, cfg config.NPCConfig, position vec.Vec3, params NPCParams, deps Deps) (*NPC, error) {
	if params.Quest != nil && params.Quests == nil {
		return nil, fmt.Errorf("npc %s: %w", id, ErrNoQuestService)
	}

	base, err := NewBase(id, KindNPC, position, sizeFrom(cfg.Size), cfg.MaxHealth, deps)
	if err != nil {
		return nil, fmt.Errorf("npc %s: %w", id, err)
	}

	name := params.Name
	if name == "" {
		name = id
	}

	n := &NPC{
		Base:       base,
		cfg:        cfg,
		name:       name,
		role:       params.Role,
		quest:      params.Quest,
		quests:     params.Quests,
		initialYaw: params.Yaw,
		lookTarget: vec.QuatFromYaw(params.Yaw),
	}
	n.rotation = n.lookTarget
	n.lookTimer = randRange(n.deps.Rand.Float64(), cfg.LookInterval)

	return n, nil
}

func (n *NPC) Name() string { return n.name }
func (n *NPC) Role() string { return n.role }

// Dialogue возвращает текущее состояние диалога
func (n *NPC) Dialogue() DialogueState { return n.dialogue }

// LookTarget ориентация, к которой NPC сейчас поворачивается
func (n *NPC) LookTarget() vec.Quat { return n.lookTarget }

// IsLookingAtPlayer сообщает, следит ли NPC за игроком
func (n *NPC) IsLookingAtPlayer() bool { return n.lookingAtPlayer }

// QuestID возвращает ID задания NPC или пустую строку
func (n *NPC) QuestID() string {
	if n.quest == nil {
		return ""
	}
	return n.quest.ID
}

// CanInteract проверяет, достаточно ли близко точка для разговора
func (n *NPC) CanInteract(p vec.Vec3) bool {
	return n.interactable && n.position.DistanceSqTo(p) <= sq(n.cfg.InteractRadius)
}

// Update обновляет таймер взгляда и плавно поворачивает NPC
func (n *NPC) Update(f *Frame) {
	n.advance(f.Now)
	if n.dead {
		return
	}
	dt := f.DT

	n.lookTimer -= dt
	if n.lookTimer <= 0 {
		n.chooseLookTarget(f)
		n.lookTimer = randRange(n.deps.Rand.Float64(), n.cfg.LookInterval)
	}

	// Во время разговора NPC всегда смотрит на собеседника
	if n.dialogue != DialogueIdle && f.HasPlayer {
		n.lookingAtPlayer = true
	}
	if n.lookingAtPlayer {
		if f.HasPlayer {
			n.lookTarget = vec.QuatFromYaw(vec.YawTowards(n.position, f.PlayerPos))
		} else {
			n.lookingAtPlayer = false
			n.lookTarget = vec.QuatFromYaw(n.initialYaw)
		}
	}

	n.rotation = vec.DampQuat(n.rotation, n.lookTarget, n.cfg.TurnRate, dt)
}

// chooseLookTarget игрок (если рядом, с вероятностью), случайное направление
// относительно начального или само начальное направление
func (n *NPC) chooseLookTarget(f *Frame) {
	rng := n.deps.Rand

	if f.HasPlayer && f.DistanceSqToPlayer(n.position) <= sq(n.cfg.LookRadius) &&
		rng.Float64() < n.cfg.PlayerLookChance {
		n.lookingAtPlayer = true
		n.lookTarget = vec.QuatFromYaw(vec.YawTowards(n.position, f.PlayerPos))
		return
	}

	n.lookingAtPlayer = false
	yaw := n.initialYaw
	if rng.Float64() < n.cfg.RandomLookChance {
		yaw += (rng.Float64()*2 - 1) * n.cfg.LookSpread
	}
	n.lookTarget = vec.QuatFromYaw(yaw)
}

// Interact начинает (или продолжает) разговор; состояние определяется статусом задания
func (n *NPC) Interact() DialogueState {
	if n.dead || !n.interactable {
		return DialogueIdle
	}

	if n.quest == nil {
		n.dialogue = DialogueGreeting
		return n.dialogue
	}

	switch n.quests.QuestStatus(n.quest.ID) {
	case quest.StatusActive:
		if n.quests.HasItem(n.quest.Item, n.quest.Count) {
			n.dialogue = DialogueQuestComplete
		} else {
			n.dialogue = DialogueQuestIncomplete
		}
	case quest.StatusCompleted:
		n.dialogue = DialoguePostQuest
	case quest.StatusAvailable:
		n.dialogue = DialogueQuestOffer
	default:
		n.dialogue = DialogueGreeting
	}
	return n.dialogue
}

// AcceptQuest принимает предложенное задание
func (n *NPC) AcceptQuest() bool {
	if n.quest == nil || n.dialogue != DialogueQuestOffer {
		return false
	}
	if !n.quests.AcceptQuest(n.quest.ID) {
		n.deps.Log.Debug("npc %s: задание %s не принято", n.id, n.quest.ID)
		return false
	}

	n.dialogue = DialogueQuestIncomplete
	n.deps.Sink.LogEvent(fmt.Sprintf("📜 Новое задание: %s", n.questTitle()))
	return true
}

// TryComplete пытается сдать задание.
// Без выполненной цели задание остаётся активным, а игрок получает отчёт о прогрессе.
func (n *NPC) TryComplete() bool {
	if n.quest == nil || n.dead {
		return false
	}
	if n.quests.QuestStatus(n.quest.ID) != quest.StatusActive {
		n.deps.Log.Debug("npc %s: задание %s не активно", n.id, n.quest.ID)
		return false
	}

	if !n.quests.HasItem(n.quest.Item, n.quest.Count) {
		n.dialogue = DialogueQuestIncomplete
		have := n.quests.ItemCount(n.quest.Item)
		n.deps.Log.Warn("⚠️ npc %s: сдача задания %s отклонена, цель не выполнена (%s %d/%d)",
			n.id, n.quest.ID, n.quest.Item, have, n.quest.Count)
		n.deps.Sink.LogEvent(fmt.Sprintf("Нужно принести: %s %d/%d", n.quest.Item, have, n.quest.Count))
		return false
	}

	if !n.quests.CompleteQuest(n.quest.ID) {
		n.dialogue = DialogueQuestIncomplete
		n.deps.Log.Warn("⚠️ npc %s: сервис отклонил сдачу задания %s", n.id, n.quest.ID)
		return false
	}

	n.dialogue = DialogueQuestComplete
	n.deps.Sink.LogEvent(fmt.Sprintf("✅ Задание выполнено: %s", n.questTitle()))
	return true
}

// EndDialogue завершает разговор
func (n *NPC) EndDialogue() {
	n.dialogue = DialogueIdle
}

func (n *NPC) questTitle() string {
	if n.quest.Title != "" {
		return n.quest.Title
	}
	return n.quest.ID
}

func (n *NPC) onDamage(float64) {}

func (n *NPC) onDeath() {
	n.dialogue = DialogueIdle
	n.lookingAtPlayer = false
	n.deps.Sink.LogEvent(fmt.Sprintf("💀 %s погибает", n.name))
}
