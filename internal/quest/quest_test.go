package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory(t *testing.T) {
	inv := NewInventory()
	inv.Add("berries", 3)
	inv.Add("berries", 2)
	inv.Add("", 5)
	inv.Add("wood", -1)

	assert.Equal(t, 5, inv.Count("berries"))
	assert.True(t, inv.HasItem("berries", 5))
	assert.False(t, inv.HasItem("berries", 6))
	assert.Equal(t, []string{"berries"}, inv.Names())

	assert.False(t, inv.Remove("berries", 6), "нельзя забрать больше, чем есть")
	assert.Equal(t, 5, inv.Count("berries"))

	assert.True(t, inv.Remove("berries", 5))
	assert.Empty(t, inv.Items())
}

func TestJournal_Lifecycle(t *testing.T) {
	j := NewJournal(nil)
	require.NoError(t, j.Register(Quest{ID: "pelts", Title: "Шкуры", Item: "pelt", Count: 2}))

	assert.Equal(t, StatusAvailable, j.QuestStatus("pelts"))
	assert.Equal(t, StatusUnknown, j.QuestStatus("missing"))

	assert.False(t, j.CompleteQuest("pelts"), "нельзя сдать невзятое задание")
	require.True(t, j.AcceptQuest("pelts"))
	assert.False(t, j.AcceptQuest("pelts"), "повторно взять нельзя")
	assert.Equal(t, StatusActive, j.QuestStatus("pelts"))

	j.Inventory().Add("pelt", 1)
	assert.False(t, j.CompleteQuest("pelts"))
	assert.Equal(t, StatusActive, j.QuestStatus("pelts"), "неудачная сдача оставляет задание активным")
	assert.Equal(t, 1, j.Inventory().Count("pelt"), "предметы не списываются частично")

	p, ok := j.Progress("pelts")
	require.True(t, ok)
	assert.False(t, p.Done())
	assert.Equal(t, 1, p.Have)

	j.Inventory().Add("pelt", 2)
	require.True(t, j.CompleteQuest("pelts"))
	assert.Equal(t, StatusCompleted, j.QuestStatus("pelts"))
	assert.Equal(t, 1, j.Inventory().Count("pelt"))
}

func TestJournal_RegisterValidation(t *testing.T) {
	j := NewJournal(NewInventory())

	assert.Error(t, j.Register(Quest{ID: "x", Item: "wood"}))
	require.NoError(t, j.Register(Quest{ID: "x", Item: "wood", Count: 1}))

	err := j.Register(Quest{ID: "x", Item: "stone", Count: 1})
	assert.ErrorIs(t, err, ErrDuplicateQuest)
	assert.Len(t, j.Quests(), 1)
}
