package quest

import (
	"sort"
	"sync"
)

// Inventory простой инвентарь игрока: предмет -> количество
type Inventory struct {
	items map[string]int
	mu    sync.RWMutex
}

// NewInventory создаёт пустой инвентарь
func NewInventory() *Inventory {
	return &Inventory{items: make(map[string]int)}
}

// Add добавляет предметы. Неположительное количество игнорируется.
func (inv *Inventory) Add(item string, count int) {
	if item == "" || count <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items[item] += count
}

// Remove забирает предметы целиком или ничего не меняет
func (inv *Inventory) Remove(item string, count int) bool {
	if count <= 0 {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	have := inv.items[item]
	if have < count {
		return false
	}
	if have == count {
		delete(inv.items, item)
	} else {
		inv.items[item] = have - count
	}
	return true
}

// Count возвращает количество предмета
func (inv *Inventory) Count(item string) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.items[item]
}

// HasItem проверяет наличие не менее count предметов
func (inv *Inventory) HasItem(item string, count int) bool {
	return inv.Count(item) >= count
}

// Items возвращает копию содержимого
func (inv *Inventory) Items() map[string]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make(map[string]int, len(inv.items))
	for k, v := range inv.items {
		out[k] = v
	}
	return out
}

// Names возвращает отсортированные названия предметов
func (inv *Inventory) Names() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	names := make([]string, 0, len(inv.items))
	for k := range inv.items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
