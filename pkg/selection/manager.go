// Package selection tracks the media items chosen across all sources.
package selection

import (
	"slices"
	"sync"

	"github.com/modularwp/media-import/pkg/sources/types"
)

type EventType string

const (
	EventItemAdded   EventType = "item_added"
	EventItemRemoved EventType = "item_removed"
	EventCleared     EventType = "cleared"
)

// Event describes one change to the working set.
// Keys lists every removed key for EventCleared.
type Event struct {
	Type EventType
	Key  types.ItemKey
	Item *types.MediaItem
	Keys []types.ItemKey
}

type Observer func(Event)

// Manager is the working set shared by every source view, keyed by
// (sourceId, sourceItemId). It never holds two items with the same key.
type Manager struct {
	mu        sync.Mutex
	items     map[types.ItemKey]*types.MediaItem
	order     []types.ItemKey
	observers map[int]Observer
	nextID    int
}

func NewManager() *Manager {
	return &Manager{
		items:     make(map[types.ItemKey]*types.MediaItem),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers o for every future change. Observers run on the
// goroutine that made the change, after the manager lock is released.
func (m *Manager) Subscribe(o Observer) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = o
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// Add records item and reports whether it was not already selected.
func (m *Manager) Add(item *types.MediaItem) bool {
	key := item.Key()

	m.mu.Lock()
	if _, exists := m.items[key]; exists {
		m.mu.Unlock()
		return false
	}
	m.items[key] = item
	m.order = append(m.order, key)
	observers := m.snapshotObservers()
	m.mu.Unlock()

	notify(observers, Event{Type: EventItemAdded, Key: key, Item: item})
	return true
}

// Remove drops the item with key and reports whether it was selected.
func (m *Manager) Remove(key types.ItemKey) bool {
	m.mu.Lock()
	item, exists := m.items[key]
	if !exists {
		m.mu.Unlock()
		return false
	}
	m.removeLocked(key)
	observers := m.snapshotObservers()
	m.mu.Unlock()

	notify(observers, Event{Type: EventItemRemoved, Key: key, Item: item})
	return true
}

// Toggle adds item when absent and removes it otherwise.
// It returns whether the item is selected afterwards.
func (m *Manager) Toggle(item *types.MediaItem) bool {
	key := item.Key()

	m.mu.Lock()
	var event Event
	if existing, ok := m.items[key]; ok {
		m.removeLocked(key)
		event = Event{Type: EventItemRemoved, Key: key, Item: existing}
	} else {
		m.items[key] = item
		m.order = append(m.order, key)
		event = Event{Type: EventItemAdded, Key: key, Item: item}
	}
	observers := m.snapshotObservers()
	m.mu.Unlock()

	notify(observers, event)
	return event.Type == EventItemAdded
}

func (m *Manager) Clear() {
	m.mu.Lock()
	if len(m.order) == 0 {
		m.mu.Unlock()
		return
	}
	keys := m.order
	m.items = make(map[types.ItemKey]*types.MediaItem)
	m.order = nil
	observers := m.snapshotObservers()
	m.mu.Unlock()

	notify(observers, Event{Type: EventCleared, Keys: keys})
}

func (m *Manager) Has(key types.ItemKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

// Items returns the selection in the order items were added.
func (m *Manager) Items() []*types.MediaItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.MediaItem, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.items[k])
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

func (m *Manager) removeLocked(key types.ItemKey) {
	delete(m.items, key)
	m.order = slices.DeleteFunc(m.order, func(k types.ItemKey) bool { return k == key })
}

func (m *Manager) snapshotObservers() []Observer {
	out := make([]Observer, 0, len(m.observers))
	for id := 0; id < m.nextID; id++ {
		if o, ok := m.observers[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func notify(observers []Observer, e Event) {
	for _, o := range observers {
		o(e)
	}
}
