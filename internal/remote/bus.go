package remote

import "sync"

// Bus is an in-process change feed. Writers publish row-level changes per
// table; subscribers receive them synchronously in publish order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]ChangeHandler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]ChangeHandler)}
}

// Subscribe registers a handler for changes on table.
func (b *Bus) Subscribe(table string, handler ChangeHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[table] == nil {
		b.subs[table] = make(map[int]ChangeHandler)
	}
	id := b.nextID
	b.nextID++
	b.subs[table][id] = handler

	return &busSubscription{bus: b, table: table, id: id}
}

// Publish delivers a change to every subscriber of its table.
func (b *Bus) Publish(change Change) {
	b.mu.RLock()
	handlers := make([]ChangeHandler, 0, len(b.subs[change.Table]))
	for _, h := range b.subs[change.Table] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(change)
	}
}

type busSubscription struct {
	bus   *Bus
	table string
	id    int
	once  sync.Once
}

func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.table], s.id)
	})
}
