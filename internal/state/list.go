package state

import "sync"

// Keyed is an entity with a stable reconciliation key.
type Keyed interface {
	EntityKey() string
}

// List is the single-bucket reconciler used for flat pages (projects,
// comments, notifications): same merge rules as the board, without status
// buckets.
type List[E Keyed] struct {
	mu    sync.Mutex
	order []string
	items map[string]E
}

// NewList creates an empty list.
func NewList[E Keyed]() *List[E] {
	return &List[E]{items: make(map[string]E)}
}

// ApplySnapshot merges a full fetch, preserving the relative order of
// surviving entities and appending new ones in snapshot order.
func (l *List[E]) ApplySnapshot(items []E) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fetched := make(map[string]E, len(items))
	for _, item := range items {
		fetched[item.EntityKey()] = item
	}

	kept := l.order[:0]
	for _, key := range l.order {
		if item, ok := fetched[key]; ok {
			l.items[key] = item
			kept = append(kept, key)
		} else {
			delete(l.items, key)
		}
	}
	l.order = kept

	for _, item := range items {
		key := item.EntityKey()
		if _, exists := l.items[key]; !exists {
			l.items[key] = item
			l.order = append(l.order, key)
		}
	}
}

// ApplyCreated appends an entity if its key is new, otherwise replaces the
// existing row in place.
func (l *List[E]) ApplyCreated(item E) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := item.EntityKey()
	if _, exists := l.items[key]; !exists {
		l.order = append(l.order, key)
	}
	l.items[key] = item
}

// ApplyUpdated replaces fields in place; an unknown key is inserted since
// fetch and push may arrive in either order.
func (l *List[E]) ApplyUpdated(item E) {
	l.ApplyCreated(item)
}

// ApplyDeleted removes an entity by key; duplicate deletes are no-ops.
func (l *List[E]) ApplyDeleted(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.items[key]; !exists {
		return
	}
	delete(l.items, key)
	l.order = removeKey(l.order, key)
}

// Get returns the entity for a key.
func (l *List[E]) Get(key string) (E, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[key]
	return item, ok
}

// Items returns the current ordered view.
func (l *List[E]) Items() []E {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]E, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.items[key])
	}
	return out
}

// Len reports the number of entities.
func (l *List[E]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
