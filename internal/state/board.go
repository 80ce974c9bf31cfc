// Package state is the live state reconciliation layer: it merges fetched
// snapshots, local optimistic mutations and realtime push events into one
// consistent, bucketed, ordered view per page.
package state

import (
	"fmt"
	"sync"

	"github.com/taskdeck/taskdeck/internal/models"
)

// Board holds the status-bucketed task view for one page. All mutation is
// serialized through its mutex; push handlers and fetch responses may call
// in from different goroutines in any order, so every merge operation is
// idempotent and commutative for independent entities.
type Board struct {
	mu      sync.Mutex
	tasks   map[string]models.Task // key -> current fields
	where   map[string]string      // key -> bucket holding it
	buckets map[string][]string    // bucket -> ordered keys (manual order)
	pending map[string]pendingOp   // key -> in-flight optimistic mutation
	nextSeq int

	filter Filter
	sort   SortMode
}

type opKind int

const (
	opCreate opKind = iota + 1
	opUpdate
	opDelete
)

type pendingOp struct {
	kind       opKind
	seq        int         // staging order, for deterministic matching
	prev       models.Task // confirmed state before staging
	prevBucket string
	prevIndex  int
}

// NewBoard creates an empty board with the standard status buckets.
func NewBoard() *Board {
	b := &Board{
		tasks:   make(map[string]models.Task),
		where:   make(map[string]string),
		buckets: make(map[string][]string),
		pending: make(map[string]pendingOp),
		sort:    SortManual,
	}
	for _, status := range models.TaskStatuses {
		b.buckets[status] = nil
	}
	return b
}

// bucketFor maps a task to its bucket, defaulting unknown statuses to todo.
func bucketFor(t models.Task) string {
	if models.ValidTaskStatus(t.Status) {
		return t.Status
	}
	return models.TaskStatusTodo
}

// ApplySnapshot merges a full fetch. Surviving entities keep their relative
// order (the manual overlay), fields refresh from the server unless a local
// mutation is still pending, new entities append in snapshot order, and
// entities absent from the snapshot are dropped unless shielded by a
// pending optimistic mutation.
func (b *Board) ApplySnapshot(tasks []models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fetched := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		fetched[t.EntityKey()] = t
	}

	// Drop rows the server no longer has, unless a local mutation is in
	// flight for them (its confirm or rollback will settle the row).
	for key := range b.tasks {
		if _, ok := fetched[key]; ok {
			continue
		}
		if _, inFlight := b.pending[key]; inFlight {
			continue
		}
		b.removeLocked(key)
	}

	// Refresh surviving rows in place; pending rows keep their staged
	// fields until confirmed or rolled back.
	for key, server := range fetched {
		if _, exists := b.tasks[key]; !exists {
			continue
		}
		if _, inFlight := b.pending[key]; inFlight {
			continue
		}
		b.replaceLocked(key, server)
	}

	// Append rows we have not seen, in snapshot order.
	for _, t := range tasks {
		key := t.EntityKey()
		if _, exists := b.tasks[key]; exists {
			continue
		}
		b.appendLocked(key, t)
	}
}

// ApplyCreated merges a created push or create response. A duplicate id is
// an optimistic echo and replaces the existing row in place; a payload
// carrying a known client token (or matching a pending placeholder by title
// and project) confirms that placeholder instead of adding a second row.
func (b *Board) ApplyCreated(t models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := t.EntityKey()
	if _, exists := b.tasks[key]; exists {
		b.replaceLocked(key, t)
		return
	}
	if placeholder, ok := b.matchPlaceholderLocked(t); ok {
		b.rekeyLocked(placeholder, key, t)
		return
	}
	b.appendLocked(key, t)
}

// ApplyUpdated merges an updated push: fields replace in place; when the
// status changed the row moves to the end of its new bucket. An update for
// an unknown id is inserted, since push and fetch may arrive in either
// order.
func (b *Board) ApplyUpdated(t models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := t.EntityKey()
	if _, exists := b.tasks[key]; !exists {
		b.appendLocked(key, t)
		return
	}
	// The server echo supersedes any staged local edit.
	delete(b.pending, key)
	b.replaceLocked(key, t)
}

// ApplyDeleted removes a task by server id. Duplicate deletes are no-ops.
func (b *Board) ApplyDeleted(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := models.Task{ID: id}.EntityKey()
	if _, exists := b.tasks[key]; !exists {
		return
	}
	delete(b.pending, key)
	b.removeLocked(key)
}

// Task returns the current fields for a key.
func (b *Board) Task(key string) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[key]
	return t, ok
}

// Len reports the number of tasks across all buckets.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// Bucket returns the visible contents of one bucket with the active filter
// applied before the active sort comparator. Manual mode returns the
// overlay order untouched.
func (b *Board) Bucket(status string) []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := b.buckets[status]
	visible := make([]models.Task, 0, len(keys))
	for _, key := range keys {
		t := b.tasks[key]
		if b.filter.match(t) {
			visible = append(visible, t)
		}
	}
	sortTasks(visible, b.sort)
	return visible
}

// Tasks returns every task, bucket by bucket in board order.
func (b *Board) Tasks() []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]models.Task, 0, len(b.tasks))
	for _, status := range models.TaskStatuses {
		for _, key := range b.buckets[status] {
			all = append(all, b.tasks[key])
		}
	}
	return all
}

// SetFilter sets the visible-row predicate.
func (b *Board) SetFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

// SetSort sets the sort mode applied after filtering.
func (b *Board) SetSort(mode SortMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sort = mode
}

// Reorder moves the element at src to dst within one bucket, shifting the
// elements between them by one position. Indices address the bucket's full
// manual order.
func (b *Board) Reorder(status string, src, dst int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := b.buckets[status]
	if src < 0 || src >= len(keys) || dst < 0 || dst >= len(keys) {
		return fmt.Errorf("reorder %s: index out of range (src %d, dst %d, len %d)", status, src, dst, len(keys))
	}
	if src == dst {
		return nil
	}
	key := keys[src]
	keys = append(keys[:src], keys[src+1:]...)
	keys = append(keys[:dst], append([]string{key}, keys[dst:]...)...)
	b.buckets[status] = keys
	return nil
}

// locked helpers ------------------------------------------------------------

func (b *Board) appendLocked(key string, t models.Task) {
	bucket := bucketFor(t)
	b.tasks[key] = t
	b.where[key] = bucket
	b.buckets[bucket] = append(b.buckets[bucket], key)
}

func (b *Board) removeLocked(key string) {
	bucket, ok := b.where[key]
	if !ok {
		return
	}
	b.buckets[bucket] = removeKey(b.buckets[bucket], key)
	delete(b.where, key)
	delete(b.tasks, key)
}

// replaceLocked swaps in new fields, preserving the row's position unless
// the bucket-determining status changed, in which case the row appends to
// its new bucket.
func (b *Board) replaceLocked(key string, t models.Task) {
	oldBucket := b.where[key]
	newBucket := bucketFor(t)
	b.tasks[key] = t
	if newBucket == oldBucket {
		return
	}
	b.buckets[oldBucket] = removeKey(b.buckets[oldBucket], key)
	b.where[key] = newBucket
	b.buckets[newBucket] = append(b.buckets[newBucket], key)
}

// insertLocked places a key at an explicit position in a bucket.
func (b *Board) insertLocked(key string, t models.Task, bucket string, index int) {
	b.tasks[key] = t
	b.where[key] = bucket
	keys := b.buckets[bucket]
	if index < 0 || index > len(keys) {
		index = len(keys)
	}
	b.buckets[bucket] = append(keys[:index], append([]string{key}, keys[index:]...)...)
}

// rekeyLocked replaces a placeholder row with its server-confirmed identity,
// preserving its position in the bucket order.
func (b *Board) rekeyLocked(oldKey, newKey string, t models.Task) {
	bucket := b.where[oldKey]
	idx := indexOf(b.buckets[bucket], oldKey)
	delete(b.pending, oldKey)
	delete(b.tasks, oldKey)
	delete(b.where, oldKey)

	newBucket := bucketFor(t)
	b.tasks[newKey] = t
	if newBucket == bucket && idx >= 0 {
		b.where[newKey] = bucket
		b.buckets[bucket][idx] = newKey
		return
	}
	if idx >= 0 {
		b.buckets[bucket] = removeKey(b.buckets[bucket], oldKey)
	}
	b.where[newKey] = newBucket
	b.buckets[newBucket] = append(b.buckets[newBucket], newKey)
}

// matchPlaceholderLocked finds a pending optimistic create matching a pushed
// created payload: first by client token, then by exact title and project.
// When several placeholders share a title and project, the oldest staged one
// wins, so repeated pushes confirm them in staging order.
func (b *Board) matchPlaceholderLocked(t models.Task) (string, bool) {
	var (
		bestKey string
		bestSeq int
	)
	for key, op := range b.pending {
		if op.kind != opCreate {
			continue
		}
		local := b.tasks[key]
		if t.ClientToken != "" && local.ClientToken == t.ClientToken {
			return key, true
		}
		if local.Title != t.Title || !equalID(local.ProjectID, t.ProjectID) {
			continue
		}
		if bestKey == "" || op.seq < bestSeq {
			bestKey, bestSeq = key, op.seq
		}
	}
	return bestKey, bestKey != ""
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i:i], keys[i+1:]...)
		}
	}
	return keys
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func equalID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
