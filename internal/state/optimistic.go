package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/models"
)

// Optimistic mutations: each Stage* call applies a local change immediately
// and records what is needed to roll it back. The caller issues the server
// request and then settles the row with Confirm (server result) or Rollback
// (request failed).

// StageCreate inserts a placeholder row for a task the server has not
// confirmed yet and returns its reconciliation key. The placeholder carries
// a client-generated idempotency token so a later created push can be
// correlated with it.
func (b *Board) StageCreate(t models.Task) (key string, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t.ID = 0
	if t.ClientToken == "" {
		t.ClientToken = uuid.NewString()
	}
	key = t.EntityKey()
	b.appendLocked(key, t)
	b.nextSeq++
	b.pending[key] = pendingOp{kind: opCreate, seq: b.nextSeq}
	return key, t.ClientToken
}

// ConfirmCreate replaces a placeholder with the server-confirmed task,
// preserving its position. If a created push already confirmed it, the call
// is a no-op.
func (b *Board) ConfirmCreate(key string, server models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if op, ok := b.pending[key]; !ok || op.kind != opCreate {
		return
	}
	serverKey := server.EntityKey()
	if _, exists := b.tasks[serverKey]; exists {
		// A push beat the response here; drop the placeholder.
		b.removeLocked(key)
		delete(b.pending, key)
		return
	}
	b.rekeyLocked(key, serverKey, server)
}

// StageUpdate applies new fields to a row ahead of server confirmation.
// A status change relocates the row to the end of its new bucket.
func (b *Board) StageUpdate(key string, updated models.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, exists := b.tasks[key]
	if !exists {
		return fmt.Errorf("stage update: unknown task %s", key)
	}
	if _, inFlight := b.pending[key]; !inFlight {
		b.pending[key] = pendingOp{
			kind:       opUpdate,
			prev:       prev,
			prevBucket: b.where[key],
			prevIndex:  indexOf(b.buckets[b.where[key]], key),
		}
	}
	b.replaceLocked(key, updated)
	return nil
}

// StageMove optimistically relocates a row to a position in another bucket,
// changing its status field; the caller issues the matching status update.
func (b *Board) StageMove(key, toBucket string, toIndex int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, exists := b.tasks[key]
	if !exists {
		return fmt.Errorf("stage move: unknown task %s", key)
	}
	if !models.ValidTaskStatus(toBucket) {
		return fmt.Errorf("stage move: unknown bucket %s", toBucket)
	}
	if _, inFlight := b.pending[key]; !inFlight {
		b.pending[key] = pendingOp{
			kind:       opUpdate,
			prev:       prev,
			prevBucket: b.where[key],
			prevIndex:  indexOf(b.buckets[b.where[key]], key),
		}
	}
	updated := prev
	updated.Status = toBucket

	b.buckets[b.where[key]] = removeKey(b.buckets[b.where[key]], key)
	b.insertLocked(key, updated, toBucket, toIndex)
	return nil
}

// StageDelete removes a row ahead of server confirmation, remembering its
// position for rollback.
func (b *Board) StageDelete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, exists := b.tasks[key]
	if !exists {
		return fmt.Errorf("stage delete: unknown task %s", key)
	}
	b.pending[key] = pendingOp{
		kind:       opDelete,
		prev:       prev,
		prevBucket: b.where[key],
		prevIndex:  indexOf(b.buckets[b.where[key]], key),
	}
	bucket := b.where[key]
	b.buckets[bucket] = removeKey(b.buckets[bucket], key)
	delete(b.where, key)
	delete(b.tasks, key)
	return nil
}

// Confirm settles a staged update or delete after the server accepted it.
// For updates the server's echo of the row, when given, replaces the staged
// fields.
func (b *Board) Confirm(key string, server *models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	op, ok := b.pending[key]
	if !ok {
		return
	}
	delete(b.pending, key)
	if op.kind == opUpdate && server != nil {
		if _, exists := b.tasks[key]; exists {
			b.replaceLocked(key, *server)
		}
	}
}

// Rollback undoes a staged mutation after the server rejected it, restoring
// the last confirmed state.
func (b *Board) Rollback(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	op, ok := b.pending[key]
	if !ok {
		return
	}
	delete(b.pending, key)

	switch op.kind {
	case opCreate:
		b.removeLocked(key)
	case opUpdate:
		if _, exists := b.tasks[key]; !exists {
			return
		}
		current := b.where[key]
		b.buckets[current] = removeKey(b.buckets[current], key)
		delete(b.where, key)
		delete(b.tasks, key)
		b.insertLocked(key, op.prev, op.prevBucket, op.prevIndex)
	case opDelete:
		if _, exists := b.tasks[key]; exists {
			return
		}
		b.insertLocked(key, op.prev, op.prevBucket, op.prevIndex)
	}
}

// PendingCount reports how many optimistic mutations are unsettled.
func (b *Board) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
