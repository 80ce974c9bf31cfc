package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Realtime topics
const (
	TopicTaskUpdate    = "task_update"
	TopicProjectUpdate = "project_update"
	TopicCommentUpdate = "comment_update"
)

// ChangeKind is the kind of change carried by a realtime event.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Event is a decoded realtime push. Type on the wire is the entity name plus
// the change kind ("task_created", "project_deleted", ...); Data is the
// entity snapshot, or just {"id": n} for deletions.
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// Kind extracts the change kind from the wire type.
func (e Event) Kind() (ChangeKind, error) {
	idx := strings.LastIndexByte(e.Type, '_')
	if idx < 0 {
		return "", fmt.Errorf("malformed event type %q", e.Type)
	}
	switch kind := ChangeKind(e.Type[idx+1:]); kind {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown change kind in event type %q", e.Type)
	}
}

// DeletedID decodes the {"id": n} payload of a deleted event.
func (e Event) DeletedID() (int64, error) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return 0, fmt.Errorf("decode deleted payload: %w", err)
	}
	return payload.ID, nil
}
