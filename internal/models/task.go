package models

import "strconv"

// Task status constants
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "inProgress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskStatuses lists the bucket statuses in board order.
var TaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a task as the backend serializes it. Dates and times are plain
// strings on the wire (YYYY-MM-DD and HH:MM), not timestamps.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Status      string    `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`
	DueDate     string    `json:"due_date,omitempty" db:"due_date"`
	StartTime   string    `json:"start_time,omitempty" db:"start_time"`
	EndTime     string    `json:"end_time,omitempty" db:"end_time"`
	AssigneeID  *int64    `json:"assignee_id,omitempty" db:"assignee_id"`
	ProjectID   *int64    `json:"project_id,omitempty" db:"project_id"`
	CreatedAt   Timestamp `json:"created_at" db:"created_at"`

	// ClientToken is a client-generated idempotency token attached to
	// optimistic creates so a pushed created event can be correlated with
	// the local placeholder row. Empty for server-confirmed tasks.
	ClientToken string `json:"client_token,omitempty" db:"client_token"`
}

// EntityKey returns the reconciliation key for the task. Placeholder tasks
// have no server id yet and are keyed by their client token instead.
func (t Task) EntityKey() string {
	if t.ID != 0 {
		return strconv.FormatInt(t.ID, 10)
	}
	return "local-" + t.ClientToken
}

// TaskCreate is the create request payload.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	AssigneeID  *int64 `json:"assignee_id,omitempty"`
	ProjectID   *int64 `json:"project_id,omitempty"`
	ClientToken string `json:"client_token,omitempty"`
}

// TaskUpdate is a partial update; nil fields are left untouched by the server.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	ProjectID   *int64  `json:"project_id,omitempty"`
}
