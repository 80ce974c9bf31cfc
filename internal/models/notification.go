package models

// Notification type constants
const (
	NotificationDueSoon  = "due_soon"
	NotificationAssigned = "assigned"
	NotificationComment  = "comment"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TaskID    *int64    `json:"task_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt Timestamp `json:"created_at"`
}

// UnreadCount is the response of the unread-count endpoint.
type UnreadCount struct {
	Count int `json:"count"`
}
