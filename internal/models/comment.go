package models

import "strconv"

type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`

	// User is populated by the list endpoint, absent elsewhere.
	User *User `json:"user,omitempty"`
}

func (c Comment) EntityKey() string {
	return strconv.FormatInt(c.ID, 10)
}
