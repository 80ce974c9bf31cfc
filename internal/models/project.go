package models

import "strconv"

// Project color palette tokens accepted by the backend.
const (
	ColorAqua   = "aqua"
	ColorPurple = "purple"
	ColorOrange = "orange"
	ColorGreen  = "green"
	ColorPink   = "pink"
	ColorBlue   = "blue"
)

type Project struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	Color       string    `json:"color,omitempty" db:"color"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	CreatedAt   Timestamp `json:"created_at" db:"created_at"`
}

func (p Project) EntityKey() string {
	return strconv.FormatInt(p.ID, 10)
}

// ProjectCreate is the create/update request payload.
type ProjectCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}
