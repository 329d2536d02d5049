package model

import (
	"time"
)

// StylePreset is a catalog entry. Prompt is private and must never be
// exposed to API consumers.
type StylePreset struct {
	ID        string    `db:"id"`
	Key       string    `db:"key"`
	Title     string    `db:"title"`
	Prompt    string    `db:"prompt"`
	ImageURL  string    `db:"image_url"`
	SortOrder int       `db:"sort_order"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
