package model

import (
	"time"
)

// Blob is a row in the embedded blob store (used when no external object
// storage is configured).
type Blob struct {
	Key         string    `db:"key"`
	Content     []byte    `db:"content"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}
