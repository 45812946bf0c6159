package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording is one captured video: a URL into object storage plus metadata.
// Rows are immutable after creation; there is no update path, only delete.
type Recording struct {
	ID           uuid.UUID `json:"id"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Duration     int       `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
	FileSize     int64     `json:"file_size"`
}
