package models

import (
	"time"

	"github.com/google/uuid"
)

// File is one video discovered under a watch folder. Identity is the
// absolute path; rows are soft-deleted when the file disappears and
// resurrected if it comes back.
type File struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Path           string     `json:"path" db:"path"`
	Filename       string     `json:"filename" db:"filename"`
	ParentFolder   string     `json:"parent_folder" db:"parent_folder"`
	FileSizeBytes  int64      `json:"file_size_bytes" db:"file_size_bytes"`
	FileCreatedAt  *time.Time `json:"file_created_at,omitempty" db:"file_created_at"`
	FileModifiedAt *time.Time `json:"file_modified_at,omitempty" db:"file_modified_at"`

	// Media attributes stay nil until the metadata stage probes the
	// container, and are cleared again when the file changes on disk.
	DurationSeconds *float64 `json:"duration_seconds,omitempty" db:"duration_seconds"`
	Width           *int     `json:"width,omitempty" db:"width"`
	Height          *int     `json:"height,omitempty" db:"height"`
	FPS             *float64 `json:"fps,omitempty" db:"fps"`
	Codec           *string  `json:"codec,omitempty" db:"codec"`
	AudioTracks     *int     `json:"audio_tracks,omitempty" db:"audio_tracks"`

	IndexedAt *time.Time `json:"indexed_at,omitempty" db:"indexed_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
