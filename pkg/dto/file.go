package dto

import (
	"time"

	"github.com/google/uuid"
)

type FileResponse struct {
	ID              uuid.UUID  `json:"id"`
	Path            string     `json:"path"`
	Filename        string     `json:"filename"`
	ParentFolder    string     `json:"parent_folder"`
	FileSizeBytes   int64      `json:"file_size_bytes"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Width           *int       `json:"width,omitempty"`
	Height          *int       `json:"height,omitempty"`
	FPS             *float64   `json:"fps,omitempty"`
	Codec           *string    `json:"codec,omitempty"`
	AudioTracks     *int       `json:"audio_tracks,omitempty"`
	IndexedAt       *time.Time `json:"indexed_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	SceneCount      int        `json:"scene_count,omitempty"`
	VideoURL        string     `json:"video_url,omitempty"`
}

type FileListResponse struct {
	Files  []FileResponse `json:"files"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type FileDetailResponse struct {
	File   FileResponse    `json:"file"`
	Scenes []SceneResponse `json:"scenes"`
}
