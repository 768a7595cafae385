package models

import (
	"time"

	"github.com/google/uuid"
)

// Scene is a contiguous [StartTC, EndTC) interval of a file, produced
// by shot detection. SceneIndex is 0-based and unique per file.
type Scene struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FileID       uuid.UUID `json:"file_id" db:"file_id"`
	SceneIndex   int       `json:"scene_index" db:"scene_index"`
	StartTC      float64   `json:"start_tc" db:"start_tc"`
	EndTC        float64   `json:"end_tc" db:"end_tc"`
	PosterKey    *string   `json:"poster_key,omitempty" db:"poster_key"`
	Transcript   *string   `json:"transcript,omitempty" db:"transcript"`
	ClusterID    *int      `json:"cluster_id,omitempty" db:"cluster_id"`
	ClusterOrder *float64  `json:"cluster_order,omitempty" db:"cluster_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Embedding is one (scene, model) vector. Dimension varies per model,
// so the column is an untyped pgvector and the row records it.
type Embedding struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SceneID      uuid.UUID `json:"scene_id" db:"scene_id"`
	ModelName    string    `json:"model_name" db:"model_name"`
	ModelVersion string    `json:"model_version" db:"model_version"`
	Dimension    int       `json:"dimension" db:"dimension"`
	Vector       []float32 `json:"-" db:"embedding"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Model names used for scene embeddings.
const (
	ModelVisual     = "clip"
	ModelTranscript = "sentence-transformer"
)
