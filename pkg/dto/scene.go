package dto

import (
	"time"

	"github.com/google/uuid"
)

type SceneResponse struct {
	ID           uuid.UUID     `json:"id"`
	FileID       uuid.UUID     `json:"file_id"`
	SceneIndex   int           `json:"scene_index"`
	StartTC      float64       `json:"start_tc"`
	EndTC        float64       `json:"end_tc"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Transcript   *string       `json:"transcript,omitempty"`
	ClusterID    *int          `json:"cluster_id,omitempty"`
	ClusterOrder *float64      `json:"cluster_order,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	File         *FileResponse `json:"file,omitempty"`
	Faces        []SceneFace   `json:"faces,omitempty"`
}

// SceneFace is a face attached to a scene response, bbox in poster
// pixel coordinates.
type SceneFace struct {
	ID        uuid.UUID `json:"id"`
	BboxX     float32   `json:"bbox_x"`
	BboxY     float32   `json:"bbox_y"`
	BboxW     float32   `json:"bbox_w"`
	BboxH     float32   `json:"bbox_h"`
	ClusterID *int      `json:"cluster_id,omitempty"`
}

type SceneListResponse struct {
	Scenes []SceneResponse `json:"scenes"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// EmbeddingInfo describes one stored vector without carrying it.
type EmbeddingInfo struct {
	ModelName    string    `json:"model_name"`
	ModelVersion string    `json:"model_version"`
	Dimension    int       `json:"dimension"`
	CreatedAt    time.Time `json:"created_at"`
}

type SceneDetailResponse struct {
	SceneResponse
	Embeddings []EmbeddingInfo `json:"embeddings"`
}
