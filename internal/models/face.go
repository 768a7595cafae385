package models

import (
	"time"

	"github.com/google/uuid"
)

// Face is one detection on a scene poster. Embedding is a unit-length
// 512-dim identity vector; the bbox is in poster pixel coordinates.
type Face struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SceneID      uuid.UUID `json:"scene_id" db:"scene_id"`
	Embedding    []float32 `json:"-" db:"embedding"`
	BboxX        float32   `json:"bbox_x" db:"bbox_x"`
	BboxY        float32   `json:"bbox_y" db:"bbox_y"`
	BboxW        float32   `json:"bbox_w" db:"bbox_w"`
	BboxH        float32   `json:"bbox_h" db:"bbox_h"`
	ClusterID    *int      `json:"cluster_id,omitempty" db:"cluster_id"`
	ClusterOrder *float64  `json:"cluster_order,omitempty" db:"cluster_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
