package dto

import "github.com/google/uuid"

type FaceResponse struct {
	ID           uuid.UUID `json:"id"`
	SceneID      uuid.UUID `json:"scene_id"`
	BboxX        float32   `json:"bbox_x"`
	BboxY        float32   `json:"bbox_y"`
	BboxW        float32   `json:"bbox_w"`
	BboxH        float32   `json:"bbox_h"`
	ClusterID    *int      `json:"cluster_id,omitempty"`
	ClusterOrder *float64  `json:"cluster_order,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

// FaceClusterResponse is one identity cluster summary: its size and
// the most representative face.
type FaceClusterResponse struct {
	ClusterID    int       `json:"cluster_id"`
	Size         int       `json:"size"`
	FaceID       uuid.UUID `json:"face_id"`
	SceneID      uuid.UUID `json:"scene_id"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

type FaceClustersResponse struct {
	Clusters []FaceClusterResponse `json:"clusters"`
	Total    int                   `json:"total"`
}

type FaceDetailResponse struct {
	Face  FaceResponse  `json:"face"`
	Scene SceneResponse `json:"scene"`
	File  FileResponse  `json:"file"`
}
