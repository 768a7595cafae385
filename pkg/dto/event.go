package dto

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the bus and over the WebSocket feed.
const (
	EventScanProgress     = "scan_progress"
	EventJobStarted       = "job_started"
	EventJobStage         = "job_stage"
	EventJobCompleted     = "job_completed"
	EventJobFailed        = "job_failed"
	EventClusterCompleted = "cluster_completed"
)

// Event is the envelope for every bus message. Data holds the
// type-specific payload.
type Event struct {
	Type string      `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

// JobEvent reports enrichment progress for one file.
type JobEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	FileID      uuid.UUID `json:"file_id"`
	Path        string    `json:"path,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Stage       string    `json:"stage,omitempty"`
	StageNum    int       `json:"stage_num,omitempty"`
	TotalStages int       `json:"total_stages,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ClusterEvent reports one finished clustering pass.
type ClusterEvent struct {
	Modality string `json:"modality"`
	Clusters int    `json:"clusters"`
	Points   int    `json:"points"`
	Noise    int    `json:"noise"`
}
