package dto

import (
	"time"

	"github.com/google/uuid"
)

type JobResponse struct {
	ID              uuid.UUID  `json:"id"`
	FileID          uuid.UUID  `json:"file_id"`
	Status          string     `json:"status"`
	QueuedAt        time.Time  `json:"queued_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CurrentStage    string     `json:"current_stage,omitempty"`
	CurrentStageNum int        `json:"current_stage_num"`
	TotalStages     int        `json:"total_stages"`
	Error           string     `json:"error,omitempty"`
	RetryCount      int        `json:"retry_count"`
	Filename        string     `json:"filename,omitempty"`
	Path            string     `json:"path,omitempty"`
}

type QueueCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Complete   int `json:"complete"`
	Failed     int `json:"failed"`
}

type QueueStatusResponse struct {
	Counts  QueueCounts  `json:"counts"`
	Current *JobResponse `json:"current,omitempty"`
}
