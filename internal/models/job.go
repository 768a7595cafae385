package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// Live reports whether the job still occupies the file's queue slot.
// At most one live job exists per file.
func (s JobStatus) Live() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// Job is one enrichment attempt for a file. Stage fields are progress
// reporting only; Error holds the verbatim failure message.
type Job struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	FileID          uuid.UUID  `json:"file_id" db:"file_id"`
	Status          JobStatus  `json:"status" db:"status"`
	QueuedAt        time.Time  `json:"queued_at" db:"queued_at"`
	StartedAt       *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CurrentStage    string     `json:"current_stage,omitempty" db:"current_stage"`
	CurrentStageNum int        `json:"current_stage_num" db:"current_stage_num"`
	TotalStages     int        `json:"total_stages" db:"total_stages"`
	Error           string     `json:"error,omitempty" db:"error"`
	RetryCount      int        `json:"retry_count" db:"retry_count"`
}
