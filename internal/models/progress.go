package models

import "time"

type ScanPhase string

const (
	ScanPhaseIdle            ScanPhase = "idle"
	ScanPhaseDiscovering     ScanPhase = "discovering"
	ScanPhaseProcessing      ScanPhase = "processing"
	ScanPhaseCheckingMissing ScanPhase = "checking_missing"
	ScanPhaseComplete        ScanPhase = "complete"
)

// ScanProgress is the live scan status document persisted under the
// scan_progress settings key and mirrored to the event bus.
type ScanProgress struct {
	Phase          ScanPhase `json:"phase"`
	CurrentFolder  string    `json:"current_folder,omitempty"`
	DirsScanned    int       `json:"dirs_scanned"`
	FilesFound     int       `json:"files_found"`
	FilesProcessed int       `json:"files_processed"`
	FilesNew       int       `json:"files_new"`
	FilesUpdated   int       `json:"files_updated"`
	FilesSkipped   int       `json:"files_skipped"`
	UpdatedAt      time.Time `json:"updated_at"`
}
