package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ReadyResponse reports whether the stack can serve useful results.
type ReadyResponse struct {
	Ready        bool   `json:"ready"`
	Database     string `json:"database"`
	Inference    string `json:"inference"`
	IndexerState string `json:"indexer_state"`
	DemoMode     bool   `json:"demo_mode"`
}

type WatchFolderStatus struct {
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
}

type WatchFoldersResponse struct {
	Folders []WatchFolderStatus `json:"folders"`
}

// ConfigValue is one settings document, raw JSON in both directions.
type ConfigValue struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type ExportEDLRequest struct {
	Title    string      `json:"title"`
	SceneIDs []uuid.UUID `json:"scene_ids" binding:"required,min=1"`
}
