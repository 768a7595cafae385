package storage

import (
	"context"
	"fmt"
)

// Schema bootstrap is idempotent and runs on every process start. Both
// binaries call it so either can come up first on a fresh database.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS files (
		id UUID PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		parent_folder TEXT NOT NULL DEFAULT '',
		file_size_bytes BIGINT NOT NULL DEFAULT 0,
		file_created_at TIMESTAMPTZ,
		file_modified_at TIMESTAMPTZ,
		duration_seconds DOUBLE PRECISION,
		width INTEGER,
		height INTEGER,
		fps DOUBLE PRECISION,
		codec TEXT,
		audio_tracks INTEGER,
		indexed_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS scenes (
		id UUID PRIMARY KEY,
		file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		scene_index INTEGER NOT NULL,
		start_tc DOUBLE PRECISION NOT NULL,
		end_tc DOUBLE PRECISION NOT NULL,
		poster_key TEXT,
		transcript TEXT,
		cluster_id INTEGER,
		cluster_order DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (file_id, scene_index)
	)`,

	`CREATE TABLE IF NOT EXISTS faces (
		id UUID PRIMARY KEY,
		scene_id UUID NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		embedding vector(512) NOT NULL,
		bbox_x REAL NOT NULL DEFAULT 0,
		bbox_y REAL NOT NULL DEFAULT 0,
		bbox_w REAL NOT NULL DEFAULT 0,
		bbox_h REAL NOT NULL DEFAULT 0,
		cluster_id INTEGER,
		cluster_order DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS embeddings (
		id UUID PRIMARY KEY,
		scene_id UUID NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		model_name TEXT NOT NULL,
		model_version TEXT NOT NULL DEFAULT '',
		dimension INTEGER NOT NULL,
		embedding vector NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (scene_id, model_name)
	)`,

	`CREATE TABLE IF NOT EXISTS enrichment_queue (
		id UUID PRIMARY KEY,
		file_id UUID NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		queued_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		current_stage TEXT NOT NULL DEFAULT '',
		current_stage_num INTEGER NOT NULL DEFAULT 0,
		total_stages INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		retry_count INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_files_deleted_at ON files (deleted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_scenes_file_id ON scenes (file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scenes_cluster ON scenes (cluster_id)`,
	`CREATE INDEX IF NOT EXISTS idx_faces_scene_id ON faces (scene_id)`,
	`CREATE INDEX IF NOT EXISTS idx_faces_cluster ON faces (cluster_id)`,
	`CREATE INDEX IF NOT EXISTS idx_embeddings_scene ON embeddings (scene_id)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_status ON enrichment_queue (status, queued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_queue_file ON enrichment_queue (file_id)`,
}

func (s *PostgresStore) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
