package storage

import (
	"context"
	"fmt"
)

type ArchiveStats struct {
	FilesTotal        int         `json:"files_total"`
	FilesIndexed      int         `json:"files_indexed"`
	FilesDeleted      int         `json:"files_deleted"`
	Scenes            int         `json:"scenes"`
	ScenesTranscribed int         `json:"scenes_transcribed"`
	Faces             int         `json:"faces"`
	FaceClusters      int         `json:"face_clusters"`
	SceneClusters     int         `json:"scene_clusters"`
	TotalSizeBytes    int64       `json:"total_size_bytes"`
	TotalDuration     float64     `json:"total_duration_seconds"`
	Queue             QueueCounts `json:"queue"`
}

func (s *PostgresStore) GetArchiveStats(ctx context.Context) (*ArchiveStats, error) {
	st := &ArchiveStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM files WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM files WHERE deleted_at IS NULL AND indexed_at IS NOT NULL),
			(SELECT COUNT(*) FROM files WHERE deleted_at IS NOT NULL),
			(SELECT COUNT(*) FROM scenes),
			(SELECT COUNT(*) FROM scenes WHERE transcript IS NOT NULL AND transcript <> ''),
			(SELECT COUNT(*) FROM faces),
			(SELECT COUNT(DISTINCT cluster_id) FROM faces WHERE cluster_id >= 0),
			(SELECT COUNT(DISTINCT cluster_id) FROM scenes WHERE cluster_id >= 0),
			(SELECT COALESCE(SUM(file_size_bytes), 0) FROM files WHERE deleted_at IS NULL),
			(SELECT COALESCE(SUM(duration_seconds), 0) FROM files WHERE deleted_at IS NULL)`,
	).Scan(&st.FilesTotal, &st.FilesIndexed, &st.FilesDeleted, &st.Scenes, &st.ScenesTranscribed,
		&st.Faces, &st.FaceClusters, &st.SceneClusters, &st.TotalSizeBytes, &st.TotalDuration)
	if err != nil {
		return nil, fmt.Errorf("archive stats: %w", err)
	}

	counts, err := s.CountJobsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st.Queue = counts
	return st, nil
}

type VectorStats struct {
	ModelName    string `json:"model_name"`
	ModelVersion string `json:"model_version"`
	Dimension    int    `json:"dimension"`
	Count        int    `json:"count"`
}

func (s *PostgresStore) GetVectorStats(ctx context.Context) ([]VectorStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT model_name, MAX(model_version), MAX(dimension), COUNT(*)
		FROM embeddings GROUP BY model_name ORDER BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("vector stats: %w", err)
	}
	defer rows.Close()

	var out []VectorStats
	for rows.Next() {
		var v VectorStats
		if err := rows.Scan(&v.ModelName, &v.ModelVersion, &v.Dimension, &v.Count); err != nil {
			return nil, fmt.Errorf("scan vector stats: %w", err)
		}
		out = append(out, v)
	}

	var faceCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faces`).Scan(&faceCount); err != nil {
		return nil, fmt.Errorf("count face vectors: %w", err)
	}
	if faceCount > 0 {
		out = append(out, VectorStats{ModelName: "arcface", Dimension: 512, Count: faceCount})
	}
	return out, nil
}

type AdminStatus struct {
	DatabaseSize string         `json:"database_size"`
	TableCounts  map[string]int `json:"table_counts"`
}

func (s *PostgresStore) GetAdminStatus(ctx context.Context) (*AdminStatus, error) {
	st := &AdminStatus{TableCounts: map[string]int{}}
	if err := s.pool.QueryRow(ctx,
		`SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&st.DatabaseSize); err != nil {
		return nil, fmt.Errorf("database size: %w", err)
	}

	for _, table := range []string{"files", "scenes", "faces", "embeddings", "enrichment_queue", "settings"} {
		var n int
		if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		st.TableCounts[table] = n
	}
	return st, nil
}
