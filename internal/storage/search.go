package storage

import (
	"context"
	"fmt"
)

// CandidateFilter is the SQL-side portion of a search: metadata
// predicates plus the transcript substring match. Similarity stages run
// in the search engine on the rows this returns.
type CandidateFilter struct {
	FilenameContains   string
	PathContains       string
	TranscriptContains string
	Codec              string
	DurationMin        *float64
	DurationMax        *float64
	WidthMin           *int
	WidthMax           *int
	HeightMin          *int
	HeightMax          *int
	FPSMin             *float64
	FPSMax             *float64
}

// SearchCandidates returns scenes of non-deleted, fully enriched files
// matching the filter, ordered by filename then scene index so results
// are deterministic before any similarity stage re-sorts them.
func (s *PostgresStore) SearchCandidates(ctx context.Context, f CandidateFilter) ([]SceneDetail, error) {
	where := `WHERE fl.deleted_at IS NULL
		AND EXISTS (SELECT 1 FROM enrichment_queue q WHERE q.file_id = fl.id AND q.status = 'complete')`
	args := []interface{}{}
	argIdx := 1

	if f.FilenameContains != "" {
		where += fmt.Sprintf(" AND fl.filename ILIKE $%d", argIdx)
		args = append(args, "%"+f.FilenameContains+"%")
		argIdx++
	}
	if f.PathContains != "" {
		where += fmt.Sprintf(" AND fl.path ILIKE $%d", argIdx)
		args = append(args, "%"+f.PathContains+"%")
		argIdx++
	}
	if f.TranscriptContains != "" {
		where += fmt.Sprintf(" AND sc.transcript ILIKE $%d", argIdx)
		args = append(args, "%"+f.TranscriptContains+"%")
		argIdx++
	}
	if f.Codec != "" {
		where += fmt.Sprintf(" AND fl.codec = $%d", argIdx)
		args = append(args, f.Codec)
		argIdx++
	}
	if f.DurationMin != nil {
		where += fmt.Sprintf(" AND fl.duration_seconds >= $%d", argIdx)
		args = append(args, *f.DurationMin)
		argIdx++
	}
	if f.DurationMax != nil {
		where += fmt.Sprintf(" AND fl.duration_seconds <= $%d", argIdx)
		args = append(args, *f.DurationMax)
		argIdx++
	}
	if f.WidthMin != nil {
		where += fmt.Sprintf(" AND fl.width >= $%d", argIdx)
		args = append(args, *f.WidthMin)
		argIdx++
	}
	if f.WidthMax != nil {
		where += fmt.Sprintf(" AND fl.width <= $%d", argIdx)
		args = append(args, *f.WidthMax)
		argIdx++
	}
	if f.HeightMin != nil {
		where += fmt.Sprintf(" AND fl.height >= $%d", argIdx)
		args = append(args, *f.HeightMin)
		argIdx++
	}
	if f.HeightMax != nil {
		where += fmt.Sprintf(" AND fl.height <= $%d", argIdx)
		args = append(args, *f.HeightMax)
		argIdx++
	}
	if f.FPSMin != nil {
		where += fmt.Sprintf(" AND fl.fps >= $%d", argIdx)
		args = append(args, *f.FPSMin)
		argIdx++
	}
	if f.FPSMax != nil {
		where += fmt.Sprintf(" AND fl.fps <= $%d", argIdx)
		args = append(args, *f.FPSMax)
	}

	query := `SELECT ` + prefixedSceneColumns("sc") + `, ` + prefixedFileColumns("fl") + `
		 FROM scenes sc JOIN files fl ON fl.id = sc.file_id ` + where + `
		 ORDER BY fl.filename, sc.scene_index`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var out []SceneDetail
	for rows.Next() {
		var d SceneDetail
		if err := scanSceneDetail(rows, &d); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}
