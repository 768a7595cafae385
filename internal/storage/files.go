package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/cinedex/internal/models"
)

const fileColumns = `id, path, filename, parent_folder, file_size_bytes, file_created_at, file_modified_at,
	duration_seconds, width, height, fps, codec, audio_tracks, indexed_at, deleted_at, created_at`

func scanFile(row pgx.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.ParentFolder, &f.FileSizeBytes,
		&f.FileCreatedAt, &f.FileModifiedAt, &f.DurationSeconds, &f.Width, &f.Height,
		&f.FPS, &f.Codec, &f.AudioTracks, &f.IndexedAt, &f.DeletedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) CreateFile(ctx context.Context, f *models.File) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO files (id, path, filename, parent_folder, file_size_bytes, file_created_at, file_modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		f.ID, f.Path, f.Filename, f.ParentFolder, f.FileSizeBytes, f.FileCreatedAt, f.FileModifiedAt,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (s *PostgresStore) FileByPath(ctx context.Context, path string) (*models.File, error) {
	f, err := scanFile(s.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE path = $1`, path))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get file by path: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	f, err := scanFile(s.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// ResetFileForReindex refreshes filesystem attributes and clears media
// attributes, indexed_at and deleted_at. Used for both modified and
// resurrected files; enrichment re-probes from scratch.
func (s *PostgresStore) ResetFileForReindex(ctx context.Context, id uuid.UUID, sizeBytes int64, createdAt, modifiedAt *time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE files SET file_size_bytes = $1, file_created_at = $2, file_modified_at = $3,
			duration_seconds = NULL, width = NULL, height = NULL, fps = NULL, codec = NULL,
			audio_tracks = NULL, indexed_at = NULL, deleted_at = NULL
		 WHERE id = $4`,
		sizeBytes, createdAt, modifiedAt, id)
	if err != nil {
		return fmt.Errorf("reset file for reindex: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkFileMissing(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE files SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark file missing: %w", err)
	}
	return nil
}

type FileRef struct {
	ID   uuid.UUID
	Path string
}

// ActiveFileRefs lists id/path for every non-deleted file, for the
// scanner's missing-file sweep.
func (s *PostgresStore) ActiveFileRefs(ctx context.Context) ([]FileRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, path FROM files WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list active files: %w", err)
	}
	defer rows.Close()

	var refs []FileRef
	for rows.Next() {
		var r FileRef
		if err := rows.Scan(&r.ID, &r.Path); err != nil {
			return nil, fmt.Errorf("scan file ref: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// SetFileMediaInfo stores probed container attributes.
func (s *PostgresStore) SetFileMediaInfo(ctx context.Context, id uuid.UUID, duration float64, width, height int, fps float64, codec string, audioTracks int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE files SET duration_seconds = $1, width = $2, height = $3, fps = $4, codec = $5, audio_tracks = $6
		 WHERE id = $7`,
		duration, width, height, fps, codec, audioTracks, id)
	if err != nil {
		return fmt.Errorf("set file media info: %w", err)
	}
	return nil
}

type FileSummary struct {
	models.File
	SceneCount int `json:"scene_count"`
}

func (s *PostgresStore) ListFiles(ctx context.Context, limit, offset int) ([]FileSummary, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM files WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+prefixedFileColumns("f")+`, COUNT(s.id) AS scene_count
		 FROM files f
		 LEFT JOIN scenes s ON s.file_id = f.id
		 WHERE f.deleted_at IS NULL
		 GROUP BY f.id
		 ORDER BY f.filename
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []FileSummary
	for rows.Next() {
		var fs FileSummary
		if err := rows.Scan(&fs.ID, &fs.Path, &fs.Filename, &fs.ParentFolder, &fs.FileSizeBytes,
			&fs.FileCreatedAt, &fs.FileModifiedAt, &fs.DurationSeconds, &fs.Width, &fs.Height,
			&fs.FPS, &fs.Codec, &fs.AudioTracks, &fs.IndexedAt, &fs.DeletedAt, &fs.CreatedAt,
			&fs.SceneCount); err != nil {
			return nil, 0, fmt.Errorf("scan file summary: %w", err)
		}
		files = append(files, fs)
	}
	return files, total, nil
}

func prefixedFileColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.path, %[1]s.filename, %[1]s.parent_folder, %[1]s.file_size_bytes,
		%[1]s.file_created_at, %[1]s.file_modified_at, %[1]s.duration_seconds, %[1]s.width, %[1]s.height,
		%[1]s.fps, %[1]s.codec, %[1]s.audio_tracks, %[1]s.indexed_at, %[1]s.deleted_at, %[1]s.created_at`, alias)
}

func (s *PostgresStore) PurgeDeletedFiles(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM files WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("purge deleted files: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeOrphanFiles removes rows whose path no longer falls under any
// watch folder. With no folders configured nothing is removed.
func (s *PostgresStore) PurgeOrphanFiles(ctx context.Context, watchFolders []string) (int64, error) {
	if len(watchFolders) == 0 {
		return 0, nil
	}
	patterns := make([]string, 0, len(watchFolders))
	for _, folder := range watchFolders {
		patterns = append(patterns, folder+"%")
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM files WHERE NOT (path LIKE ANY($1))`, patterns)
	if err != nil {
		return 0, fmt.Errorf("purge orphan files: %w", err)
	}
	return tag.RowsAffected(), nil
}

// WipeArchive truncates all archive tables. Settings survive.
func (s *PostgresStore) WipeArchive(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`TRUNCATE files, scenes, faces, embeddings, enrichment_queue CASCADE`)
	if err != nil {
		return fmt.Errorf("wipe archive: %w", err)
	}
	return nil
}
