package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/cinedex/internal/models"
)

const jobColumns = `id, file_id, status, queued_at, started_at, completed_at, current_stage, current_stage_num, total_stages, error, retry_count`

func scanJob(row pgx.Row) (*models.Job, error) {
	j := &models.Job{}
	err := row.Scan(&j.ID, &j.FileID, &j.Status, &j.QueuedAt, &j.StartedAt, &j.CompletedAt,
		&j.CurrentStage, &j.CurrentStageNum, &j.TotalStages, &j.Error, &j.RetryCount)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// ReplaceJob drops any previous job rows for the file and inserts a
// fresh pending one, keeping at most one live job per file.
func (s *PostgresStore) ReplaceJob(ctx context.Context, fileID uuid.UUID) (*models.Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin replace job: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM enrichment_queue WHERE file_id = $1`, fileID); err != nil {
		return nil, fmt.Errorf("delete stale jobs: %w", err)
	}

	j := &models.Job{ID: uuid.New(), FileID: fileID, Status: models.JobStatusPending}
	if err := tx.QueryRow(ctx,
		`INSERT INTO enrichment_queue (id, file_id, status) VALUES ($1, $2, $3) RETURNING queued_at`,
		j.ID, j.FileID, j.Status,
	).Scan(&j.QueuedAt); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit replace job: %w", err)
	}
	return j, nil
}

// PendingJobs returns the oldest pending jobs, FIFO by queue time.
func (s *PostgresStore) PendingJobs(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM enrichment_queue
		 WHERE status = $1 ORDER BY queued_at LIMIT $2`,
		models.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}

func (s *PostgresStore) PendingJobCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrichment_queue WHERE status = $1`,
		models.JobStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkJobProcessing(ctx context.Context, jobID uuid.UUID, totalStages int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue
		 SET status = $1, started_at = NOW(), current_stage = 'starting', current_stage_num = 0, total_stages = $2
		 WHERE id = $3`,
		models.JobStatusProcessing, totalStages, jobID)
	if err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateJobStage(ctx context.Context, jobID uuid.UUID, stage string, stageNum int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue SET current_stage = $1, current_stage_num = $2 WHERE id = $3`,
		stage, stageNum, jobID)
	if err != nil {
		return fmt.Errorf("update job stage: %w", err)
	}
	return nil
}

// CompleteJob finishes the job and stamps the file's indexed_at in the
// same transaction.
func (s *PostgresStore) CompleteJob(ctx context.Context, jobID, fileID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin complete job: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE enrichment_queue SET status = $1, completed_at = NOW(), current_stage = 'done' WHERE id = $2`,
		models.JobStatusComplete, jobID); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE files SET indexed_at = NOW() WHERE id = $1`, fileID); err != nil {
		return fmt.Errorf("stamp indexed_at: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit complete job: %w", err)
	}
	return nil
}

func (s *PostgresStore) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue
		 SET status = $1, completed_at = NOW(), error = $2, retry_count = retry_count + 1
		 WHERE id = $3`,
		models.JobStatusFailed, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// RecoverStuckJobs resets jobs stuck in processing longer than timeout
// back to pending. Called once at indexer startup; a crashed worker's
// jobs get retried on the next run.
func (s *PostgresStore) RecoverStuckJobs(ctx context.Context, timeout time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue SET status = $1, started_at = NULL
		 WHERE status = $2 AND started_at < NOW() - $3::interval`,
		models.JobStatusPending, models.JobStatusProcessing, timeout.String())
	if err != nil {
		return 0, fmt.Errorf("recover stuck jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

type QueueCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Complete   int `json:"complete"`
	Failed     int `json:"failed"`
}

func (s *PostgresStore) CountJobsByStatus(ctx context.Context) (QueueCounts, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM enrichment_queue GROUP BY status`)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	var counts QueueCounts
	for rows.Next() {
		var status models.JobStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return QueueCounts{}, fmt.Errorf("scan job count: %w", err)
		}
		switch status {
		case models.JobStatusPending:
			counts.Pending = n
		case models.JobStatusProcessing:
			counts.Processing = n
		case models.JobStatusComplete:
			counts.Complete = n
		case models.JobStatusFailed:
			counts.Failed = n
		}
	}
	return counts, nil
}

// JobDetail is a job joined with its file's name and path.
type JobDetail struct {
	models.Job
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// CurrentJob returns the most recently started processing job, nil when
// the worker is idle.
func (s *PostgresStore) CurrentJob(ctx context.Context) (*JobDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT q.id, q.file_id, q.status, q.queued_at, q.started_at, q.completed_at,
			q.current_stage, q.current_stage_num, q.total_stages, q.error, q.retry_count,
			f.filename, f.path
		 FROM enrichment_queue q JOIN files f ON f.id = q.file_id
		 WHERE q.status = $1
		 ORDER BY q.started_at DESC NULLS LAST LIMIT 1`,
		models.JobStatusProcessing)

	var d JobDetail
	err := row.Scan(&d.ID, &d.FileID, &d.Status, &d.QueuedAt, &d.StartedAt, &d.CompletedAt,
		&d.CurrentStage, &d.CurrentStageNum, &d.TotalStages, &d.Error, &d.RetryCount,
		&d.Filename, &d.Path)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get current job: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ResetFailedJobs(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue
		 SET status = $1, error = '', started_at = NULL, completed_at = NULL
		 WHERE status = $2`,
		models.JobStatusPending, models.JobStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("reset failed jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ResetProcessingJobs(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_queue SET status = $1, started_at = NULL WHERE status = $2`,
		models.JobStatusPending, models.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("reset processing jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// JobsForFile lists a file's queue rows, newest first.
func (s *PostgresStore) JobsForFile(ctx context.Context, fileID uuid.UUID) ([]models.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM enrichment_queue WHERE file_id = $1 ORDER BY queued_at DESC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for file: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, nil
}
