package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClusterAssignment is one row's new cluster membership after a
// re-clustering pass. ClusterID -1 marks noise.
type ClusterAssignment struct {
	ID           uuid.UUID
	ClusterID    int
	ClusterOrder float64
}

func (s *PostgresStore) applyClusterAssignments(ctx context.Context, table string, assignments []ClusterAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UPDATE %s SET cluster_id = $1, cluster_order = $2 WHERE id = $3`, table)
	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(query, a.ClusterID, a.ClusterOrder, a.ID)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("apply %s cluster assignments: %w", table, err)
	}
	return nil
}
