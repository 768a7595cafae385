package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/cinedex/internal/models"
)

const sceneColumns = `id, file_id, scene_index, start_tc, end_tc, poster_key, transcript, cluster_id, cluster_order, created_at`

func scanScene(row pgx.Row) (*models.Scene, error) {
	sc := &models.Scene{}
	err := row.Scan(&sc.ID, &sc.FileID, &sc.SceneIndex, &sc.StartTC, &sc.EndTC,
		&sc.PosterKey, &sc.Transcript, &sc.ClusterID, &sc.ClusterOrder, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// ReplaceScenes atomically swaps a file's scene list. Cascades remove
// the old scenes' faces and embeddings.
func (s *PostgresStore) ReplaceScenes(ctx context.Context, fileID uuid.UUID, scenes []models.Scene) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace scenes: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM scenes WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("delete old scenes: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range scenes {
		sc := &scenes[i]
		if sc.ID == uuid.Nil {
			sc.ID = uuid.New()
		}
		sc.FileID = fileID
		batch.Queue(
			`INSERT INTO scenes (id, file_id, scene_index, start_tc, end_tc, poster_key)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sc.ID, sc.FileID, sc.SceneIndex, sc.StartTC, sc.EndTC, sc.PosterKey)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert scenes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace scenes: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteScenesForFile(ctx context.Context, fileID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scenes WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("delete scenes for file: %w", err)
	}
	return nil
}

func (s *PostgresStore) ScenesForFile(ctx context.Context, fileID uuid.UUID) ([]models.Scene, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE file_id = $1 ORDER BY scene_index`, fileID)
	if err != nil {
		return nil, fmt.Errorf("list scenes for file: %w", err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		sc, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, *sc)
	}
	return scenes, nil
}

func (s *PostgresStore) GetScene(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	sc, err := scanScene(s.pool.QueryRow(ctx,
		`SELECT `+sceneColumns+` FROM scenes WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return sc, nil
}

// SceneDetail is a scene joined with its file.
type SceneDetail struct {
	Scene models.Scene
	File  models.File
}

func (s *PostgresStore) GetSceneDetail(ctx context.Context, id uuid.UUID) (*SceneDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+prefixedSceneColumns("s")+`, `+prefixedFileColumns("f")+`
		 FROM scenes s JOIN files f ON f.id = s.file_id
		 WHERE s.id = $1`, id)

	var d SceneDetail
	if err := scanSceneDetail(row, &d); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get scene detail: %w", err)
	}
	return &d, nil
}

// ListRecentScenes returns newest scenes with their files.
func (s *PostgresStore) ListRecentScenes(ctx context.Context, limit, offset int) ([]SceneDetail, error) {
	if limit <= 0 {
		limit = 40
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+prefixedSceneColumns("s")+`, `+prefixedFileColumns("f")+`
		 FROM scenes s JOIN files f ON f.id = s.file_id
		 WHERE f.deleted_at IS NULL
		 ORDER BY s.created_at DESC, s.scene_index
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list recent scenes: %w", err)
	}
	defer rows.Close()

	var details []SceneDetail
	for rows.Next() {
		var d SceneDetail
		if err := scanSceneDetail(rows, &d); err != nil {
			return nil, fmt.Errorf("scan scene detail: %w", err)
		}
		details = append(details, d)
	}
	return details, nil
}

func prefixedSceneColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.file_id, %[1]s.scene_index, %[1]s.start_tc, %[1]s.end_tc,
		%[1]s.poster_key, %[1]s.transcript, %[1]s.cluster_id, %[1]s.cluster_order, %[1]s.created_at`, alias)
}

func scanSceneDetail(row pgx.Row, d *SceneDetail) error {
	return row.Scan(
		&d.Scene.ID, &d.Scene.FileID, &d.Scene.SceneIndex, &d.Scene.StartTC, &d.Scene.EndTC,
		&d.Scene.PosterKey, &d.Scene.Transcript, &d.Scene.ClusterID, &d.Scene.ClusterOrder, &d.Scene.CreatedAt,
		&d.File.ID, &d.File.Path, &d.File.Filename, &d.File.ParentFolder, &d.File.FileSizeBytes,
		&d.File.FileCreatedAt, &d.File.FileModifiedAt, &d.File.DurationSeconds, &d.File.Width, &d.File.Height,
		&d.File.FPS, &d.File.Codec, &d.File.AudioTracks, &d.File.IndexedAt, &d.File.DeletedAt, &d.File.CreatedAt)
}

func (s *PostgresStore) UpdateSceneTranscript(ctx context.Context, sceneID uuid.UUID, transcript string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scenes SET transcript = $1 WHERE id = $2`, transcript, sceneID)
	if err != nil {
		return fmt.Errorf("update scene transcript: %w", err)
	}
	return nil
}

// --- Embeddings ---

func (s *PostgresStore) UpsertEmbedding(ctx context.Context, e *models.Embedding) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	vec := pgvector.NewVector(e.Vector)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO embeddings (id, scene_id, model_name, model_version, dimension, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (scene_id, model_name) DO UPDATE
		 SET model_version = EXCLUDED.model_version, dimension = EXCLUDED.dimension,
		     embedding = EXCLUDED.embedding, created_at = NOW()`,
		e.ID, e.SceneID, e.ModelName, e.ModelVersion, e.Dimension, vec)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// SceneVector pairs a scene with one stored embedding vector.
type SceneVector struct {
	SceneID uuid.UUID
	Vector  []float32
}

// SceneVectorsByModel returns every stored scene vector for one model,
// in stable id order so downstream clustering is deterministic.
func (s *PostgresStore) SceneVectorsByModel(ctx context.Context, modelName string) ([]SceneVector, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.scene_id, e.embedding FROM embeddings e
		 JOIN scenes sc ON sc.id = e.scene_id
		 JOIN files f ON f.id = sc.file_id
		 WHERE e.model_name = $1 AND f.deleted_at IS NULL
		 ORDER BY e.scene_id`, modelName)
	if err != nil {
		return nil, fmt.Errorf("list scene vectors: %w", err)
	}
	defer rows.Close()

	var out []SceneVector
	for rows.Next() {
		var sv SceneVector
		var vec pgvector.Vector
		if err := rows.Scan(&sv.SceneID, &vec); err != nil {
			return nil, fmt.Errorf("scan scene vector: %w", err)
		}
		sv.Vector = vec.Slice()
		out = append(out, sv)
	}
	return out, nil
}

// VisualVector returns a scene's visual embedding, nil when absent.
func (s *PostgresStore) VisualVector(ctx context.Context, sceneID uuid.UUID) ([]float32, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT embedding FROM embeddings WHERE scene_id = $1 AND model_name = $2`,
		sceneID, models.ModelVisual).Scan(&vec)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get visual vector: %w", err)
	}
	return vec.Slice(), nil
}

// SceneVectorsForScenes bulk-loads one model's vectors for a candidate
// set, keyed by scene. Scenes without a stored vector are absent.
func (s *PostgresStore) SceneVectorsForScenes(ctx context.Context, modelName string, sceneIDs []uuid.UUID) (map[uuid.UUID][]float32, error) {
	out := make(map[uuid.UUID][]float32, len(sceneIDs))
	if len(sceneIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT scene_id, embedding FROM embeddings
		 WHERE model_name = $1 AND scene_id = ANY($2)`,
		modelName, sceneIDs)
	if err != nil {
		return nil, fmt.Errorf("list %s scene vectors: %w", modelName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var vec pgvector.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan scene vector: %w", err)
		}
		out[id] = vec.Slice()
	}
	return out, nil
}

func (s *PostgresStore) UpdateSceneClusters(ctx context.Context, assignments []ClusterAssignment) error {
	return s.applyClusterAssignments(ctx, "scenes", assignments)
}

// SceneEmbeddingInfo lists model metadata (no vectors) for one scene.
func (s *PostgresStore) SceneEmbeddingInfo(ctx context.Context, sceneID uuid.UUID) ([]models.Embedding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scene_id, model_name, model_version, dimension, created_at
		 FROM embeddings WHERE scene_id = $1 ORDER BY model_name`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("list scene embedding info: %w", err)
	}
	defer rows.Close()

	var infos []models.Embedding
	for rows.Next() {
		var e models.Embedding
		if err := rows.Scan(&e.ID, &e.SceneID, &e.ModelName, &e.ModelVersion, &e.Dimension, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding info: %w", err)
		}
		infos = append(infos, e)
	}
	return infos, nil
}
