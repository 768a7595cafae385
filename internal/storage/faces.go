package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/cinedex/internal/models"
)

// DeleteFacesForFile clears all detections for a file before the face
// stage re-detects, so re-enrichment never duplicates rows.
func (s *PostgresStore) DeleteFacesForFile(ctx context.Context, fileID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM faces WHERE scene_id IN (SELECT id FROM scenes WHERE file_id = $1)`, fileID)
	if err != nil {
		return fmt.Errorf("delete faces for file: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertFaces(ctx context.Context, faces []models.Face) error {
	if len(faces) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range faces {
		f := &faces[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		batch.Queue(
			`INSERT INTO faces (id, scene_id, embedding, bbox_x, bbox_y, bbox_w, bbox_h)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.SceneID, pgvector.NewVector(f.Embedding), f.BboxX, f.BboxY, f.BboxW, f.BboxH)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert faces: %w", err)
	}
	return nil
}

type FaceVector struct {
	FaceID uuid.UUID
	Vector []float32
}

// FaceVectorsAll returns every face identity vector archive-wide, in
// stable id order for deterministic clustering.
func (s *PostgresStore) FaceVectorsAll(ctx context.Context) ([]FaceVector, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fa.id, fa.embedding FROM faces fa
		 JOIN scenes sc ON sc.id = fa.scene_id
		 JOIN files f ON f.id = sc.file_id
		 WHERE f.deleted_at IS NULL
		 ORDER BY fa.id`)
	if err != nil {
		return nil, fmt.Errorf("list face vectors: %w", err)
	}
	defer rows.Close()

	var out []FaceVector
	for rows.Next() {
		var fv FaceVector
		var vec pgvector.Vector
		if err := rows.Scan(&fv.FaceID, &vec); err != nil {
			return nil, fmt.Errorf("scan face vector: %w", err)
		}
		fv.Vector = vec.Slice()
		out = append(out, fv)
	}
	return out, nil
}

// FaceVectorByID returns one face's identity vector, nil when absent.
func (s *PostgresStore) FaceVectorByID(ctx context.Context, faceID uuid.UUID) ([]float32, error) {
	var vec pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT embedding FROM faces WHERE id = $1`, faceID).Scan(&vec)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get face vector: %w", err)
	}
	return vec.Slice(), nil
}

// FacesForScenes returns face rows (without vectors) keyed by scene,
// for attaching to API responses.
func (s *PostgresStore) FacesForScenes(ctx context.Context, sceneIDs []uuid.UUID) (map[uuid.UUID][]models.Face, error) {
	out := make(map[uuid.UUID][]models.Face, len(sceneIDs))
	if len(sceneIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, scene_id, bbox_x, bbox_y, bbox_w, bbox_h, cluster_id, cluster_order, created_at
		 FROM faces WHERE scene_id = ANY($1) ORDER BY scene_id, id`, sceneIDs)
	if err != nil {
		return nil, fmt.Errorf("list faces for scenes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.Face
		if err := rows.Scan(&f.ID, &f.SceneID, &f.BboxX, &f.BboxY, &f.BboxW, &f.BboxH,
			&f.ClusterID, &f.ClusterOrder, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		out[f.SceneID] = append(out[f.SceneID], f)
	}
	return out, nil
}

// FaceVectorsForScenes returns identity vectors keyed by scene, for the
// face-identity search step.
func (s *PostgresStore) FaceVectorsForScenes(ctx context.Context, sceneIDs []uuid.UUID) (map[uuid.UUID][][]float32, error) {
	out := make(map[uuid.UUID][][]float32, len(sceneIDs))
	if len(sceneIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT scene_id, embedding FROM faces WHERE scene_id = ANY($1)`, sceneIDs)
	if err != nil {
		return nil, fmt.Errorf("list face vectors for scenes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var vec pgvector.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan scene face vector: %w", err)
		}
		out[id] = append(out[id], vec.Slice())
	}
	return out, nil
}

type FaceClusterSummary struct {
	ClusterID int       `json:"cluster_id"`
	Size      int       `json:"size"`
	FaceID    uuid.UUID `json:"face_id"`
	SceneID   uuid.UUID `json:"scene_id"`
}

// ListFaceClusters summarizes identity clusters: size plus the most
// representative face (lowest cluster_order) per cluster. Noise is
// excluded.
func (s *PostgresStore) ListFaceClusters(ctx context.Context) ([]FaceClusterSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (cluster_id)
			cluster_id, COUNT(*) OVER (PARTITION BY cluster_id) AS size, id, scene_id
		 FROM faces
		 WHERE cluster_id IS NOT NULL AND cluster_id >= 0
		 ORDER BY cluster_id, cluster_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list face clusters: %w", err)
	}
	defer rows.Close()

	var out []FaceClusterSummary
	for rows.Next() {
		var c FaceClusterSummary
		if err := rows.Scan(&c.ClusterID, &c.Size, &c.FaceID, &c.SceneID); err != nil {
			return nil, fmt.Errorf("scan face cluster: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// FaceDetail is a face joined with its scene and file context.
type FaceDetail struct {
	Face  models.Face
	Scene models.Scene
	File  models.File
}

func (s *PostgresStore) GetFaceDetail(ctx context.Context, id uuid.UUID) (*FaceDetail, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT fa.id, fa.scene_id, fa.bbox_x, fa.bbox_y, fa.bbox_w, fa.bbox_h,
			fa.cluster_id, fa.cluster_order, fa.created_at,
			`+prefixedSceneColumns("sc")+`, `+prefixedFileColumns("f")+`
		 FROM faces fa
		 JOIN scenes sc ON sc.id = fa.scene_id
		 JOIN files f ON f.id = sc.file_id
		 WHERE fa.id = $1`, id)

	var d FaceDetail
	err := row.Scan(&d.Face.ID, &d.Face.SceneID, &d.Face.BboxX, &d.Face.BboxY, &d.Face.BboxW, &d.Face.BboxH,
		&d.Face.ClusterID, &d.Face.ClusterOrder, &d.Face.CreatedAt,
		&d.Scene.ID, &d.Scene.FileID, &d.Scene.SceneIndex, &d.Scene.StartTC, &d.Scene.EndTC,
		&d.Scene.PosterKey, &d.Scene.Transcript, &d.Scene.ClusterID, &d.Scene.ClusterOrder, &d.Scene.CreatedAt,
		&d.File.ID, &d.File.Path, &d.File.Filename, &d.File.ParentFolder, &d.File.FileSizeBytes,
		&d.File.FileCreatedAt, &d.File.FileModifiedAt, &d.File.DurationSeconds, &d.File.Width, &d.File.Height,
		&d.File.FPS, &d.File.Codec, &d.File.AudioTracks, &d.File.IndexedAt, &d.File.DeletedAt, &d.File.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get face detail: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) UpdateFaceClusters(ctx context.Context, assignments []ClusterAssignment) error {
	return s.applyClusterAssignments(ctx, "faces", assignments)
}
