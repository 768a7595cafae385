// Package search runs the cascading scene search: a SQL candidate pass
// over metadata, then visual, visual-match, face-identity and
// transcript-semantic similarity stages, each narrowing the previous
// stage's survivors. Sorting follows the last stage that ranks;
// face identity only filters.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"

	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

// ErrRefNotFound marks a visual-match or face reference that does not
// exist or has no stored vector.
var ErrRefNotFound = errors.New("reference not found")

// Store is the persistence surface the engine reads.
type Store interface {
	SearchCandidates(ctx context.Context, f storage.CandidateFilter) ([]storage.SceneDetail, error)
	SceneVectorsForScenes(ctx context.Context, modelName string, sceneIDs []uuid.UUID) (map[uuid.UUID][]float32, error)
	VisualVector(ctx context.Context, sceneID uuid.UUID) ([]float32, error)
	FaceVectorByID(ctx context.Context, faceID uuid.UUID) ([]float32, error)
	FaceVectorsForScenes(ctx context.Context, sceneIDs []uuid.UUID) (map[uuid.UUID][][]float32, error)
}

// Embedder turns query text into vectors. Both methods may fail with
// embed.ErrUnavailable, which downgrades their stage to a pass-through.
type Embedder interface {
	EmbedText(ctx context.Context, text string) (*embed.Result, error)
	EmbedTranscript(ctx context.Context, text string) (*embed.Result, error)
}

// SettingsSource supplies the per-modality threshold defaults.
type SettingsSource interface {
	SearchThresholds(ctx context.Context) (settings.Thresholds, error)
}

// Query is one search request. Filter runs in SQL; the similarity
// stages run here. Nil thresholds fall back to settings.
type Query struct {
	Filter storage.CandidateFilter

	Visual          string
	VisualThreshold *float64

	VisualMatchScene     *uuid.UUID
	VisualMatchThreshold *float64

	Face          *uuid.UUID
	FaceThreshold *float64

	TranscriptSemantic  string
	TranscriptThreshold *float64

	Limit int
}

// Hit is one surviving scene with the scores the stages attached.
// Similarity carries the last ranking score (visual or visual match);
// face and transcript scores ride separately.
type Hit struct {
	storage.SceneDetail
	Similarity           *float64
	FaceSimilarity       *float64
	TranscriptSimilarity *float64
}

type Engine struct {
	store    Store
	embedder Embedder
	settings SettingsSource
	cache    *ristretto.Cache
}

const (
	defaultLimit  = 200
	maxLimit      = 500
	queryCacheTTL = 10 * time.Minute
)

func NewEngine(store Store, embedder Embedder, settingsSource SettingsSource) (*Engine, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     32 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Engine{store: store, embedder: embedder, settings: settingsSource, cache: cache}, nil
}

// Search executes the cascade and returns at most the requested limit
// (default 200, cap 500), truncated after all stages ran.
func (e *Engine) Search(ctx context.Context, q Query) ([]Hit, error) {
	start := time.Now()
	defer func() {
		observability.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	thresholds, err := e.settings.SearchThresholds(ctx)
	if err != nil {
		slog.Warn("load search thresholds, using defaults", "error", err)
		thresholds = settings.DefaultThresholds()
	}

	candidates, err := e.store.SearchCandidates(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, Hit{SceneDetail: c})
	}

	if q.Visual != "" {
		hits, err = e.visualStage(ctx, hits, q.Visual, pick(q.VisualThreshold, thresholds.Visual))
		if err != nil {
			return nil, err
		}
	}
	if q.VisualMatchScene != nil {
		hits, err = e.visualMatchStage(ctx, hits, *q.VisualMatchScene, pick(q.VisualMatchThreshold, thresholds.VisualMatch))
		if err != nil {
			return nil, err
		}
	}
	if q.Face != nil {
		hits, err = e.faceStage(ctx, hits, *q.Face, pick(q.FaceThreshold, thresholds.Face))
		if err != nil {
			return nil, err
		}
	}
	if q.TranscriptSemantic != "" {
		hits, err = e.transcriptStage(ctx, hits, q.TranscriptSemantic, pick(q.TranscriptThreshold, thresholds.Transcript))
		if err != nil {
			return nil, err
		}
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// visualStage scores candidates against the embedded query text and
// re-sorts. An unreachable embedder leaves the set untouched.
func (e *Engine) visualStage(ctx context.Context, hits []Hit, query string, threshold float64) ([]Hit, error) {
	queryVec, err := e.queryVector(ctx, "visual:"+query, func() (*embed.Result, error) {
		return e.embedder.EmbedText(ctx, query)
	})
	if err != nil {
		if errors.Is(err, embed.ErrUnavailable) {
			slog.Warn("visual search degraded, embedder unreachable", "error", err)
			return hits, nil
		}
		return nil, err
	}

	vectors, err := e.store.SceneVectorsForScenes(ctx, models.ModelVisual, sceneIDs(hits))
	if err != nil {
		return nil, err
	}

	var kept []Hit
	for _, h := range hits {
		vec, ok := vectors[h.Scene.ID]
		if !ok {
			continue
		}
		score := float64(vek32.Dot(queryVec, vec))
		if score < threshold {
			continue
		}
		h.Similarity = &score
		kept = append(kept, h)
	}
	sortBySimilarity(kept)
	return kept, nil
}

// visualMatchStage scores candidates against a reference scene's stored
// vector and re-sorts. Works without the embedder.
func (e *Engine) visualMatchStage(ctx context.Context, hits []Hit, refScene uuid.UUID, threshold float64) ([]Hit, error) {
	refVec, err := e.store.VisualVector(ctx, refScene)
	if err != nil {
		return nil, err
	}
	if refVec == nil {
		return nil, fmt.Errorf("%w: scene %s has no visual embedding", ErrRefNotFound, refScene)
	}

	vectors, err := e.store.SceneVectorsForScenes(ctx, models.ModelVisual, sceneIDs(hits))
	if err != nil {
		return nil, err
	}

	var kept []Hit
	for _, h := range hits {
		vec, ok := vectors[h.Scene.ID]
		if !ok {
			continue
		}
		score := float64(vek32.Dot(refVec, vec))
		if score < threshold {
			continue
		}
		h.Similarity = &score
		kept = append(kept, h)
	}
	sortBySimilarity(kept)
	return kept, nil
}

// faceStage keeps scenes where any face matches the reference identity
// at or above threshold. It annotates face_similarity but never
// re-sorts: the preceding stage's order survives.
func (e *Engine) faceStage(ctx context.Context, hits []Hit, refFace uuid.UUID, threshold float64) ([]Hit, error) {
	refVec, err := e.store.FaceVectorByID(ctx, refFace)
	if err != nil {
		return nil, err
	}
	if refVec == nil {
		return nil, fmt.Errorf("%w: face %s", ErrRefNotFound, refFace)
	}

	faceVectors, err := e.store.FaceVectorsForScenes(ctx, sceneIDs(hits))
	if err != nil {
		return nil, err
	}

	var kept []Hit
	for _, h := range hits {
		vecs := faceVectors[h.Scene.ID]
		if len(vecs) == 0 {
			continue
		}
		best := -1.0
		for _, vec := range vecs {
			if score := float64(vek32.Dot(refVec, vec)); score > best {
				best = score
			}
		}
		if best < threshold {
			continue
		}
		h.FaceSimilarity = &best
		kept = append(kept, h)
	}
	return kept, nil
}

// transcriptStage scores candidates against the embedded semantic
// query over their transcript vectors and re-sorts. An unreachable
// embedder leaves the set untouched.
func (e *Engine) transcriptStage(ctx context.Context, hits []Hit, query string, threshold float64) ([]Hit, error) {
	queryVec, err := e.queryVector(ctx, "transcript:"+query, func() (*embed.Result, error) {
		return e.embedder.EmbedTranscript(ctx, query)
	})
	if err != nil {
		if errors.Is(err, embed.ErrUnavailable) {
			slog.Warn("transcript search degraded, embedder unreachable", "error", err)
			return hits, nil
		}
		return nil, err
	}

	vectors, err := e.store.SceneVectorsForScenes(ctx, models.ModelTranscript, sceneIDs(hits))
	if err != nil {
		return nil, err
	}

	var kept []Hit
	for _, h := range hits {
		vec, ok := vectors[h.Scene.ID]
		if !ok {
			continue
		}
		score := float64(vek32.Dot(queryVec, vec))
		if score < threshold {
			continue
		}
		h.TranscriptSimilarity = &score
		kept = append(kept, h)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return *kept[i].TranscriptSimilarity > *kept[j].TranscriptSimilarity
	})
	return kept, nil
}

// queryVector embeds query text through a short-lived cache so paging
// through results does not re-embed the same string.
func (e *Engine) queryVector(ctx context.Context, key string, embedFn func() (*embed.Result, error)) ([]float32, error) {
	if cached, ok := e.cache.Get(key); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}
	result, err := embedFn()
	if err != nil {
		return nil, err
	}
	e.cache.SetWithTTL(key, result.Vector, int64(len(result.Vector)*4), queryCacheTTL)
	return result.Vector, nil
}

func sortBySimilarity(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return *hits[i].Similarity > *hits[j].Similarity
	})
}

func sceneIDs(hits []Hit) []uuid.UUID {
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.Scene.ID
	}
	return ids
}

func pick(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}
