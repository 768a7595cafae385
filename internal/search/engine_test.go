package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/cinedex/internal/embed"
	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/settings"
	"github.com/your-org/cinedex/internal/storage"
)

type fakeSearchStore struct {
	candidates    []storage.SceneDetail
	candidatesErr error

	visualVectors     map[uuid.UUID][]float32
	transcriptVectors map[uuid.UUID][]float32
	refVisual         map[uuid.UUID][]float32
	refFaces          map[uuid.UUID][]float32
	sceneFaces        map[uuid.UUID][][]float32
}

func (f *fakeSearchStore) SearchCandidates(context.Context, storage.CandidateFilter) ([]storage.SceneDetail, error) {
	return f.candidates, f.candidatesErr
}

func (f *fakeSearchStore) SceneVectorsForScenes(_ context.Context, modelName string, _ []uuid.UUID) (map[uuid.UUID][]float32, error) {
	if modelName == models.ModelTranscript {
		return f.transcriptVectors, nil
	}
	return f.visualVectors, nil
}

func (f *fakeSearchStore) VisualVector(_ context.Context, sceneID uuid.UUID) ([]float32, error) {
	return f.refVisual[sceneID], nil
}

func (f *fakeSearchStore) FaceVectorByID(_ context.Context, faceID uuid.UUID) ([]float32, error) {
	return f.refFaces[faceID], nil
}

func (f *fakeSearchStore) FaceVectorsForScenes(context.Context, []uuid.UUID) (map[uuid.UUID][][]float32, error) {
	return f.sceneFaces, nil
}

type fakeEmbedder struct {
	textVec       []float32
	textErr       error
	transcriptVec []float32
	transcriptErr error
}

func (f *fakeEmbedder) EmbedText(context.Context, string) (*embed.Result, error) {
	if f.textErr != nil {
		return nil, f.textErr
	}
	return &embed.Result{Vector: f.textVec, Model: "clip", Dimension: len(f.textVec)}, nil
}

func (f *fakeEmbedder) EmbedTranscript(context.Context, string) (*embed.Result, error) {
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}
	return &embed.Result{Vector: f.transcriptVec, Model: "sentence-transformer", Dimension: len(f.transcriptVec)}, nil
}

type fakeThresholds struct{}

func (fakeThresholds) SearchThresholds(context.Context) (settings.Thresholds, error) {
	return settings.DefaultThresholds(), nil
}

func candidate(id uuid.UUID, filename string) storage.SceneDetail {
	return storage.SceneDetail{
		Scene: models.Scene{ID: id},
		File:  models.File{Filename: filename},
	}
}

func newTestEngine(t *testing.T, store Store, embedder Embedder) *Engine {
	t.Helper()
	e, err := NewEngine(store, embedder, fakeThresholds{})
	require.NoError(t, err)
	return e
}

func ptr(v float64) *float64 { return &v }

func TestSearch_SQLOnlyKeepsStoreOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{candidates: []storage.SceneDetail{
		candidate(a, "a.mp4"),
		candidate(b, "b.mp4"),
	}}
	e := newTestEngine(t, store, &fakeEmbedder{})

	hits, err := e.Search(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, a, hits[0].Scene.ID)
	assert.Equal(t, b, hits[1].Scene.ID)
	assert.Nil(t, hits[0].Similarity)
}

func TestSearch_VisualRanksAndFilters(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{
			candidate(a, "a.mp4"),
			candidate(b, "b.mp4"),
			candidate(c, "c.mp4"),
		},
		visualVectors: map[uuid.UUID][]float32{
			a: {0.8, 0.6},
			b: {1, 0},
			c: {0.05, 0.99},
		},
	}
	e := newTestEngine(t, store, &fakeEmbedder{textVec: []float32{1, 0}})

	hits, err := e.Search(context.Background(), Query{Visual: "red car"})
	require.NoError(t, err)

	// c scores 0.05, below the 0.10 default, and drops out.
	require.Len(t, hits, 2)
	assert.Equal(t, b, hits[0].Scene.ID)
	assert.Equal(t, a, hits[1].Scene.ID)
	require.NotNil(t, hits[0].Similarity)
	assert.InDelta(t, 1.0, *hits[0].Similarity, 1e-6)
	assert.InDelta(t, 0.8, *hits[1].Similarity, 1e-6)
}

func TestSearch_VisualThresholdOverride(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		visualVectors: map[uuid.UUID][]float32{
			a: {1, 0},
			b: {0.8, 0.6},
		},
	}
	e := newTestEngine(t, store, &fakeEmbedder{textVec: []float32{1, 0}})

	hits, err := e.Search(context.Background(), Query{Visual: "q", VisualThreshold: ptr(0.9)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a, hits[0].Scene.ID)
}

func TestSearch_SceneWithoutVectorDropsInVisualStage(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates:    []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		visualVectors: map[uuid.UUID][]float32{a: {1, 0}},
	}
	e := newTestEngine(t, store, &fakeEmbedder{textVec: []float32{1, 0}})

	hits, err := e.Search(context.Background(), Query{Visual: "q"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a, hits[0].Scene.ID)
}

func TestSearch_FaceFiltersWithoutResorting(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	refFace := uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{
			candidate(a, "a.mp4"),
			candidate(b, "b.mp4"),
			candidate(c, "c.mp4"),
		},
		visualVectors: map[uuid.UUID][]float32{
			a: {1, 0},
			b: {0.8, 0.6},
			c: {0.5, 0.866},
		},
		refFaces: map[uuid.UUID][]float32{refFace: {1, 0}},
		sceneFaces: map[uuid.UUID][][]float32{
			a: {{0.31, 0.9}},
			b: {{0.18, 0.8}},
			c: {{0.9, 0.1}, {0.05, 0.2}},
		},
	}
	e := newTestEngine(t, store, &fakeEmbedder{textVec: []float32{1, 0}})

	hits, err := e.Search(context.Background(), Query{Visual: "q", Face: &refFace})
	require.NoError(t, err)

	// b's best face is 0.18, below the 0.25 default. c's face score
	// beats a's, but the visual order stands: the face stage filters
	// and annotates, it never re-ranks.
	require.Len(t, hits, 2)
	assert.Equal(t, a, hits[0].Scene.ID)
	assert.Equal(t, c, hits[1].Scene.ID)
	require.NotNil(t, hits[0].FaceSimilarity)
	assert.InDelta(t, 0.31, *hits[0].FaceSimilarity, 1e-6)
	assert.InDelta(t, 0.9, *hits[1].FaceSimilarity, 1e-6)
	require.NotNil(t, hits[0].Similarity)
	assert.InDelta(t, 1.0, *hits[0].Similarity, 1e-6)
}

func TestSearch_FaceDropsScenesWithoutFaces(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	refFace := uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		refFaces:   map[uuid.UUID][]float32{refFace: {1, 0}},
		sceneFaces: map[uuid.UUID][][]float32{a: {{0.5, 0.5}}},
	}
	e := newTestEngine(t, store, &fakeEmbedder{})

	hits, err := e.Search(context.Background(), Query{Face: &refFace})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a, hits[0].Scene.ID)
}

func TestSearch_TranscriptStageSortsLast(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		visualVectors: map[uuid.UUID][]float32{
			a: {0.9, 0.435},
			b: {0.8, 0.6},
		},
		transcriptVectors: map[uuid.UUID][]float32{
			a: {0.5, 0.866},
			b: {0.9, 0.435},
		},
	}
	e := newTestEngine(t, store, &fakeEmbedder{
		textVec:       []float32{1, 0},
		transcriptVec: []float32{1, 0},
	})

	hits, err := e.Search(context.Background(), Query{Visual: "q", TranscriptSemantic: "dialog"})
	require.NoError(t, err)

	// Visual ranked a first; the transcript stage re-ranks and b wins.
	require.Len(t, hits, 2)
	assert.Equal(t, b, hits[0].Scene.ID)
	assert.Equal(t, a, hits[1].Scene.ID)
	require.NotNil(t, hits[0].TranscriptSimilarity)
	assert.InDelta(t, 0.9, *hits[0].TranscriptSimilarity, 1e-6)
	require.NotNil(t, hits[0].Similarity)
	assert.InDelta(t, 0.8, *hits[0].Similarity, 1e-6)
}

func TestSearch_VisualDegradesWhenEmbedderUnavailable(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
	}
	e := newTestEngine(t, store, &fakeEmbedder{
		textErr: fmt.Errorf("embed text: %w", embed.ErrUnavailable),
	})

	hits, err := e.Search(context.Background(), Query{Visual: "q"})
	require.NoError(t, err)

	// The stage becomes a pass-through: full candidate set, unscored.
	require.Len(t, hits, 2)
	assert.Nil(t, hits[0].Similarity)
}

func TestSearch_VisualMatchWorksWithoutEmbedder(t *testing.T) {
	a, b, ref := uuid.New(), uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		visualVectors: map[uuid.UUID][]float32{
			a: {0.5, 0.866},
			b: {1, 0},
		},
		refVisual: map[uuid.UUID][]float32{ref: {1, 0}},
	}
	e := newTestEngine(t, store, &fakeEmbedder{
		textErr: fmt.Errorf("embed text: %w", embed.ErrUnavailable),
	})

	hits, err := e.Search(context.Background(), Query{VisualMatchScene: &ref})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, b, hits[0].Scene.ID)
	require.NotNil(t, hits[0].Similarity)
	assert.InDelta(t, 1.0, *hits[0].Similarity, 1e-6)
}

func TestSearch_VisualMatchRefMissing(t *testing.T) {
	ref := uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(uuid.New(), "a.mp4")},
	}
	e := newTestEngine(t, store, &fakeEmbedder{})

	_, err := e.Search(context.Background(), Query{VisualMatchScene: &ref})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRefNotFound))
}

func TestSearch_FaceRefMissing(t *testing.T) {
	ref := uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(uuid.New(), "a.mp4")},
	}
	e := newTestEngine(t, store, &fakeEmbedder{})

	_, err := e.Search(context.Background(), Query{Face: &ref})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRefNotFound))
}

func TestSearch_CandidateErrorPropagates(t *testing.T) {
	store := &fakeSearchStore{candidatesErr: errors.New("db down")}
	e := newTestEngine(t, store, &fakeEmbedder{})

	_, err := e.Search(context.Background(), Query{})
	require.Error(t, err)
}

func TestSearch_LimitCap(t *testing.T) {
	var cands []storage.SceneDetail
	for i := 0; i < 520; i++ {
		cands = append(cands, candidate(uuid.New(), fmt.Sprintf("f%03d.mp4", i)))
	}
	store := &fakeSearchStore{candidates: cands}
	e := newTestEngine(t, store, &fakeEmbedder{})

	hits, err := e.Search(context.Background(), Query{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, hits, 500)

	hits, err = e.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, hits, 200)

	hits, err = e.Search(context.Background(), Query{Limit: 7})
	require.NoError(t, err)
	assert.Len(t, hits, 7)
}

func TestSearch_TruncationHappensAfterRanking(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeSearchStore{
		candidates: []storage.SceneDetail{candidate(a, "a.mp4"), candidate(b, "b.mp4")},
		visualVectors: map[uuid.UUID][]float32{
			a: {0.5, 0.866},
			b: {1, 0},
		},
	}
	e := newTestEngine(t, store, &fakeEmbedder{textVec: []float32{1, 0}})

	hits, err := e.Search(context.Background(), Query{Visual: "q", Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, b, hits[0].Scene.ID)
}
