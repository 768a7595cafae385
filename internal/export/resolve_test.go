package export

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/storage"
)

type fakeSceneStore struct {
	details map[uuid.UUID]*storage.SceneDetail
	err     error
}

func (f *fakeSceneStore) GetSceneDetail(_ context.Context, id uuid.UUID) (*storage.SceneDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details[id], nil
}

func TestResolveScenes(t *testing.T) {
	fps := 25.0
	known := uuid.New()
	missing := uuid.New()
	store := &fakeSceneStore{details: map[uuid.UUID]*storage.SceneDetail{
		known: {
			Scene: models.Scene{ID: known, StartTC: 3, EndTC: 8},
			File:  models.File{Filename: "clip.mp4", Path: "/media/clip.mp4", FPS: &fps},
		},
	}}

	clips, unresolved, err := ResolveScenes(context.Background(), store, []uuid.UUID{known, missing})
	require.NoError(t, err)

	require.Len(t, clips, 1)
	assert.Equal(t, Clip{Name: "clip.mp4", Path: "/media/clip.mp4", Start: 3, End: 8, FPS: 25}, clips[0])

	require.Len(t, unresolved, 1)
	assert.Equal(t, missing, unresolved[0])
}

func TestResolveScenes_MissingFPSDefaultsToZero(t *testing.T) {
	id := uuid.New()
	store := &fakeSceneStore{details: map[uuid.UUID]*storage.SceneDetail{
		id: {
			Scene: models.Scene{ID: id, StartTC: 0, EndTC: 1},
			File:  models.File{Filename: "old.avi", Path: "/media/old.avi"},
		},
	}}

	clips, _, err := ResolveScenes(context.Background(), store, []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Equal(t, 0.0, clips[0].FPS)
}

func TestResolveScenes_StoreError(t *testing.T) {
	store := &fakeSceneStore{err: errors.New("db down")}
	_, _, err := ResolveScenes(context.Background(), store, []uuid.UUID{uuid.New()})
	require.Error(t, err)
}
