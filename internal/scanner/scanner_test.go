package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/storage"
)

type fakeScanStore struct {
	byPath map[string]*models.File
	refs   []storage.FileRef

	created   []*models.File
	reset     []uuid.UUID
	scenesDel []uuid.UUID
	jobs      []uuid.UUID
	missing   []uuid.UUID
}

func (f *fakeScanStore) FileByPath(_ context.Context, path string) (*models.File, error) {
	return f.byPath[path], nil
}

func (f *fakeScanStore) CreateFile(_ context.Context, file *models.File) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	f.created = append(f.created, file)
	return nil
}

func (f *fakeScanStore) ResetFileForReindex(_ context.Context, id uuid.UUID, _ int64, _, _ *time.Time) error {
	f.reset = append(f.reset, id)
	return nil
}

func (f *fakeScanStore) DeleteScenesForFile(_ context.Context, fileID uuid.UUID) error {
	f.scenesDel = append(f.scenesDel, fileID)
	return nil
}

func (f *fakeScanStore) ReplaceJob(_ context.Context, fileID uuid.UUID) (*models.Job, error) {
	f.jobs = append(f.jobs, fileID)
	return &models.Job{ID: uuid.New(), FileID: fileID, Status: models.JobStatusPending}, nil
}

func (f *fakeScanStore) ActiveFileRefs(context.Context) ([]storage.FileRef, error) {
	return f.refs, nil
}

func (f *fakeScanStore) MarkFileMissing(_ context.Context, id uuid.UUID) error {
	f.missing = append(f.missing, id)
	return nil
}

type fakeScanSettings struct {
	roots    []string
	progress []models.ScanProgress
}

func (f *fakeScanSettings) WatchFolders(context.Context) ([]string, error) { return f.roots, nil }

func (f *fakeScanSettings) SetScanProgress(_ context.Context, p models.ScanProgress) error {
	f.progress = append(f.progress, p)
	return nil
}

func (f *fakeScanSettings) SetLastScan(context.Context, time.Time, time.Duration) error {
	return nil
}

func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestRun_NewFilesEnqueued(t *testing.T) {
	root := t.TempDir()
	writeVideo(t, root, "a.mp4")
	writeVideo(t, root, "b.MKV")
	writeVideo(t, root, "notes.txt")

	store := &fakeScanStore{byPath: map[string]*models.File{}}
	settings := &fakeScanSettings{roots: []string{root}}
	s := New(store, settings, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, store.created, 2)
	assert.Len(t, store.jobs, 2)

	assert.Equal(t, "a.mp4", store.created[0].Filename)
	assert.Equal(t, root, store.created[0].ParentFolder)
	assert.Equal(t, int64(4), store.created[0].FileSizeBytes)
	require.NotNil(t, store.created[0].FileModifiedAt)
}

func TestRun_UnchangedFileNotRequeued(t *testing.T) {
	root := t.TempDir()
	path := writeVideo(t, root, "a.mp4")
	info, err := os.Stat(path)
	require.NoError(t, err)

	indexed := time.Now()
	mtime := info.ModTime()
	existing := &models.File{
		ID:             uuid.New(),
		Path:           path,
		FileSizeBytes:  info.Size(),
		FileModifiedAt: &mtime,
		IndexedAt:      &indexed,
	}
	store := &fakeScanStore{byPath: map[string]*models.File{path: existing}}
	s := New(store, &fakeScanSettings{roots: []string{root}}, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, store.jobs)
	assert.Empty(t, store.reset)
}

func TestRun_ChangedFileReindexed(t *testing.T) {
	root := t.TempDir()
	path := writeVideo(t, root, "a.mp4")
	info, err := os.Stat(path)
	require.NoError(t, err)

	indexed := time.Now()
	mtime := info.ModTime()
	existing := &models.File{
		ID:             uuid.New(),
		Path:           path,
		FileSizeBytes:  info.Size() + 100,
		FileModifiedAt: &mtime,
		IndexedAt:      &indexed,
	}
	store := &fakeScanStore{byPath: map[string]*models.File{path: existing}}
	s := New(store, &fakeScanSettings{roots: []string{root}}, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []uuid.UUID{existing.ID}, store.reset)
	assert.Equal(t, []uuid.UUID{existing.ID}, store.scenesDel)
	assert.Equal(t, []uuid.UUID{existing.ID}, store.jobs)
}

func TestRun_ResurrectionCountsAsNew(t *testing.T) {
	root := t.TempDir()
	path := writeVideo(t, root, "a.mp4")

	deleted := time.Now()
	existing := &models.File{ID: uuid.New(), Path: path, DeletedAt: &deleted}
	store := &fakeScanStore{byPath: map[string]*models.File{path: existing}}
	s := New(store, &fakeScanSettings{roots: []string{root}}, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.New)
	assert.Equal(t, []uuid.UUID{existing.ID}, store.reset)
	assert.Equal(t, []uuid.UUID{existing.ID}, store.jobs)
}

func TestRun_MissingSweptUnderAccessibleRootsOnly(t *testing.T) {
	root := t.TempDir()
	goneID := uuid.New()
	unmountedID := uuid.New()

	store := &fakeScanStore{
		byPath: map[string]*models.File{},
		refs: []storage.FileRef{
			{ID: goneID, Path: filepath.Join(root, "gone.mp4")},
			{ID: unmountedID, Path: "/unmounted-share/other.mp4"},
		},
	}
	s := New(store, &fakeScanSettings{roots: []string{root}}, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	// The row under the live root is swept; the one on the unmounted
	// share must survive the pass untouched.
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, []uuid.UUID{goneID}, store.missing)
}

func TestRun_InaccessibleRootSkipsEverything(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "never-mounted")
	store := &fakeScanStore{
		byPath: map[string]*models.File{},
		refs: []storage.FileRef{
			{ID: uuid.New(), Path: filepath.Join(missingRoot, "a.mp4")},
		},
	}
	s := New(store, &fakeScanSettings{roots: []string{missingRoot}}, nil)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Found)
	assert.Equal(t, 0, result.Missing)
	assert.Empty(t, store.missing)
}

func TestRun_ReportsPhases(t *testing.T) {
	settings := &fakeScanSettings{roots: []string{t.TempDir()}}
	s := New(&fakeScanStore{byPath: map[string]*models.File{}}, settings, nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, settings.progress)
	assert.Equal(t, models.ScanPhaseDiscovering, settings.progress[0].Phase)
	assert.Equal(t, models.ScanPhaseComplete, settings.progress[len(settings.progress)-1].Phase)
}

func TestFileChanged(t *testing.T) {
	now := time.Now()
	indexed := now.Add(-time.Hour)
	base := func() *models.File {
		m := now.Add(-time.Minute)
		return &models.File{FileSizeBytes: 100, FileModifiedAt: &m, IndexedAt: &indexed}
	}

	t.Run("never indexed never changed", func(t *testing.T) {
		f := base()
		f.IndexedAt = nil
		assert.False(t, fileChanged(f, now, 999))
	})

	t.Run("same size and mtime", func(t *testing.T) {
		f := base()
		assert.False(t, fileChanged(f, f.FileModifiedAt.Add(500*time.Millisecond), 100))
	})

	t.Run("mtime moved past tolerance", func(t *testing.T) {
		f := base()
		assert.True(t, fileChanged(f, f.FileModifiedAt.Add(2*time.Second), 100))
	})

	t.Run("size mismatch", func(t *testing.T) {
		f := base()
		assert.True(t, fileChanged(f, *f.FileModifiedAt, 101))
	})
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, IsVideoFile("/media/a.mp4"))
	assert.True(t, IsVideoFile("/media/B.MKV"))
	assert.True(t, IsVideoFile("/media/c.m2ts"))
	assert.False(t, IsVideoFile("/media/readme.txt"))
	assert.False(t, IsVideoFile("/media/noext"))
	assert.False(t, IsVideoFile("/media/archive.zip"))
}
