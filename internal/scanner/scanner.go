// Package scanner walks the watch folders and reconciles the files
// table with what is on disk: new and changed files are (re)enqueued
// for enrichment, vanished files are soft-deleted, reappearing ones
// resurrected. Probing media attributes is deferred to enrichment so a
// scan stays cheap even over slow network mounts.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/observability"
	"github.com/your-org/cinedex/internal/storage"
)

// Store is the persistence surface the scanner needs.
type Store interface {
	FileByPath(ctx context.Context, path string) (*models.File, error)
	CreateFile(ctx context.Context, f *models.File) error
	ResetFileForReindex(ctx context.Context, id uuid.UUID, sizeBytes int64, createdAt, modifiedAt *time.Time) error
	DeleteScenesForFile(ctx context.Context, fileID uuid.UUID) error
	ReplaceJob(ctx context.Context, fileID uuid.UUID) (*models.Job, error)
	ActiveFileRefs(ctx context.Context) ([]storage.FileRef, error)
	MarkFileMissing(ctx context.Context, id uuid.UUID) error
}

// Settings supplies the scan roots and receives progress documents.
type Settings interface {
	WatchFolders(ctx context.Context) ([]string, error)
	SetScanProgress(ctx context.Context, progress models.ScanProgress) error
	SetLastScan(ctx context.Context, at time.Time, duration time.Duration) error
}

// Events mirrors scan progress to the event bus. May be nil.
type Events interface {
	PublishScanProgress(ctx context.Context, progress models.ScanProgress)
}

type Scanner struct {
	store    Store
	settings Settings
	events   Events
}

func New(store Store, settings Settings, events Events) *Scanner {
	return &Scanner{store: store, settings: settings, events: events}
}

// Result summarizes one scan pass.
type Result struct {
	Found    int
	New      int
	Updated  int
	Skipped  int
	Missing  int
	Duration time.Duration
}

type classification int

const (
	classSkipped classification = iota
	classNew
	classUpdated
	classUnchanged
)

// Run performs one full scan: discover, classify, sweep missing.
// Per-entry filesystem errors are skipped; store errors abort.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	folders, err := s.settings.WatchFolders(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	progress := models.ScanProgress{Phase: models.ScanPhaseDiscovering}
	s.report(ctx, progress)

	var accessibleRoots []string
	var found []string
	dirsScanned := 0

	for _, root := range folders {
		if !folderAccessible(root) {
			slog.Warn("watch folder not accessible, skipping", "folder", root)
			continue
		}
		accessibleRoots = append(accessibleRoots, root)

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				slog.Warn("skipping unreadable entry", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				dirsScanned++
				progress.CurrentFolder = path
				progress.DirsScanned = dirsScanned
				if dirsScanned%100 == 0 {
					s.report(ctx, progress)
				}
				return nil
			}
			if IsVideoFile(path) {
				found = append(found, path)
				progress.FilesFound = len(found)
			}
			return nil
		})
		if walkErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("walk aborted", "folder", root, "error", walkErr)
		}
	}

	result.Found = len(found)
	progress.Phase = models.ScanPhaseProcessing
	progress.CurrentFolder = ""
	s.report(ctx, progress)

	for i, path := range found {
		class, err := s.processFile(ctx, path)
		if err != nil {
			return nil, err
		}
		switch class {
		case classNew:
			result.New++
			observability.FilesScanned.WithLabelValues("new").Inc()
		case classUpdated:
			result.Updated++
			observability.FilesScanned.WithLabelValues("updated").Inc()
		case classUnchanged:
			observability.FilesScanned.WithLabelValues("unchanged").Inc()
		case classSkipped:
			result.Skipped++
			observability.FilesScanned.WithLabelValues("skipped").Inc()
		}
		progress.FilesProcessed = i + 1
		progress.FilesNew = result.New
		progress.FilesUpdated = result.Updated
		progress.FilesSkipped = result.Skipped
		if (i+1)%10 == 0 {
			s.report(ctx, progress)
		}
	}

	progress.Phase = models.ScanPhaseCheckingMissing
	s.report(ctx, progress)

	missing, err := s.sweepMissing(ctx, found, accessibleRoots)
	if err != nil {
		return nil, err
	}
	result.Missing = missing

	progress.Phase = models.ScanPhaseComplete
	s.report(ctx, progress)

	result.Duration = time.Since(start)
	if err := s.settings.SetLastScan(ctx, start, result.Duration); err != nil {
		slog.Warn("record last scan", "error", err)
	}
	observability.ScansCompleted.Inc()
	observability.ScanDuration.Observe(result.Duration.Seconds())

	slog.Info("scan complete",
		"found", result.Found, "new", result.New, "updated", result.Updated,
		"skipped", result.Skipped, "missing", result.Missing,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// processFile classifies one discovered path and applies its side
// effects. Stat failures are counted, never fatal.
func (s *Scanner) processFile(ctx context.Context, path string) (classification, error) {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("stat failed, skipping file", "path", path, "error", err)
		return classSkipped, nil
	}
	size := info.Size()
	mtime := info.ModTime()
	created := fileCreatedAt(info)

	f, err := s.store.FileByPath(ctx, path)
	if err != nil {
		return classSkipped, err
	}

	if f == nil {
		nf := &models.File{
			Path:           path,
			Filename:       filepath.Base(path),
			ParentFolder:   filepath.Dir(path),
			FileSizeBytes:  size,
			FileCreatedAt:  created,
			FileModifiedAt: &mtime,
		}
		if err := s.store.CreateFile(ctx, nf); err != nil {
			return classSkipped, err
		}
		if _, err := s.store.ReplaceJob(ctx, nf.ID); err != nil {
			return classSkipped, err
		}
		return classNew, nil
	}

	if f.DeletedAt != nil {
		// Resurrection: same identity, treated as new for re-enrichment.
		if err := s.reindex(ctx, f.ID, size, created, &mtime); err != nil {
			return classSkipped, err
		}
		return classNew, nil
	}

	if fileChanged(f, mtime, size) {
		if err := s.reindex(ctx, f.ID, size, created, &mtime); err != nil {
			return classSkipped, err
		}
		return classUpdated, nil
	}

	return classUnchanged, nil
}

func (s *Scanner) reindex(ctx context.Context, id uuid.UUID, size int64, created, modified *time.Time) error {
	if err := s.store.ResetFileForReindex(ctx, id, size, created, modified); err != nil {
		return err
	}
	if err := s.store.DeleteScenesForFile(ctx, id); err != nil {
		return err
	}
	_, err := s.store.ReplaceJob(ctx, id)
	return err
}

// fileChanged detects modification of an already indexed file: size
// mismatch, or mtime newer than stored beyond a 1 second tolerance
// (coarse filesystem timestamps round-trip badly over network mounts).
func fileChanged(f *models.File, mtime time.Time, size int64) bool {
	if f.IndexedAt == nil {
		return false
	}
	if f.FileModifiedAt != nil && mtime.Sub(*f.FileModifiedAt) > time.Second {
		return true
	}
	return f.FileSizeBytes != size
}

// sweepMissing soft-deletes rows whose path is gone from disk, but only
// under roots that are currently accessible: an unmounted share must
// not mass-delete its archive.
func (s *Scanner) sweepMissing(ctx context.Context, found []string, accessibleRoots []string) (int, error) {
	refs, err := s.store.ActiveFileRefs(ctx)
	if err != nil {
		return 0, err
	}

	onDisk := make(map[string]struct{}, len(found))
	for _, path := range found {
		onDisk[path] = struct{}{}
	}

	missing := 0
	for _, ref := range refs {
		if _, ok := onDisk[ref.Path]; ok {
			continue
		}
		if !underAny(ref.Path, accessibleRoots) {
			continue
		}
		if _, err := os.Stat(ref.Path); err == nil {
			// Still on disk, merely filtered out of this walk.
			continue
		}
		if err := s.store.MarkFileMissing(ctx, ref.ID); err != nil {
			return missing, err
		}
		missing++
		slog.Info("file missing, soft-deleted", "path", ref.Path)
	}
	return missing, nil
}

func (s *Scanner) report(ctx context.Context, progress models.ScanProgress) {
	if err := s.settings.SetScanProgress(ctx, progress); err != nil {
		slog.Warn("persist scan progress", "error", err)
	}
	if s.events != nil {
		s.events.PublishScanProgress(ctx, progress)
	}
}

func folderAccessible(root string) bool {
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		root = filepath.Clean(root)
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
