package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/your-org/cinedex/internal/config"
)

// PosterStore holds scene poster images. Keys encode file identity and
// scene ordinal ({fileID}_{index:04d}.{ext}); the store is flat.
type PosterStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewPosterStore builds the configured backend, ready to accept writes.
func NewPosterStore(ctx context.Context, cfg config.Config) (PosterStore, error) {
	switch cfg.Posters.Backend {
	case "minio":
		store, err := NewMinIOPosterStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "local", "":
		return NewLocalPosterStore(cfg.Posters.Dir)
	default:
		return nil, fmt.Errorf("unknown poster backend %q", cfg.Posters.Backend)
	}
}

// LocalPosterStore writes posters into a flat directory on disk.
type LocalPosterStore struct {
	dir string
}

func NewLocalPosterStore(dir string) (*LocalPosterStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster dir: %w", err)
	}
	return &LocalPosterStore{dir: dir}, nil
}

func (s *LocalPosterStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validPosterKey(key); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("write poster %s: %w", key, err)
	}
	return nil
}

func (s *LocalPosterStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validPosterKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("read poster %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalPosterStore) Delete(ctx context.Context, key string) error {
	if err := validPosterKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete poster %s: %w", key, err)
	}
	return nil
}

// Keys are flat filenames; anything path-like is rejected before it
// touches the filesystem.
func validPosterKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid poster key %q", key)
	}
	return nil
}
