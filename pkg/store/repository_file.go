package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileRepository stores each document as <dir>/<key>.json. Writes go to a
// temporary file first and are renamed into place.
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.dir, filepath.Base(key)+".json")
}

func (r *FileRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(r.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return data, nil
}

func (r *FileRepository) Put(ctx context.Context, key string, document []byte) error {
	tmp, err := os.CreateTemp(r.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), r.path(key)); err != nil {
		return fmt.Errorf("failed to replace document %s: %w", key, err)
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
