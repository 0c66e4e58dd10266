package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/models"
)

// FilesystemStore stores each blob as one file on local disk
type FilesystemStore struct {
	basePath string // e.g., "./data/files"
}

func NewFilesystemStore(basePath string) (*FilesystemStore, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FilesystemStore{basePath: basePath}, nil
}

func (s *FilesystemStore) SaveContent(ctx context.Context, data []byte) (models.ContentRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := newID()
	// temp file + rename so a reader never sees a half-written blob
	tmp, err := os.CreateTemp(s.basePath, ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.basePath, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return models.ContentRef(name), nil
}

func (s *FilesystemStore) LoadContent(ctx context.Context, ref models.ContentRef) ([]byte, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// path maps a ref to a file under basePath, refusing anything that would
// escape it.
func (s *FilesystemStore) path(ref models.ContentRef) (string, error) {
	name := string(ref)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrNotFound
	}
	return filepath.Join(s.basePath, name), nil
}
