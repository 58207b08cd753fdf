package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps uploaded images on disk for local runs. Keys map to
// files under the base directory and are served by the HTTP surface at
// /uploads/.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the directory served for uploads.
func (f *FileStore) BasePath() string {
	return f.basePath
}

// Put writes an image file under the base directory.
func (f *FileStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	target := filepath.Join(f.basePath, safeKey(key))
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// URL returns the path the HTTP surface serves the image under.
func (f *FileStore) URL(_ context.Context, key string) (string, error) {
	return "/uploads/" + safeKey(key), nil
}

// Delete removes an image file.
func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(filepath.Join(f.basePath, safeKey(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func safeKey(key string) string {
	key = filepath.Base(key)
	key = strings.TrimSpace(key)
	if key == "" || key == "." {
		return "upload"
	}
	return key
}
