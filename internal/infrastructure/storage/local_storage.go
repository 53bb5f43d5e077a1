package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage writes files beneath a root directory
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage creates the root directory when missing
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "storage"
	}
	if err := os.MkdirAll(filepath.Join(root, keyPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: root, now: time.Now}, nil
}

// Save writes data and returns its path relative to the root
func (s *LocalStorage) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectKey(s.now(), ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.root, filepath.FromSlash(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return key, nil
}

// Delete removes a previously saved file. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, relativePath string) error {
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if relativePath == "" || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("storage: invalid path %q", relativePath)
	}
	if err := os.Remove(filepath.Join(s.root, clean)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Root returns the storage directory
func (s *LocalStorage) Root() string {
	return s.root
}
