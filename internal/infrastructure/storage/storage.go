// Package storage keeps uploaded files on local disk or in an S3-compatible
// bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyExtension is returned when a file is saved without an extension
var ErrEmptyExtension = errors.New("storage: file extension is required")

// keyPrefix is the directory every upload lands in
const keyPrefix = "images"

// objectKey builds images/{unix}_{rand}.{ext}
func objectKey(now time.Time, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "", ErrEmptyExtension
	}
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("%s/%d_%s.%s", keyPrefix, now.Unix(), rnd, ext), nil
}

// FileStorage is implemented by every backend
type FileStorage interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
	Delete(ctx context.Context, relativePath string) error
}

// New returns the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (FileStorage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.LocalRoot)
	case "s3":
		s, err := NewS3Storage(&cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
