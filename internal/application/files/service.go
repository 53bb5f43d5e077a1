// Package files validates and stores uploaded attachments.
package files

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultMaxSize is the upload limit when none is configured
const DefaultMaxSize int64 = 10 << 20

// AllowedExtensions lists the accepted upload extensions
var AllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "pdf", "doc", "docx", "xls", "xlsx"}

// Storage persists file contents
type Storage interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
}

// Service handles uploads
type Service struct {
	storage Storage
	maxSize int64
}

// NewService creates an upload service. maxSize <= 0 uses DefaultMaxSize.
func NewService(storage Storage, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{storage: storage, maxSize: maxSize}
}

// MaxSize returns the upload limit in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload checks the file name and size, stores data and returns the stored
// relative path
func (s *Service) Upload(ctx context.Context, actor shared.Actor, filename string, data []byte) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !slices.Contains(AllowedExtensions, ext) {
		return "", shared.NewValidationError("INVALID_FILE_TYPE",
			"File type not allowed, accepted: "+strings.Join(AllowedExtensions, ", "))
	}
	if len(data) == 0 {
		return "", shared.NewValidationError("EMPTY_FILE", "File is empty")
	}
	if int64(len(data)) > s.maxSize {
		return "", shared.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d MB limit", s.maxSize>>20))
	}

	path, err := s.storage.Save(ctx, data, ext)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	logger.L(ctx).Info("file uploaded", zap.String("path", path), zap.Int("size", len(data)))
	return path, nil
}
