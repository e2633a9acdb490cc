package uploads

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/storage"
)

// Upload messages.
const (
	MsgNoFile        = "No file provided"
	MsgTooLarge      = "File too large (max 5MB)"
	MsgInvalidType   = "Invalid file type. Only JPEG, PNG, and WebP images are allowed"
	MsgUploadFailed  = "Failed to upload image"
	MsgNotConfigured = "Image upload is not configured"
)

// ImageStore persists an image and returns its public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, hostID int64, filename, contentType string, body io.Reader, size int64) (string, error)
}

// File is an uploaded image as received from the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service validates and stores host images.
type Service struct {
	store  ImageStore
	logger *zap.Logger
}

// NewService creates an upload service. A nil store disables uploads.
func NewService(store ImageStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Configured reports whether an image store is wired.
func (s *Service) Configured() bool { return s.store != nil }

// Upload checks f and hands it to the configured store.
func (s *Service) Upload(ctx context.Context, hostID int64, f File) (string, error) {
	if s.store == nil {
		return "", apperror.Unavailable(MsgNotConfigured, nil)
	}
	if f.Body == nil || f.Size <= 0 {
		return "", apperror.FileUpload(MsgNoFile, nil)
	}
	if f.Size > storage.MaxImageSize {
		return "", apperror.FileUpload(MsgTooLarge, nil)
	}
	ct := storage.ImageContentType(f.ContentType, f.Name)
	if ct == "" {
		return "", apperror.FileUpload(MsgInvalidType, nil)
	}
	url, err := s.store.UploadImage(ctx, hostID, f.Name, ct, io.LimitReader(f.Body, storage.MaxImageSize), f.Size)
	if err != nil {
		s.logger.Error("image upload failed", zap.Int64("host_id", hostID), zap.Error(err))
		return "", apperror.FileUpload(MsgUploadFailed, err)
	}
	return url, nil
}
