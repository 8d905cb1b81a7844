package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/storage"
	"github.com/sdmtech/sdmcrm/pkg/errors"
	"github.com/sdmtech/sdmcrm/pkg/utils"
	"go.uber.org/zap"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Ext returns the lower-cased extension of the original filename, without dot.
func (u *Upload) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(u.Filename)), ".")
}

// StorageService writes objects to buckets and records them in stored_files.
type StorageService struct {
	objects   ObjectStore
	files     FileStore
	maxBytes  int64
	signedTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStorageService creates a StorageService.
func NewStorageService(objects ObjectStore, files FileStore, maxBytes int64, signedTTL time.Duration, logger *zap.Logger) *StorageService {
	return &StorageService{
		objects:   objects,
		files:     files,
		maxBytes:  maxBytes,
		signedTTL: signedTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Store writes u to bucket/objectPath (replacing any existing object) and
// returns the stored path.
func (s *StorageService) Store(ctx context.Context, bucket, objectPath, ownerID string, u *Upload) (string, error) {
	if s.maxBytes > 0 && u.Size > s.maxBytes {
		return "", errors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}

	stored, n, err := s.objects.Put(ctx, bucket, objectPath, u.Body, s.maxBytes)
	switch {
	case stderrors.Is(err, storage.ErrInvalidPath), stderrors.Is(err, storage.ErrUnknownBucket):
		return "", errors.NewValidationError("path", err.Error())
	case stderrors.Is(err, storage.ErrTooLarge):
		return "", errors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	case err != nil:
		return "", fmt.Errorf("failed to store %s/%s: %w", bucket, objectPath, err)
	}

	rec := &models.StoredFile{
		ID:          utils.GenerateID(),
		Bucket:      bucket,
		Path:        stored,
		OwnerID:     utils.StringPtr(ownerID),
		ContentType: u.ContentType,
		SizeBytes:   n,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.files.Upsert(ctx, rec); err != nil {
		// The object is written; a missing record only loses its content type.
		s.logger.Warn("failed to record stored file", zap.String("bucket", bucket), zap.String("path", stored), zap.Error(err))
	}
	return stored, nil
}

// PublicURL returns the public URL of an object.
func (s *StorageService) PublicURL(bucket, objectPath string) (string, error) {
	return s.objects.PublicURL(bucket, objectPath)
}

// SignedURL returns a time-limited URL for an object in any bucket.
func (s *StorageService) SignedURL(bucket, objectPath string) (string, time.Time, error) {
	return s.objects.SignedURL(bucket, objectPath, s.signedTTL)
}

// Remove deletes an object.
func (s *StorageService) Remove(bucket, objectPath string) error {
	return s.objects.Remove(bucket, objectPath)
}

// Object is an opened object ready to be served.
type Object struct {
	File        *os.File
	ContentType string
	Name        string
}

// OpenPublic opens an object from a public bucket.
func (s *StorageService) OpenPublic(ctx context.Context, bucket, objectPath string) (*Object, error) {
	if !s.objects.IsPublic(bucket) {
		return nil, errors.NewNotFoundError("File", bucket+"/"+objectPath)
	}
	return s.open(ctx, bucket, objectPath)
}

// OpenSigned opens the object a signed URL token grants.
func (s *StorageService) OpenSigned(ctx context.Context, token string) (*Object, error) {
	bucket, objectPath, err := s.objects.VerifySignedToken(token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid or expired signature")
	}
	return s.open(ctx, bucket, objectPath)
}

func (s *StorageService) open(ctx context.Context, bucket, objectPath string) (*Object, error) {
	f, err := s.objects.Open(bucket, objectPath)
	if err != nil {
		return nil, errors.NewNotFoundError("File", bucket+"/"+objectPath)
	}

	obj := &Object{File: f, Name: path.Base(objectPath)}
	if rec, err := s.files.Find(ctx, bucket, objectPath); err == nil && rec != nil {
		obj.ContentType = rec.ContentType
	}
	return obj, nil
}
