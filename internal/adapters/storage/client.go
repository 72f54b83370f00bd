package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// PresignedURLTTL is the default expiration time for presigned URLs (15 minutes).
	PresignedURLTTL = 15 * time.Minute
)

// MinIOService keeps lead media in a single bucket.
type MinIOService struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		bucket:      cfg.GetMinioBucketLeadMedia(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// Bucket returns the bucket media is written to.
func (s *MinIOService) Bucket() string {
	return s.bucket
}

// EnsureBucketExists creates the media bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// Upload writes the object under folder and returns its key. The key gets a
// random suffix so two photos with the same name never overwrite each other.
func (s *MinIOService) Upload(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := objectKey(folder, fileName, uuid.New())

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// DownloadURL creates a presigned GET URL for the object.
func (s *MinIOService) DownloadURL(ctx context.Context, fileKey string) (string, time.Time, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, make(url.Values))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), expiresAt, nil
}

func objectKey(folder, fileName string, id uuid.UUID) string {
	fileName = path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "photo"
	}
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, id.String()[:8], strings.ToLower(ext))
	return path.Join(folder, uniqueFileName)
}
