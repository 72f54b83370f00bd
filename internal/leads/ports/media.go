package ports

import (
	"context"
	"io"
	"time"
)

// MediaStore is the slice of object storage the leads module uses.
type MediaStore interface {
	Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader, size int64) (fileKey string, err error)
	DownloadURL(ctx context.Context, fileKey string) (url string, expiresAt time.Time, err error)
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}
