// Package storage stores lead intake photos in S3-compatible object storage.
package storage

import "movecrm_backend/internal/leads/ports"

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadMedia() string
	IsMinIOEnabled() bool
}

var _ ports.MediaStore = (*MinIOService)(nil)
