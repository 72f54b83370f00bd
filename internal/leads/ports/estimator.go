package ports

import (
	"context"

	"movecrm_backend/internal/leads/domain"
)

// Photo is one uploaded intake image. FileKey is its object storage key and
// Data the raw bytes handed to the vision model.
type Photo struct {
	FileKey     string
	FileName    string
	ContentType string
	Data        []byte
}

// Estimator turns intake photos into an inventory and price estimate.
// Callers treat any error as recoverable.
type Estimator interface {
	Estimate(ctx context.Context, photos []Photo) (domain.Estimate, error)
}
