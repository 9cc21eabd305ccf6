package prediction

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists prediction records.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
