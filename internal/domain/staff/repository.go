package staff

import (
	"context"
)

// Repository defines the operations for persisting and retrieving staff records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id int64) (*Record, error)
	GetByEmail(ctx context.Context, email string) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	ListActive(ctx context.Context) ([]*Record, error)
	ListAll(ctx context.Context) ([]*Record, error)
}
