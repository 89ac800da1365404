package professional

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Professional) error

	// GetByID retrieves a professional by primary key. Returns
	// ErrProfessionalNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)

	// Exists checks the reference without fetching the full record.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	SoftDelete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q *ListProfessionalsQuery) (*PagedProfessionals, error)
}
