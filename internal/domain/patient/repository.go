package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Exists checks the reference without fetching the full record.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// SoftDelete marks the patient as deleted; records are retained for audit.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)
}
