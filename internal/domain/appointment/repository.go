package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/turnomed/turnomed/internal/domain/schedule"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// CreateBatch inserts the pending rows of one booking request together.
	CreateBatch(ctx context.Context, as []*Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Update persists the full current state of the appointment.
	Update(ctx context.Context, a *Appointment) error

	SoftDelete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// ListForDay returns a professional's appointments on a date whose status
	// is in statuses, ordered by start time. Fetched once per professional by
	// the slot generator, never per slot.
	ListForDay(ctx context.Context, professionalID uuid.UUID, date string, statuses []Status) ([]*Appointment, error)

	// FindConflict returns the first appointment for the professional and date
	// whose interval overlaps iv and whose status is in statuses, or nil when
	// the slot is free. excludeID skips an appointment being rechecked against
	// itself.
	FindConflict(ctx context.Context, professionalID uuid.UUID, date string, iv schedule.Interval, statuses []Status, excludeID *uuid.UUID) (*Appointment, error)

	// DeletePendingSiblings permanently removes the patient's other pending
	// appointments on the date. Superseded alternative-slot requests are
	// purged, not soft-deleted, so they never resurface as open requests.
	DeletePendingSiblings(ctx context.Context, patientID uuid.UUID, date string, keepID uuid.UUID) (int64, error)

	// ListUnreminded returns scheduled appointments in [dateFrom, dateTo]
	// that have not had a reminder delivered yet.
	ListUnreminded(ctx context.Context, dateFrom, dateTo string) ([]*Appointment, error)

	MarkNotified(ctx context.Context, id uuid.UUID) error
	MarkReminded(ctx context.Context, id uuid.UUID) error

	// Transaction runs fn against a repository bound to a single database
	// transaction. Every conflict check that precedes a time-committing write
	// runs inside one of these so check and write cannot interleave.
	Transaction(ctx context.Context, fn func(Repository) error) error
}
