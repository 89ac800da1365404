package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/schedule"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) appointment.Repository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) CreateBatch(ctx context.Context, as []*appointment.Appointment) error {
	if len(as) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(as).Error; err != nil {
		return fmt.Errorf("inserting appointment batch: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetching appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("updating appointment %s: %w", a.ID, err)
	}
	return nil
}

func (r *appointmentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("now()"))
	if res.Error != nil {
		return fmt.Errorf("soft-deleting appointment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	query := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("deleted_at IS NULL")

	if q.PatientID != nil {
		query = query.Where("patient_id = ?", *q.PatientID)
	}
	if q.ProfessionalID != nil {
		query = query.Where("professional_id = ?", *q.ProfessionalID)
	}
	if q.Date != nil {
		query = query.Where("date = ?", *q.Date)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var items []*appointment.Appointment
	err := query.
		Order("date, start_time").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}

func (r *appointmentRepository) ListForDay(ctx context.Context, professionalID uuid.UUID, date string, statuses []appointment.Status) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND status IN ? AND deleted_at IS NULL",
			professionalID, date, statuses).
		Order("start_time").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing day appointments: %w", err)
	}
	return items, nil
}

func (r *appointmentRepository) FindConflict(ctx context.Context, professionalID uuid.UUID, date string, iv schedule.Interval, statuses []appointment.Status, excludeID *uuid.UUID) (*appointment.Appointment, error) {
	// Half-open overlap: existing.start < candidate.end AND existing.end >
	// candidate.start. Zero-padded HH:MM strings compare like the times.
	query := r.db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND status IN ? AND deleted_at IS NULL",
			professionalID, date, statuses).
		Where("start_time < ? AND end_time > ?", iv.EndClock(), iv.StartClock())
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var existing appointment.Appointment
	err := query.Order("start_time").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	return &existing, nil
}

func (r *appointmentRepository) DeletePendingSiblings(ctx context.Context, patientID uuid.UUID, date string, keepID uuid.UUID) (int64, error) {
	// Hard delete: superseded alternative-slot requests must not survive even
	// as soft-deleted rows.
	res := r.db.WithContext(ctx).Unscoped().
		Where("patient_id = ? AND date = ? AND status = ? AND id <> ?",
			patientID, date, appointment.StatusPending, keepID).
		Delete(&appointment.Appointment{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging pending siblings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *appointmentRepository) ListUnreminded(ctx context.Context, dateFrom, dateTo string) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = false AND date BETWEEN ? AND ? AND deleted_at IS NULL",
			appointment.StatusScheduled, dateFrom, dateTo).
		Order("date, start_time").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing unreminded appointments: %w", err)
	}
	return items, nil
}

func (r *appointmentRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("notification_sent", true).Error
}

func (r *appointmentRepository) MarkReminded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("reminder_sent", true).Error
}

func (r *appointmentRepository) Transaction(ctx context.Context, fn func(appointment.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&appointmentRepository{db: tx})
	})
}
