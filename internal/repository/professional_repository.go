package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/turnomed/turnomed/internal/domain/professional"
)

type professionalRepository struct {
	db *gorm.DB
}

func NewProfessionalRepository(db *gorm.DB) professional.Repository {
	return &professionalRepository{db: db}
}

func (r *professionalRepository) Create(ctx context.Context, p *professional.Professional) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("inserting professional: %w", err)
	}
	return nil
}

func (r *professionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
	var p professional.Professional
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, professional.ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("fetching professional %s: %w", id, err)
	}
	return &p, nil
}

func (r *professionalRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&professional.Professional{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking professional %s: %w", id, err)
	}
	return count > 0, nil
}

func (r *professionalRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&professional.Professional{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("now()"))
	if res.Error != nil {
		return fmt.Errorf("soft-deleting professional %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return professional.ErrProfessionalNotFound
	}
	return nil
}

func (r *professionalRepository) List(ctx context.Context, q *professional.ListProfessionalsQuery) (*professional.PagedProfessionals, error) {
	query := r.db.WithContext(ctx).
		Model(&professional.Professional{}).
		Where("deleted_at IS NULL")

	if q.Specialty != "" {
		query = query.Where("specialty = ?", q.Specialty)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting professionals: %w", err)
	}

	var items []*professional.Professional
	err := query.
		Order("last_name, first_name").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing professionals: %w", err)
	}

	return &professional.PagedProfessionals{
		Professionals: items,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}, nil
}
