package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *PatientService) Create(ctx context.Context, cmd *patient.CreatePatientCommand, ip string) (*patient.Patient, error) {
	var missing []string
	if strings.TrimSpace(cmd.FirstName) == "" {
		missing = append(missing, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		missing = append(missing, "last_name is required")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	p := &patient.Patient{
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		Phone:     cmd.Phone,
		Email:     cmd.Email,
		Notes:     cmd.Notes,
		Status:    patient.StatusActive,
		CreatedBy: cmd.CreatedBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.CreatedBy,
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})
	return p, nil
}

func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PatientService) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *PatientService) Delete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      deletedBy,
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return nil
}
