package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/domain/professional"
)

type ProfessionalService struct {
	repo     professional.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewProfessionalService(repo professional.Repository, auditSvc *AuditService, log *zap.Logger) *ProfessionalService {
	return &ProfessionalService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *ProfessionalService) Create(ctx context.Context, cmd *professional.CreateProfessionalCommand, ip string) (*professional.Professional, error) {
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

	p := &professional.Professional{
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		Specialty: cmd.Specialty,
		Phone:     cmd.Phone,
		Email:     cmd.Email,
		Status:    professional.StatusActive,
		CreatedBy: cmd.CreatedBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.CreatedBy,
		Action:       "create",
		ResourceType: "professional",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})
	return p, nil
}

func (s *ProfessionalService) Get(ctx context.Context, id uuid.UUID) (*professional.Professional, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProfessionalService) List(ctx context.Context, q *professional.ListProfessionalsQuery) (*professional.PagedProfessionals, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *ProfessionalService) Delete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      deletedBy,
		Action:       "delete",
		ResourceType: "professional",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return nil
}
