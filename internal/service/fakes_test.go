package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/domain"
	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/patient"
	"github.com/turnomed/turnomed/internal/domain/professional"
	"github.com/turnomed/turnomed/internal/domain/schedule"
	"github.com/turnomed/turnomed/internal/notification"
	"github.com/turnomed/turnomed/pkg/metrics"
)

// Prometheus collectors register globally, so all service tests share one.
var testMetrics = metrics.NewCollector("turnomed_test")

// memAppointments is an in-memory appointment.Repository. Transaction takes
// txmu for its whole duration, mirroring the serialization the database
// transaction plus day lock provide in production.
type memAppointments struct {
	mu   sync.Mutex
	txmu sync.Mutex
	rows map[uuid.UUID]*appointment.Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{rows: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAppointments) CreateBatch(ctx context.Context, as []*appointment.Appointment) error {
	for _, a := range as {
		if err := m.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.DeletedAt != nil {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) Update(_ context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memAppointments) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.DeletedAt != nil {
		return appointment.ErrAppointmentNotFound
	}
	now := nowPtr()
	a.DeletedAt = now
	return nil
}

func (m *memAppointments) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range m.rows {
		if a.DeletedAt != nil {
			continue
		}
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.ProfessionalID != nil && (a.ProfessionalID == nil || *a.ProfessionalID != *q.ProfessionalID) {
			continue
		}
		if q.Date != nil && a.Date != *q.Date {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return &appointment.PagedAppointments{
		Appointments: out,
		TotalCount:   int64(len(out)),
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   1,
	}, nil
}

func (m *memAppointments) ListForDay(_ context.Context, professionalID uuid.UUID, date string, statuses []appointment.Status) ([]*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range m.rows {
		if a.DeletedAt != nil || a.ProfessionalID == nil || *a.ProfessionalID != professionalID || a.Date != date {
			continue
		}
		if !statusIn(a.Status, statuses) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memAppointments) FindConflict(_ context.Context, professionalID uuid.UUID, date string, iv schedule.Interval, statuses []appointment.Status, excludeID *uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.DeletedAt != nil || a.ProfessionalID == nil || *a.ProfessionalID != professionalID || a.Date != date {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if !statusIn(a.Status, statuses) {
			continue
		}
		other, err := a.Interval()
		if err != nil {
			continue
		}
		if iv.Overlaps(other) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAppointments) DeletePendingSiblings(_ context.Context, patientID uuid.UUID, date string, keepID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.rows {
		if id == keepID || a.PatientID != patientID || a.Date != date {
			continue
		}
		if a.Status != appointment.StatusPending {
			continue
		}
		delete(m.rows, id)
		n++
	}
	return n, nil
}

func (m *memAppointments) ListUnreminded(_ context.Context, dateFrom, dateTo string) ([]*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range m.rows {
		if a.DeletedAt != nil || a.Status != appointment.StatusScheduled || a.ReminderSent {
			continue
		}
		if a.Date < dateFrom || a.Date > dateTo {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAppointments) MarkNotified(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.NotificationSent = true
	return nil
}

func (m *memAppointments) MarkReminded(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.ReminderSent = true
	return nil
}

func (m *memAppointments) Transaction(_ context.Context, fn func(appointment.Repository) error) error {
	m.txmu.Lock()
	defer m.txmu.Unlock()
	return fn(m)
}

func statusIn(s appointment.Status, set []appointment.Status) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func nowPtr() *time.Time {
	t := time.Now()
	return &t
}

type memPatients struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*patient.Patient
}

func newMemPatients() *memPatients {
	return &memPatients{rows: make(map[uuid.UUID]*patient.Patient)}
}

func (m *memPatients) seed(p *patient.Patient) *patient.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = patient.StatusActive
	}
	m.rows[p.ID] = p
	return p
}

func (m *memPatients) Create(_ context.Context, p *patient.Patient) error {
	m.seed(p)
	return nil
}

func (m *memPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.DeletedAt != nil {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (m *memPatients) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := m.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memPatients) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.DeletedAt = nowPtr()
	return nil
}

func (m *memPatients) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*patient.Patient
	for _, p := range m.rows {
		if p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return &patient.PagedPatients{Patients: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

type memProfessionals struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*professional.Professional
}

func newMemProfessionals() *memProfessionals {
	return &memProfessionals{rows: make(map[uuid.UUID]*professional.Professional)}
}

func (m *memProfessionals) seed(p *professional.Professional) *professional.Professional {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = professional.StatusActive
	}
	m.rows[p.ID] = p
	return p
}

func (m *memProfessionals) Create(_ context.Context, p *professional.Professional) error {
	m.seed(p)
	return nil
}

func (m *memProfessionals) GetByID(_ context.Context, id uuid.UUID) (*professional.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.DeletedAt != nil {
		return nil, professional.ErrProfessionalNotFound
	}
	return p, nil
}

func (m *memProfessionals) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := m.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memProfessionals) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return professional.ErrProfessionalNotFound
	}
	p.DeletedAt = nowPtr()
	return nil
}

func (m *memProfessionals) List(_ context.Context, q *professional.ListProfessionalsQuery) (*professional.PagedProfessionals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*professional.Professional
	for _, p := range m.rows {
		if p.DeletedAt != nil {
			continue
		}
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return &professional.PagedProfessionals{Professionals: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize, TotalPages: 1}, nil
}

// fakeNotifier records every event and can simulate undelivered sends or
// transport errors.
type fakeNotifier struct {
	mu        sync.Mutex
	events    []notification.Event
	delivered bool
	err       error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{delivered: true}
}

func (f *fakeNotifier) Notify(_ context.Context, ev notification.Event) (notification.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if f.err != nil {
		return notification.Result{}, f.err
	}
	return notification.Result{Delivered: f.delivered}, nil
}

func (f *fakeNotifier) kinds() []notification.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notification.EventKind, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Kind
	}
	return out
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fixture struct {
	repo     *memAppointments
	patients *memPatients
	profs    *memProfessionals
	notifier *fakeNotifier
	svc      *AppointmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	repo := newMemAppointments()
	patients := newMemPatients()
	profs := newMemProfessionals()
	notifier := newFakeNotifier()
	auditSvc := NewAuditService(&fakeAuditRepo{}, testMetrics, log)
	t.Cleanup(auditSvc.Shutdown)

	svc := NewAppointmentService(repo, patients, profs, notifier, auditSvc, testMetrics, log)
	return &fixture{repo: repo, patients: patients, profs: profs, notifier: notifier, svc: svc}
}
