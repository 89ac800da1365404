package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/patient"
	"github.com/turnomed/turnomed/internal/domain/professional"
	"github.com/turnomed/turnomed/internal/domain/schedule"
	"github.com/turnomed/turnomed/internal/notification"
	"github.com/turnomed/turnomed/pkg/metrics"
)

// AppointmentService owns the appointment state machine. Every transition
// that commits a time against a professional's calendar runs its conflict
// check and its write inside one repository transaction, under a
// per-(professional, date) lock.
type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	profRepo    professional.Repository
	notifier    notification.Notifier
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
	locks       *dayLocks
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	profRepo professional.Repository,
	notifier notification.Notifier,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		profRepo:    profRepo,
		notifier:    notifier,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
		locks:       newDayLocks(),
	}
}

// Create books a fixed slot directly, entering the appointment as scheduled.
func (s *AppointmentService) Create(ctx context.Context, cmd *appointment.CreateAppointmentCommand, ip string) (*appointment.Appointment, error) {
	if err := schedule.ValidateBookable(cmd.Date); err != nil {
		return nil, err
	}
	iv, err := schedule.NewInterval(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}
	if cmd.Priority == "" {
		cmd.Priority = appointment.PriorityMedium
	}
	if !cmd.Priority.IsValid() {
		return nil, &ValidationError{Fields: []string{"priority is invalid"}}
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}
	prof, err := s.profRepo.GetByID(ctx, cmd.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("verifying professional: %w", err)
	}
	if !prof.IsActive() {
		return nil, professional.ErrProfessionalInactive
	}

	a := &appointment.Appointment{
		PatientID:      cmd.PatientID,
		ProfessionalID: &cmd.ProfessionalID,
		Date:           cmd.Date,
		StartTime:      iv.StartClock(),
		EndTime:        iv.EndClock(),
		Status:         appointment.StatusScheduled,
		Priority:       cmd.Priority,
		Reason:         cmd.Reason,
		Notes:          cmd.Notes,
		CreatedBy:      cmd.CreatedBy,
	}

	unlock := s.locks.Acquire(cmd.ProfessionalID, cmd.Date)
	defer unlock()

	err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
		existing, err := tx.FindConflict(ctx, cmd.ProfessionalID, cmd.Date, iv, appointment.ActiveStatuses, nil)
		if err != nil {
			return fmt.Errorf("checking conflicts: %w", err)
		}
		if existing != nil {
			return &appointment.ConflictError{Existing: existing}
		}
		return tx.Create(ctx, a)
	})
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusScheduled)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.CreatedBy,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})
	s.dispatch(ctx, notification.EventCreated, a)

	return a, nil
}

// RequestBooking records a patient's preferred windows as pending
// appointments. Pending rows do not reserve time, so no conflict check runs
// and identical requests from different patients may coexist.
func (s *AppointmentService) RequestBooking(ctx context.Context, cmd *appointment.RequestBookingCommand, ip string) ([]*appointment.Appointment, error) {
	if len(cmd.Slots) == 0 {
		return nil, &ValidationError{Fields: []string{"at least one candidate slot is required"}}
	}

	exists, err := s.patientRepo.Exists(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !exists {
		return nil, patient.ErrPatientNotFound
	}

	if cmd.Priority == "" {
		cmd.Priority = appointment.PriorityMedium
	}

	requests := make([]*appointment.Appointment, 0, len(cmd.Slots))
	for _, slot := range cmd.Slots {
		if err := schedule.ValidateBookable(slot.Date); err != nil {
			return nil, err
		}
		iv, err := schedule.NewInterval(slot.StartTime, slot.EndTime)
		if err != nil {
			return nil, err
		}
		requests = append(requests, &appointment.Appointment{
			PatientID:      cmd.PatientID,
			ProfessionalID: slot.ProfessionalID,
			Date:           slot.Date,
			StartTime:      iv.StartClock(),
			EndTime:        iv.EndClock(),
			Status:         appointment.StatusPending,
			RequestStatus:  appointment.RequestPending,
			Priority:       cmd.Priority,
			Reason:         cmd.Reason,
			CreatedBy:      cmd.CreatedBy,
		})
	}

	err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
		return tx.CreateBatch(ctx, requests)
	})
	if err != nil {
		return nil, err
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusPending)).Add(float64(len(requests)))
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.CreatedBy,
		Action:       "create",
		ResourceType: "booking_request",
		ResourceID:   requests[0].ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"candidate_slots":%d}`, len(requests)),
	})
	// One acknowledgement per request, not per candidate window.
	s.dispatch(ctx, notification.EventRequested, requests[0])

	return requests, nil
}

// Update applies a partial edit. When the edit moves the appointment in time
// or to another professional while it occupies the active set, the conflict
// detector runs again with the appointment excluded from its own check.
func (s *AppointmentService) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevStatus := a.Status

	date := a.Date
	if cmd.Date != nil {
		date = *cmd.Date
	}
	start, end := a.StartTime, a.EndTime
	if cmd.StartTime != nil {
		start = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		end = *cmd.EndTime
	}
	profID := a.ProfessionalID
	if cmd.ProfessionalID != nil {
		profID = cmd.ProfessionalID
	}

	timingChanged := date != a.Date || start != a.StartTime || end != a.EndTime ||
		(cmd.ProfessionalID != nil && (a.ProfessionalID == nil || *cmd.ProfessionalID != *a.ProfessionalID))

	iv, err := schedule.NewInterval(start, end)
	if err != nil {
		return nil, err
	}
	if date != a.Date {
		if err := schedule.ValidateBookable(date); err != nil {
			return nil, err
		}
	}

	newStatus := a.Status
	if cmd.Status != nil && *cmd.Status != a.Status {
		if !cmd.Status.IsValid() {
			return nil, &ValidationError{Fields: []string{"status is invalid"}}
		}
		if !a.CanTransitionTo(*cmd.Status) {
			return nil, appointment.ErrInvalidState
		}
		newStatus = *cmd.Status
	}

	if cmd.ProfessionalID != nil {
		exists, err := s.profRepo.Exists(ctx, *cmd.ProfessionalID)
		if err != nil {
			return nil, fmt.Errorf("verifying professional: %w", err)
		}
		if !exists {
			return nil, professional.ErrProfessionalNotFound
		}
	}

	apply := func() {
		a.Date = date
		a.StartTime = iv.StartClock()
		a.EndTime = iv.EndClock()
		a.ProfessionalID = profID
		if cmd.Reason != nil {
			a.Reason = *cmd.Reason
		}
		if cmd.Notes != nil {
			a.Notes = *cmd.Notes
		}
		if cmd.Priority != nil {
			a.Priority = *cmd.Priority
		}
		if newStatus != a.Status {
			if newStatus == appointment.StatusCancelled {
				reason := ""
				if cmd.CancellationReason != nil {
					reason = *cmd.CancellationReason
				}
				// Transition already validated above.
				_ = a.Cancel(reason, cmd.UpdatedBy)
			} else {
				a.Status = newStatus
			}
		}
	}

	// The detector must run whenever the edit leaves the appointment in the
	// active set with a slot it did not already hold: a timing change, or a
	// promotion into the active set (pending → approved passes through here).
	becomesActive := newStatus.IsActive() && !prevStatus.IsActive()
	needsCheck := newStatus.IsActive() && profID != nil && (timingChanged || becomesActive)
	if needsCheck {
		unlock := s.locks.Acquire(*profID, date)
		defer unlock()

		err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
			existing, err := tx.FindConflict(ctx, *profID, date, iv, appointment.ActiveStatuses, &a.ID)
			if err != nil {
				return fmt.Errorf("checking conflicts: %w", err)
			}
			if existing != nil {
				return &appointment.ConflictError{Existing: existing}
			}
			apply()
			return tx.Update(ctx, a)
		})
	} else {
		err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
			apply()
			return tx.Update(ctx, a)
		})
	}
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.UpdatedBy,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":"%s","rescheduled":%t}`, a.Status, timingChanged),
	})

	switch {
	case a.Status == appointment.StatusCancelled && prevStatus != appointment.StatusCancelled:
		s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusCancelled)).Inc()
		s.dispatch(ctx, notification.EventCancelled, a)
	case timingChanged && prevStatus.IsActive():
		// The transient reschedule marker: the slot moved, the status did not.
		s.dispatch(ctx, notification.EventRescheduled, a)
	}

	return a, nil
}

// Approve grants one pending request, optionally overriding the slot, and
// permanently discards the patient's competing pending requests for that
// date. Approval commits the slot, so the conflict detector runs here too.
func (s *AppointmentService) Approve(ctx context.Context, id uuid.UUID, cmd *appointment.ApproveCommand, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != appointment.StatusPending {
		return nil, appointment.ErrInvalidState
	}

	// Siblings are the other pending rows of the same request group; they are
	// identified by the requested date, before any override moves this one.
	requestedDate := a.Date

	if cmd.Date != nil {
		a.Date = *cmd.Date
	}
	if cmd.StartTime != nil {
		a.StartTime = *cmd.StartTime
	}
	if cmd.EndTime != nil {
		a.EndTime = *cmd.EndTime
	}
	if cmd.ProfessionalID != nil {
		a.ProfessionalID = cmd.ProfessionalID
	}

	if a.ProfessionalID == nil {
		return nil, appointment.ErrProfessionalRequired
	}
	if err := schedule.ValidateBookable(a.Date); err != nil {
		return nil, err
	}
	iv, err := a.Interval()
	if err != nil {
		return nil, err
	}
	exists, err := s.profRepo.Exists(ctx, *a.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("verifying professional: %w", err)
	}
	if !exists {
		return nil, professional.ErrProfessionalNotFound
	}

	unlock := s.locks.Acquire(*a.ProfessionalID, a.Date)
	defer unlock()

	var purged int64
	err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
		existing, err := tx.FindConflict(ctx, *a.ProfessionalID, a.Date, iv, appointment.ActiveStatuses, &a.ID)
		if err != nil {
			return fmt.Errorf("checking conflicts: %w", err)
		}
		if existing != nil {
			return &appointment.ConflictError{Existing: existing}
		}

		now := time.Now()
		a.Status = appointment.StatusApproved
		a.RequestStatus = appointment.RequestApproved
		a.ApprovedBy = &cmd.ApprovedBy
		a.ApprovedAt = &now
		if err := tx.Update(ctx, a); err != nil {
			return err
		}

		purged, err = tx.DeletePendingSiblings(ctx, a.PatientID, requestedDate, a.ID)
		return err
	})
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	if purged > 0 {
		s.log.Info("purged superseded booking requests",
			zap.String("patient_id", a.PatientID.String()),
			zap.String("date", requestedDate),
			zap.Int64("count", purged),
		)
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusApproved)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      &cmd.ApprovedBy,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":"approved","purged_siblings":%d}`, purged),
	})
	s.dispatch(ctx, notification.EventApproved, a)

	return a, nil
}

// Reject declines a pending request with a reason and optional suggested
// alternatives for the patient.
func (s *AppointmentService) Reject(ctx context.Context, id uuid.UUID, cmd *appointment.RejectCommand, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != appointment.StatusPending {
		return nil, appointment.ErrInvalidState
	}

	a.Status = appointment.StatusRejected
	a.RequestStatus = appointment.RequestRejected
	a.RejectionReason = cmd.Reason
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusRejected)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      &cmd.RejectedBy,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      `{"status":"rejected"}`,
	})

	extra := map[string]string{}
	if cmd.Alternatives != "" {
		extra["alternatives"] = cmd.Alternatives
	}
	s.dispatchExtra(ctx, notification.EventRejected, a, extra)

	return a, nil
}

// ConfirmSchedule turns an approved appointment into a scheduled one. Time
// has passed since approval, so the detector runs once more, this time also
// counting completed appointments.
func (s *AppointmentService) ConfirmSchedule(ctx context.Context, id uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != appointment.StatusApproved {
		return nil, appointment.ErrInvalidState
	}
	if a.ProfessionalID == nil {
		return nil, appointment.ErrProfessionalRequired
	}
	iv, err := a.Interval()
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(*a.ProfessionalID, a.Date)
	defer unlock()

	err = s.repo.Transaction(ctx, func(tx appointment.Repository) error {
		existing, err := tx.FindConflict(ctx, *a.ProfessionalID, a.Date, iv, appointment.ConfirmStatuses, &a.ID)
		if err != nil {
			return fmt.Errorf("checking conflicts: %w", err)
		}
		if existing != nil {
			return &appointment.ConflictError{Existing: existing}
		}
		a.Status = appointment.StatusScheduled
		return tx.Update(ctx, a)
	})
	if err != nil {
		s.countConflict(err)
		return nil, err
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusScheduled)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      `{"status":"scheduled"}`,
	})
	s.dispatch(ctx, notification.EventCreated, a)

	return a, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, reason string, cancelledBy *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.Cancel(reason, cancelledBy); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusCancelled)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      cancelledBy,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":"cancelled","reason":%q}`, reason),
	})
	s.dispatch(ctx, notification.EventCancelled, a)

	return a, nil
}

func (s *AppointmentService) Complete(ctx context.Context, id uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}
	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusCompleted)).Inc()
	return a, nil
}

func (s *AppointmentService) MarkNoShow(ctx context.Context, id uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.MarkNoShow(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}
	s.collector.BookingsTotal.WithLabelValues(string(appointment.StatusNoShow)).Inc()
	return a, nil
}

func (s *AppointmentService) Delete(ctx context.Context, id uuid.UUID, deletedBy *uuid.UUID, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      deletedBy,
		Action:       "delete",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// SendReminders notifies patients of scheduled appointments starting within
// the lead window. Returns the number of reminders delivered.
func (s *AppointmentService) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	now := time.Now()
	from := schedule.Today()
	to := now.Add(lead).Format(schedule.DateLayout)

	due, err := s.repo.ListUnreminded(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range due {
		iv, err := a.Interval()
		if err != nil {
			s.log.Warn("skipping reminder for malformed appointment",
				zap.String("appointment_id", a.ID.String()), zap.Error(err))
			continue
		}
		startAt, err := schedule.StartsAt(a.Date, iv.Start)
		if err != nil {
			continue
		}
		if startAt.Before(now) || startAt.Sub(now) > lead {
			continue
		}
		s.dispatch(ctx, notification.EventReminder, a)
		if a.ReminderSent {
			sent++
			s.collector.RemindersSentTotal.Inc()
		}
	}
	return sent, nil
}

func (s *AppointmentService) dispatch(ctx context.Context, kind notification.EventKind, a *appointment.Appointment) {
	s.dispatchExtra(ctx, kind, a, nil)
}

// dispatchExtra asks the notification collaborator to send and records the
// outcome. Delivery failures are data, never errors: the committed transition
// stands regardless.
func (s *AppointmentService) dispatchExtra(ctx context.Context, kind notification.EventKind, a *appointment.Appointment, extra map[string]string) {
	ev := notification.Event{Kind: kind, Appointment: a, Extra: extra}
	if p, err := s.patientRepo.GetByID(ctx, a.PatientID); err == nil {
		ev.Patient = p
	}
	if a.ProfessionalID != nil {
		if prof, err := s.profRepo.GetByID(ctx, *a.ProfessionalID); err == nil {
			ev.Professional = prof
		}
	}

	res, err := s.notifier.Notify(ctx, ev)
	if err != nil {
		s.collector.NotificationsTotal.WithLabelValues(string(kind), "error").Inc()
		s.log.Warn("notification trigger failed",
			zap.String("kind", string(kind)),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}

	outcome := "undelivered"
	if res.Delivered {
		outcome = "delivered"
	}
	s.collector.NotificationsTotal.WithLabelValues(string(kind), outcome).Inc()
	if !res.Delivered {
		return
	}

	var markErr error
	if kind == notification.EventReminder {
		a.ReminderSent = true
		markErr = s.repo.MarkReminded(ctx, a.ID)
	} else {
		a.NotificationSent = true
		markErr = s.repo.MarkNotified(ctx, a.ID)
	}
	if markErr != nil {
		s.log.Warn("recording notification delivery failed",
			zap.String("appointment_id", a.ID.String()), zap.Error(markErr))
	}
}

func (s *AppointmentService) countConflict(err error) {
	if _, ok := err.(*appointment.ConflictError); ok {
		s.collector.SlotConflictsTotal.Inc()
	}
}
