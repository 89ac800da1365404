package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnomed/turnomed/internal/domain/schedule"
)

// State transitions possibilities:
//
//	pending   → approved | rejected | cancelled
//	approved  → scheduled | cancelled
//	scheduled → completed | no_show | cancelled
//
// "rescheduled" is intentionally not a status: a time or date mutation on a
// scheduled appointment keeps it scheduled and only emits a reschedule event.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusRejected  Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusScheduled, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRejected:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected:
		return true
	}
	return false
}

// IsActive reports whether the status commits its time slot: active
// appointments for one professional and date must be pairwise non-overlapping.
func (s Status) IsActive() bool {
	return s == StatusScheduled || s == StatusApproved
}

// ActiveStatuses is the conflict set used by the default conflict check.
var ActiveStatuses = []Status{StatusScheduled, StatusApproved}

// ConfirmStatuses additionally counts completed appointments, used when a
// final scheduling confirmation must stay consistent with history.
var ConfirmStatuses = []Status{StatusScheduled, StatusApproved, StatusCompleted}

// RequestStatus tracks the approval workflow of patient-initiated requests,
// separately from the scheduling status.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Priority is advisory only; it never affects conflict resolution.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	// Nil while a booking request has no fixed professional yet.
	ProfessionalID *uuid.UUID `gorm:"column:professional_id;type:uuid;index" json:"professional_id,omitempty"`

	// Civil date plus minute-resolution clock bounds; [start, end) half-open.
	Date      string `gorm:"column:date;type:date;not null;index" json:"date"`
	StartTime string `gorm:"column:start_time;type:varchar(5);not null" json:"start_time"`
	EndTime   string `gorm:"column:end_time;type:varchar(5);not null" json:"end_time"`

	Status        Status        `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestStatus RequestStatus `gorm:"column:request_status;type:varchar(20)" json:"request_status,omitempty"`
	Priority      Priority      `gorm:"column:priority;type:varchar(10);default:'medium'" json:"priority"`

	Reason             string `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Notes              string `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CancellationReason string `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
	RejectionReason    string `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`

	// Delivery bookkeeping for the notification collaborator. Display only;
	// a false value never suppresses a later send.
	NotificationSent bool `gorm:"column:notification_sent;default:false" json:"notification_sent"`
	ReminderSent     bool `gorm:"column:reminder_sent;default:false" json:"reminder_sent"`

	CreatedBy  *uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by,omitempty"`
	ApprovedBy *uuid.UUID `gorm:"column:approved_by;type:uuid" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`

	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// Interval returns the appointment's time-of-day range.
func (a *Appointment) Interval() (schedule.Interval, error) {
	return schedule.NewInterval(a.StartTime, a.EndTime)
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved:  {StatusScheduled, StatusCancelled},
		StatusScheduled: {StatusCompleted, StatusNoShow, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusNoShow:    {},
		StatusRejected:  {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Cancel moves the appointment to cancelled from any state except an earlier
// cancellation, recording the reason and actor.
func (a *Appointment) Cancel(reason string, cancelledBy *uuid.UUID) error {
	if a.Status == StatusCancelled {
		return ErrInvalidState
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidState
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

func (a *Appointment) MarkNoShow() error {
	if !a.CanTransitionTo(StatusNoShow) {
		return ErrInvalidState
	}
	a.Status = StatusNoShow
	return nil
}

type CreateAppointmentCommand struct {
	PatientID      uuid.UUID
	ProfessionalID uuid.UUID
	Date           string
	StartTime      string
	EndTime        string
	Reason         string
	Notes          string
	Priority       Priority
	CreatedBy      *uuid.UUID
}

// CandidateSlot is one preferred window in a patient booking request.
type CandidateSlot struct {
	Date           string
	StartTime      string
	EndTime        string
	ProfessionalID *uuid.UUID
}

type RequestBookingCommand struct {
	PatientID uuid.UUID
	Slots     []CandidateSlot
	Reason    string
	Priority  Priority
	CreatedBy *uuid.UUID
}

type UpdateAppointmentCommand struct {
	Date               *string
	StartTime          *string
	EndTime            *string
	ProfessionalID     *uuid.UUID
	Status             *Status
	Reason             *string
	Notes              *string
	Priority           *Priority
	CancellationReason *string
	UpdatedBy          *uuid.UUID
}

// ApproveCommand may override the requested slot with the one actually granted.
type ApproveCommand struct {
	ApprovedBy     uuid.UUID
	Date           *string
	StartTime      *string
	EndTime        *string
	ProfessionalID *uuid.UUID
}

type RejectCommand struct {
	RejectedBy   uuid.UUID
	Reason       string
	Alternatives string
}

type ListAppointmentsQuery struct {
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	Date           *string
	Status         *Status
	Page           int
	PageSize       int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
