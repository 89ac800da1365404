// Package notification defines the boundary to the message-delivery system.
// The engine requests sends and records the outcome; it never performs
// delivery itself and never inspects channel details.
package notification

import (
	"context"

	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/patient"
	"github.com/turnomed/turnomed/internal/domain/professional"
)

type EventKind string

const (
	EventCreated     EventKind = "created"
	EventCancelled   EventKind = "cancelled"
	EventRescheduled EventKind = "rescheduled"
	EventReminder    EventKind = "reminder"
	EventApproved    EventKind = "approved"
	EventRejected    EventKind = "rejected"
	EventRequested   EventKind = "requested"
)

type Event struct {
	Kind        EventKind
	Appointment *appointment.Appointment
	// Patient and Professional are payload material; either may be nil when
	// the lookup failed or the appointment has no professional yet.
	Patient      *patient.Patient
	Professional *professional.Professional
	Extra        map[string]string
}

type Result struct {
	Delivered bool
}

// Notifier is invoked only after the state-changing write has committed.
// A failed send must never undo or block the committed transition.
type Notifier interface {
	Notify(ctx context.Context, ev Event) (Result, error)
}
