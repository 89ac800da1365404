package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrSlotConflict         = errors.New("time slot conflicts with an existing appointment")
	ErrInvalidState         = errors.New("appointment is not in a valid state for this operation")
	ErrProfessionalRequired = errors.New("appointment has no professional assigned")
)

// ConflictError carries the colliding appointment so callers can tell the
// user exactly which booking is in the way. It matches ErrSlotConflict under
// errors.Is.
type ConflictError struct {
	Existing *Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s %s-%s is taken by appointment %s",
		ErrSlotConflict, e.Existing.Date, e.Existing.StartTime, e.Existing.EndTime, e.Existing.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSlotConflict
}
