package appointment

import (
	"errors"
	"testing"
)

func TestStatusSets(t *testing.T) {
	active := map[Status]bool{StatusScheduled: true, StatusApproved: true}
	terminal := map[Status]bool{
		StatusCompleted: true, StatusCancelled: true, StatusNoShow: true, StatusRejected: true,
	}

	all := []Status{
		StatusPending, StatusApproved, StatusScheduled, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRejected,
	}
	for _, s := range all {
		if !s.IsValid() {
			t.Errorf("%s must be valid", s)
		}
		if s.IsActive() != active[s] {
			t.Errorf("%s: IsActive = %v, want %v", s, s.IsActive(), active[s])
		}
		if s.IsTerminal() != terminal[s] {
			t.Errorf("%s: IsTerminal = %v, want %v", s, s.IsTerminal(), terminal[s])
		}
	}
	if Status("rescheduled").IsValid() {
		t.Error("rescheduled must not be a persisted status")
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusScheduled, false},
		{StatusApproved, StatusScheduled, true},
		{StatusApproved, StatusRejected, false},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusApproved, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusScheduled, false},
	}
	for _, tc := range cases {
		a := &Appointment{Status: tc.from}
		if got := a.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s → %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancel(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}
	if err := a.Cancel("patient unavailable", nil); err != nil {
		t.Fatalf("cancel scheduled: %v", err)
	}
	if a.Status != StatusCancelled || a.CancelledAt == nil {
		t.Error("cancel must set status and timestamp")
	}
	if a.CancellationReason != "patient unavailable" {
		t.Errorf("reason = %q", a.CancellationReason)
	}

	// Cancelling twice is rejected.
	if err := a.Cancel("again", nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double cancel: want ErrInvalidState, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}
	if err := a.Complete(); err != nil {
		t.Fatalf("complete scheduled: %v", err)
	}
	if a.Status != StatusCompleted || a.CompletedAt == nil {
		t.Error("complete must set status and timestamp")
	}

	b := &Appointment{Status: StatusPending}
	if err := b.Complete(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete pending: want ErrInvalidState, got %v", err)
	}
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := &ConflictError{Existing: &Appointment{Date: "2025-03-10", StartTime: "10:00", EndTime: "10:30"}}
	if !errors.Is(err, ErrSlotConflict) {
		t.Error("ConflictError must match ErrSlotConflict")
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Existing.StartTime != "10:00" {
		t.Error("ConflictError must expose the colliding appointment")
	}
}

func TestInterval(t *testing.T) {
	a := &Appointment{StartTime: "09:00", EndTime: "09:45"}
	iv, err := a.Interval()
	if err != nil {
		t.Fatalf("Interval: %v", err)
	}
	if iv.Minutes() != 45 {
		t.Errorf("Minutes = %d, want 45", iv.Minutes())
	}

	bad := &Appointment{StartTime: "10:00", EndTime: "09:00"}
	if _, err := bad.Interval(); err == nil {
		t.Error("inverted interval must fail")
	}
}
