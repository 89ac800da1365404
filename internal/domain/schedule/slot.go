package schedule

import (
	"fmt"

	"github.com/google/uuid"
)

// Slot is a candidate booking interval for one professional, classified as
// free or taken against that professional's committed appointments.
type Slot struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Available      bool      `json:"available"`

	Interval Interval `json:"-"`
}

// Grid enumerates every interval of granularity minutes that starts at the
// opening time and ends at or before the closing time, stepping by the
// granularity. Business hours come from configuration, not constants.
func Grid(open, close string, granularity int) ([]Interval, error) {
	if granularity <= 0 {
		return nil, fmt.Errorf("%w: slot granularity must be positive, got %d", ErrInvalidInterval, granularity)
	}
	hours, err := NewInterval(open, close)
	if err != nil {
		return nil, fmt.Errorf("business hours: %w", err)
	}

	var grid []Interval
	for start := hours.Start; start+granularity <= hours.End; start += granularity {
		grid = append(grid, Interval{Start: start, End: start + granularity})
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: business hours %s-%s hold no %d-minute slot",
			ErrInvalidInterval, open, close, granularity)
	}
	return grid, nil
}
