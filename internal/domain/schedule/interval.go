package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MinutesPerDay bounds every clock value handled by the engine.
	MinutesPerDay = 24 * 60

	clockLayout = "15:04"
)

var (
	ErrInvalidInterval = errors.New("invalid time interval")
	ErrInvalidDate     = errors.New("invalid appointment date")
)

// ClockMinutes parses an "HH:MM" clock string into a minute-of-day value
// in [0, 1440).
func ClockMinutes(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid HH:MM time", ErrInvalidInterval, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders a minute-of-day value back into "HH:MM".
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Interval is a half-open [Start, End) time-of-day range within a single
// calendar date, held as minute-of-day values.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds an interval from "HH:MM" bounds. It fails with
// ErrInvalidInterval when either bound does not parse or start is not
// strictly before end.
func NewInterval(start, end string) (Interval, error) {
	s, err := ClockMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ClockMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidInterval, start, end)
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether the two half-open intervals intersect.
// Touching boundaries are not an overlap: back-to-back booking is allowed.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Contains reports whether i fully covers other.
func (i Interval) Contains(other Interval) bool {
	return i.Start <= other.Start && other.End <= i.End
}

func (i Interval) Minutes() int {
	return i.End - i.Start
}

func (i Interval) StartClock() string { return FormatClock(i.Start) }
func (i Interval) EndClock() string   { return FormatClock(i.End) }

func (i Interval) String() string {
	return i.StartClock() + "-" + i.EndClock()
}
