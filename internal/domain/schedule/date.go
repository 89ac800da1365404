package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the civil date format used throughout the engine. Dates are
// plain calendar days, never instants, so they carry no zone ambiguity.
const DateLayout = "2006-01-02"

// ParseDate validates a civil date string and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return t.Format(DateLayout), nil
}

// Today returns the current civil date in the local zone.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ValidateBookable rejects malformed dates and dates earlier than today.
// Today itself is always permitted.
func ValidateBookable(date string) error {
	d, err := ParseDate(date)
	if err != nil {
		return err
	}
	// Normalized YYYY-MM-DD strings order the same way the dates do.
	if d < Today() {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidDate, d)
	}
	return nil
}

// StartsAt resolves a civil date plus a minute-of-day into a local instant.
// Used only at the edges (reminder scheduling), never for conflict checks.
func StartsAt(date string, minuteOfDay int) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid YYYY-MM-DD date", ErrInvalidDate, date)
	}
	return t.Add(time.Duration(minuteOfDay) * time.Minute), nil
}
