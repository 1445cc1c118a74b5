// Package calendar derives the fixed set of bookable hourly slots for a day.
package calendar

import (
	"fmt"
	"time"
)

const (
	StartHour = 9
	EndHour   = 17

	DateLayout = "2006-01-02"
)

var labels = buildLabels()

func buildLabels() []string {
	out := make([]string, 0, EndHour-StartHour)
	for h := StartHour; h < EndHour; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// Slots returns the ordered slot labels for date. The window does not vary by date.
func Slots(date string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// IsSlot reports whether label is one of the fixed slot labels.
func IsSlot(label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// ParseDate validates a "YYYY-MM-DD" date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
	}
	return t, nil
}
