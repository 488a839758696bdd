package models

import (
	"fmt"
	"time"
)

// TimeLayout is fixed width, so lexical order of formatted values equals
// chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts only the exact fixed-width layout.
func ParseTime(s string) (time.Time, error) {
	if len(s) != len(TimeLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q is not in %s format", s, TimeLayout)
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not in %s format: %w", s, TimeLayout, err)
	}
	return t, nil
}

func ValidTime(s string) bool {
	_, err := ParseTime(s)
	return err == nil
}
