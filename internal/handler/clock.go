package handler

import (
	"strings"
	"time"
)

type calendarClock interface {
	DateOf(t time.Time) time.Time
	ParseDate(raw string) (time.Time, error)
}

// resolveDate reads an optional YYYY-MM-DD value, falling back to today in
// the event's time zone.
func resolveDate(clock calendarClock, now func() time.Time, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clock.DateOf(now()), nil
	}
	return clock.ParseDate(raw)
}
