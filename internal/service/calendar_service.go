package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type calendarEventRepository interface {
	GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error)
	FindByDate(ctx context.Context, date time.Time) (*models.Event, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

// EventCalendar owns all weekday arithmetic for the weekly event. Dates are
// represented as midnight UTC values of the local calendar day.
type EventCalendar struct {
	events   calendarEventRepository
	weekday  time.Weekday
	location *time.Location
}

// NewEventCalendar constructs the calendar for the configured weekday.
func NewEventCalendar(events calendarEventRepository, weekday time.Weekday, location *time.Location) *EventCalendar {
	if location == nil {
		location = time.UTC
	}
	return &EventCalendar{events: events, weekday: weekday, location: location}
}

// Weekday returns the weekday the event recurs on.
func (c *EventCalendar) Weekday() time.Weekday {
	return c.weekday
}

// DateOf truncates an instant to its calendar day in the event's time zone.
func (c *EventCalendar) DateOf(t time.Time) time.Time {
	local := t.In(c.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD value as a calendar day.
func (c *EventCalendar) ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// NextWeeklyDate returns the first event day on or after from.
func (c *EventCalendar) NextWeeklyDate(from time.Time) time.Time {
	day := c.DateOf(from)
	offset := (int(c.weekday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// PreviousWeeklyDate returns the last event day on or before from.
func (c *EventCalendar) PreviousWeeklyDate(from time.Time) time.Time {
	day := c.DateOf(from)
	offset := (int(day.Weekday()) - int(c.weekday) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// LookaheadDates returns n consecutive event days starting at
// NextWeeklyDate(from).
func (c *EventCalendar) LookaheadDates(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	first := c.NextWeeklyDate(from)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, 7*i)
	}
	return dates
}

// GetOrCreate returns the event held on date, creating a planned one if
// needed. date must fall on the event weekday.
func (c *EventCalendar) GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error) {
	day := c.DateOf(date)
	if day.Weekday() != c.weekday {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is not a %s", day.Format(dateLayout), c.weekday))
	}
	event, err := c.events.GetOrCreate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Find returns the event on date without creating it.
func (c *EventCalendar) Find(ctx context.Context, date time.Time) (*models.Event, error) {
	event, err := c.events.FindByDate(ctx, c.DateOf(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no event on %s", c.DateOf(date).Format(dateLayout)))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Upcoming lists the stored events among the next n event days.
func (c *EventCalendar) Upcoming(ctx context.Context, from time.Time, n int) ([]models.Event, error) {
	dates := c.LookaheadDates(from, n)
	if len(dates) == 0 {
		return []models.Event{}, nil
	}
	events, err := c.events.ListBetween(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}
