package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type eventRepoStub struct {
	mu     sync.Mutex
	byDate map[string]*models.Event
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{byDate: map[string]*models.Event{}}
}

func (s *eventRepoStub) GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.Format(dateLayout)
	if ev, ok := s.byDate[key]; ok {
		clone := *ev
		return &clone, nil
	}
	ev := &models.Event{ID: uuid.NewString(), Date: date, Status: models.EventPlanned}
	s.byDate[key] = ev
	clone := *ev
	return &clone, nil
}

func (s *eventRepoStub) FindByDate(ctx context.Context, date time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := s.byDate[date.Format(dateLayout)]; ok {
		clone := *ev
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *eventRepoStub) ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for d := from; !d.After(to); d = d.AddDate(0, 0, 7) {
		if ev, ok := s.byDate[d.Format(dateLayout)]; ok {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func day(raw string) time.Time {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEventCalendarNextWeeklyDate(t *testing.T) {
	cal := NewEventCalendar(nil, time.Tuesday, time.UTC)

	assert.Equal(t, day("2024-06-04"), cal.NextWeeklyDate(day("2024-06-04")), "on the weekday returns the same day")
	assert.Equal(t, day("2024-06-04"), cal.NextWeeklyDate(day("2024-05-30")))
	assert.Equal(t, day("2024-06-11"), cal.NextWeeklyDate(day("2024-06-05")))
	assert.Equal(t, day("2024-06-04"), cal.PreviousWeeklyDate(day("2024-06-04")))
	assert.Equal(t, day("2024-06-04"), cal.PreviousWeeklyDate(day("2024-06-10")))
}

func TestEventCalendarLookaheadDates(t *testing.T) {
	cal := NewEventCalendar(nil, time.Tuesday, time.UTC)

	dates := cal.LookaheadDates(day("2024-05-30"), 3)
	assert.Equal(t, []time.Time{day("2024-06-04"), day("2024-06-11"), day("2024-06-18")}, dates)
	assert.Nil(t, cal.LookaheadDates(day("2024-05-30"), 0))
}

func TestEventCalendarDateOfUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	cal := NewEventCalendar(nil, time.Tuesday, loc)

	// 03:00 UTC on Wednesday is still Tuesday evening in Chicago.
	instant := time.Date(2024, 6, 5, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, day("2024-06-04"), cal.DateOf(instant))
	assert.Equal(t, day("2024-06-04"), cal.NextWeeklyDate(instant))
}

func TestEventCalendarGetOrCreateIsIdempotentUnderRace(t *testing.T) {
	repo := newEventRepoStub()
	cal := NewEventCalendar(repo, time.Tuesday, time.UTC)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev, err := cal.GetOrCreate(context.Background(), day("2024-06-04"))
			if assert.NoError(t, err) {
				ids[i] = ev.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, repo.byDate, 1)
}

func TestEventCalendarRejectsOffWeekday(t *testing.T) {
	cal := NewEventCalendar(newEventRepoStub(), time.Tuesday, time.UTC)
	_, err := cal.GetOrCreate(context.Background(), day("2024-06-05"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = cal.Find(context.Background(), day("2024-06-04"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
