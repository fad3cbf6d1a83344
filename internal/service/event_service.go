package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type eventCalendar interface {
	DateOf(t time.Time) time.Time
	NextWeeklyDate(from time.Time) time.Time
	GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error)
	Upcoming(ctx context.Context, from time.Time, n int) ([]models.Event, error)
}

type eventStore interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Cancel(ctx context.Context, eventID string) (*models.Event, error)
}

// EventService exposes weekly events to the admin API.
type EventService struct {
	calendar     eventCalendar
	events       eventStore
	participants participantFinder
	venues       schedulerVenues
	logger       *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(calendar eventCalendar, events eventStore, participants participantFinder, venues schedulerVenues, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{calendar: calendar, events: events, participants: participants, venues: venues, logger: logger}
}

// Current returns the next event on or after today, creating it if needed.
func (s *EventService) Current(ctx context.Context, today time.Time) (*models.EventDetail, error) {
	event, err := s.calendar.GetOrCreate(ctx, s.calendar.NextWeeklyDate(today))
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, event), nil
}

// ForDate returns the event on date, creating it if needed.
func (s *EventService) ForDate(ctx context.Context, date time.Time) (*models.EventDetail, error) {
	event, err := s.calendar.GetOrCreate(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, event), nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.EventDetail, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event not found", "failed to load event")
	}
	return s.detail(ctx, event), nil
}

// Upcoming lists stored events among the next n weeks.
func (s *EventService) Upcoming(ctx context.Context, today time.Time, weeks int) ([]models.Event, error) {
	if weeks <= 0 || weeks > 52 {
		weeks = 4
	}
	events, err := s.calendar.Upcoming(ctx, today, weeks)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Cancel marks a planned event as cancelled. Completed events cannot be
// cancelled.
func (s *EventService) Cancel(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event not found", "failed to load event")
	}
	if event.Status != models.EventPlanned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only planned events can be cancelled")
	}
	cancelled, err := s.events.Cancel(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event not found", "failed to cancel event")
	}
	s.logger.Sugar().Infow("event cancelled", "event_id", id, "date", cancelled.Date.Format(dateLayout))
	return cancelled, nil
}

func (s *EventService) detail(ctx context.Context, event *models.Event) *models.EventDetail {
	detail := &models.EventDetail{Event: *event}
	if event.HostID != nil {
		if host, err := s.participants.FindByID(ctx, *event.HostID); err == nil {
			detail.Host = host
		} else {
			s.logger.Warn("event host lookup failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if event.VenueID != nil {
		if venue, err := s.venues.FindByID(ctx, *event.VenueID); err == nil {
			detail.Venue = venue
		} else {
			s.logger.Warn("event venue lookup failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return detail
}
