package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/token"
)

type confirmationEvents interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindByConfirmationToken(ctx context.Context, token string) (*models.Event, error)
	ConfirmVenue(ctx context.Context, eventID, venueID string, acknowledge bool) (*models.Event, error)
}

type ratingSubmitter interface {
	Submit(ctx context.Context, token string, value int, comment *string) (*models.Rating, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.Rating, error)
}

type linkVerifier interface {
	Verify(purpose, link string) (string, error)
}

// ConfirmationService backs the emailed host confirmation and rating links
// as well as the secretary's direct venue confirmation.
type ConfirmationService struct {
	events       confirmationEvents
	venues       schedulerVenues
	participants participantFinder
	ratings      ratingSubmitter
	links        linkVerifier
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewConfirmationService constructs a ConfirmationService.
func NewConfirmationService(events confirmationEvents, venues schedulerVenues, participants participantFinder, ratings ratingSubmitter, links linkVerifier, validate *validator.Validate, logger *zap.Logger) *ConfirmationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationService{
		events:       events,
		venues:       venues,
		participants: participants,
		ratings:      ratings,
		links:        links,
		validator:    validate,
		logger:       logger,
	}
}

// HostingDetails resolves a host confirmation link to its event.
func (s *ConfirmationService) HostingDetails(ctx context.Context, link string) (*models.EventDetail, error) {
	event, err := s.eventForLink(ctx, link)
	if err != nil {
		return nil, err
	}
	detail := &models.EventDetail{Event: *event}
	if event.HostID != nil {
		if host, err := s.participants.FindByID(ctx, *event.HostID); err == nil {
			detail.Host = host
		}
	}
	if event.VenueID != nil {
		if venue, err := s.venues.FindByID(ctx, *event.VenueID); err == nil {
			detail.Venue = venue
		}
	}
	return detail, nil
}

// ConfirmHosting records the host's acknowledgement and chosen venue.
func (s *ConfirmationService) ConfirmHosting(ctx context.Context, link string, req dto.ConfirmHostingRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "venue_id is required")
	}
	event, err := s.eventForLink(ctx, link)
	if err != nil {
		return nil, err
	}
	updated, err := s.confirm(ctx, event, req.VenueID, true)
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("hosting confirmed", "event_id", updated.ID, "venue_id", req.VenueID)
	return updated, nil
}

// ConfirmVenue sets the venue of an event without touching the host
// acknowledgement.
func (s *ConfirmationService) ConfirmVenue(ctx context.Context, eventID string, req dto.ConfirmVenueRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "venue_id is required")
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event not found", "failed to load event")
	}
	updated, err := s.confirm(ctx, event, req.VenueID, false)
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("venue confirmed", "event_id", updated.ID, "venue_id", req.VenueID)
	return updated, nil
}

// SubmitRating stores the value behind a rating link. Submitting again
// overwrites the earlier value.
func (s *ConfirmationService) SubmitRating(ctx context.Context, link string, req dto.SubmitRatingRequest) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}
	opaque, err := s.verify(token.PurposeRating, link)
	if err != nil {
		return nil, err
	}
	var comment *string
	if trimmed := strings.TrimSpace(req.Comment); trimmed != "" {
		comment = &trimmed
	}
	rating, err := s.ratings.Submit(ctx, opaque, req.Value, comment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "rating link is no longer valid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store rating")
	}
	s.logger.Sugar().Infow("rating submitted", "event_id", rating.EventID, "value", req.Value)
	return rating, nil
}

// Ratings lists the rating requests of an event, answered or not.
func (s *ConfirmationService) Ratings(ctx context.Context, eventID string) ([]models.Rating, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, notFoundOr(err, "event not found", "failed to load event")
	}
	ratings, err := s.ratings.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	return ratings, nil
}

func (s *ConfirmationService) confirm(ctx context.Context, event *models.Event, venueID string, acknowledge bool) (*models.Event, error) {
	if event.Status == models.EventCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "event has been cancelled")
	}
	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		return nil, notFoundOr(err, "venue not found", "failed to load venue")
	}
	updated, err := s.events.ConfirmVenue(ctx, event.ID, venueID, acknowledge)
	if err != nil {
		return nil, notFoundOr(err, "event not found", "failed to confirm venue")
	}
	return updated, nil
}

func (s *ConfirmationService) eventForLink(ctx context.Context, link string) (*models.Event, error) {
	opaque, err := s.verify(token.PurposeHostConfirmation, link)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByConfirmationToken(ctx, opaque)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "confirmation link is no longer valid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *ConfirmationService) verify(purpose, link string) (string, error) {
	opaque, err := s.links.Verify(purpose, link)
	if err != nil {
		message := "invalid link"
		if errors.Is(err, token.ErrExpired) {
			message = "link has expired"
		}
		return "", appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, message)
	}
	return opaque, nil
}
