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
)

type venueRepository interface {
	List(ctx context.Context) ([]models.Venue, error)
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
}

// VenueService manages the restaurants the group can visit.
type VenueService struct {
	repo      venueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService constructs a VenueService.
func NewVenueService(repo venueRepository, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{repo: repo, validator: validate, logger: logger}
}

// List returns all venues.
func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	return venues, nil
}

// Get returns a venue by id.
func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	return venue, nil
}

// Create adds a venue.
func (s *VenueService) Create(ctx context.Context, req dto.VenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}
	venue := &models.Venue{}
	applyVenueRequest(venue, req)
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}
	s.logger.Sugar().Infow("venue created", "venue_id", venue.ID, "name", venue.Name)
	return venue, nil
}

// Update replaces the descriptive fields of a venue.
func (s *VenueService) Update(ctx context.Context, id string, req dto.VenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}
	venue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyVenueRequest(venue, req)
	if err := s.repo.Update(ctx, venue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update venue")
	}
	return venue, nil
}

func applyVenueRequest(venue *models.Venue, req dto.VenueRequest) {
	venue.Name = strings.TrimSpace(req.Name)
	venue.Address = strings.TrimSpace(req.Address)
	venue.Phone = strings.TrimSpace(req.Phone)
	venue.Cuisine = strings.TrimSpace(req.Cuisine)
	venue.PriceLevel = req.PriceLevel
}
