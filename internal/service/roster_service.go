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

type rosterRepository interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error)
	FindByID(ctx context.Context, id string) (*models.Participant, error)
	Create(ctx context.Context, p *models.Participant) error
	Update(ctx context.Context, p *models.Participant) error
	UpsertByEmail(ctx context.Context, participants []models.Participant) (int, int, error)
}

// RosterService manages participants.
type RosterService struct {
	repo      rosterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(repo rosterRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, validator: validate, logger: logger}
}

// List returns a page of participants.
func (s *RosterService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown participant category")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	if items == nil {
		items = []models.Participant{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a participant by id.
func (s *RosterService) Get(ctx context.Context, id string) (*models.Participant, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	return p, nil
}

// Create adds a participant. Category defaults to regular.
func (s *RosterService) Create(ctx context.Context, req dto.CreateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	category := models.ParticipantCategory(req.Category)
	if category == "" {
		category = models.CategoryRegular
	}
	p := &models.Participant{
		Name:     strings.TrimSpace(req.Name),
		Email:    normaliseEmail(req.Email),
		Category: category,
	}
	if err := s.create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("participant created", "participant_id", p.ID, "category", p.Category)
	return p, nil
}

// AddGuest registers a guest, typically while attendance is being taken.
func (s *RosterService) AddGuest(ctx context.Context, req dto.QuickAddGuestRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guest payload")
	}
	p := &models.Participant{
		Name:     strings.TrimSpace(req.Name),
		Email:    normaliseEmail(req.Email),
		Category: models.CategoryGuest,
	}
	if err := s.create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("guest added", "participant_id", p.ID)
	return p, nil
}

// Update edits the profile of a participant.
func (s *RosterService) Update(ctx context.Context, id string, req dto.UpdateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		p.Email = normaliseEmail(*req.Email)
	}
	if req.Category != nil {
		p.Category = models.ParticipantCategory(*req.Category)
		if !p.IsRegular() {
			p.ManualRank = nil
		}
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		if appErrors.HasCode(err, appErrors.ErrDuplicateContact.Code) {
			return nil, appErrors.FromError(err)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update participant")
	}
	return p, nil
}

// Import upserts participants by contact address.
func (s *RosterService) Import(ctx context.Context, req dto.ImportRosterRequest) (*dto.ImportRosterResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster import")
	}
	seen := make(map[string]struct{}, len(req.Participants))
	batch := make([]models.Participant, 0, len(req.Participants))
	for _, row := range req.Participants {
		email := normaliseEmail(row.Email)
		if _, dup := seen[email]; dup {
			return nil, appErrors.Clone(appErrors.ErrDuplicateContact, "contact "+email+" appears more than once")
		}
		seen[email] = struct{}{}
		category := models.ParticipantCategory(row.Category)
		if category == "" {
			category = models.CategoryRegular
		}
		batch = append(batch, models.Participant{Name: strings.TrimSpace(row.Name), Email: email, Category: category})
	}

	created, updated, err := s.repo.UpsertByEmail(ctx, batch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import roster")
	}
	s.logger.Sugar().Infow("roster imported", "created", created, "updated", updated)
	return &dto.ImportRosterResult{Created: created, Updated: updated}, nil
}

func (s *RosterService) create(ctx context.Context, p *models.Participant) error {
	if err := s.repo.Create(ctx, p); err != nil {
		if appErrors.HasCode(err, appErrors.ErrDuplicateContact.Code) {
			return appErrors.FromError(err)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participant")
	}
	return nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
