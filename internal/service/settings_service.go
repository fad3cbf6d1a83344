package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type settingsRepository interface {
	List(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, s *models.Setting) error
}

type participantFinder interface {
	FindByID(ctx context.Context, id string) (*models.Participant, error)
}

// SettingsProvider answers the global lookups the scheduler depends on.
type SettingsProvider interface {
	SecretaryID(ctx context.Context) (string, error)
	Secretary(ctx context.Context) (*models.Participant, error)
}

// SettingsService persists global settings such as the designated secretary.
type SettingsService struct {
	repo              settingsRepository
	participants      participantFinder
	secretaryFallback string
	logger            *zap.Logger
}

var _ SettingsProvider = (*SettingsService)(nil)

// NewSettingsService constructs a SettingsService. secretaryFallback is used
// when no secretary has been stored yet.
func NewSettingsService(repo settingsRepository, participants participantFinder, secretaryFallback string, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		repo:              repo,
		participants:      participants,
		secretaryFallback: strings.TrimSpace(secretaryFallback),
		logger:            logger,
	}
}

// List returns every stored setting.
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	if items == nil {
		items = []models.Setting{}
	}
	return items, nil
}

// SecretaryID returns the designated secretary id or "" when none is set.
func (s *SettingsService) SecretaryID(ctx context.Context) (string, error) {
	setting, err := s.repo.Get(ctx, models.SettingSecretaryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.secretaryFallback, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load secretary setting")
	}
	if value := strings.TrimSpace(setting.Value); value != "" {
		return value, nil
	}
	return s.secretaryFallback, nil
}

// Secretary resolves the designated secretary. A missing designation is a
// configuration error.
func (s *SettingsService) Secretary(ctx context.Context) (*models.Participant, error) {
	id, err := s.SecretaryID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "no secretary designated")
	}
	participant, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConfiguration, "designated secretary no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load secretary")
	}
	return participant, nil
}

// SetSecretary designates a regular participant as secretary.
func (s *SettingsService) SetSecretary(ctx context.Context, participantID, actorID string) (*models.Participant, error) {
	participant, err := s.loadRegular(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, participant.ID, actorID); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("secretary designated", "participant_id", participant.ID, "actor_id", actorID)
	return participant, nil
}

// TransferSecretary hands the role from the acting secretary to another
// regular participant. Administrators may transfer on anyone's behalf.
func (s *SettingsService) TransferSecretary(ctx context.Context, actor *models.JWTClaims, newID string) (*models.Participant, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	current, err := s.SecretaryID(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && (current == "" || actor.ParticipantID != current) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the current secretary can transfer the role")
	}
	if newID == current {
		return nil, appErrors.Clone(appErrors.ErrValidation, "participant is already the secretary")
	}
	participant, err := s.loadRegular(ctx, newID)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, participant.ID, actor.ParticipantID); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("secretary transferred", "from", current, "to", participant.ID, "actor_id", actor.ParticipantID)
	return participant, nil
}

func (s *SettingsService) loadRegular(ctx context.Context, id string) (*models.Participant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "participant_id is required")
	}
	participant, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if !participant.IsRegular() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "secretary must be a regular participant")
	}
	return participant, nil
}

func (s *SettingsService) store(ctx context.Context, participantID, actorID string) error {
	setting := &models.Setting{Key: models.SettingSecretaryID, Value: participantID}
	if actorID != "" {
		setting.UpdatedBy = &actorID
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save secretary")
	}
	return nil
}
