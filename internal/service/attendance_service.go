package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type attendanceStore interface {
	Reconcile(ctx context.Context, eventID string, attendeeIDs []string, plan models.ReconcileFunc) (*models.AttendanceResult, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceFact, error)
}

// AttendanceService records who attended an event and reconciles the roster
// counters accordingly.
type AttendanceService struct {
	store     attendanceStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(store attendanceStore, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{store: store, validator: validate, logger: logger}
}

// Submit replaces the attendance of an event with the given snapshot. It may
// be called any number of times for the same event.
func (s *AttendanceService) Submit(ctx context.Context, eventID string, req dto.SubmitAttendanceRequest) (*models.AttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	attendees := dedupe(req.AttendeeIDs)

	result, err := s.store.Reconcile(ctx, eventID, attendees, func(event models.Event, previous []models.AttendanceFact, participants map[string]models.Participant) (models.ReconcilePlan, error) {
		return PlanReconciliation(event, previous, participants, attendees, req.HostID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrInternal.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Sugar().Infow("attendance recorded",
		"event_id", eventID,
		"attendees", len(result.Plan.Facts),
		"added", len(result.Plan.Added),
		"removed", len(result.Plan.Removed),
		"kept", len(result.Plan.Kept),
	)
	return result, nil
}

// List returns the recorded attendance facts of an event.
func (s *AttendanceService) List(ctx context.Context, eventID string) ([]models.AttendanceFact, error) {
	facts, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if facts == nil {
		facts = []models.AttendanceFact{}
	}
	return facts, nil
}
