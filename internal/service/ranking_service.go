package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type rankingParticipantRepository interface {
	ListByCategory(ctx context.Context, category models.ParticipantCategory) ([]models.Participant, error)
	SetManualOrder(ctx context.Context, ids []string) (int, error)
	ClearManualOrder(ctx context.Context) (int64, error)
	SwapRotation(ctx context.Context, firstID, secondID string) error
}

type weeklyCalendar interface {
	NextWeeklyDate(from time.Time) time.Time
}

// RankingService exposes the hosting queue and its manual override layer.
type RankingService struct {
	participants rankingParticipantRepository
	calendar     weeklyCalendar
	logger       *zap.Logger
}

// NewRankingService constructs a RankingService.
func NewRankingService(participants rankingParticipantRepository, calendar weeklyCalendar, logger *zap.Logger) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{participants: participants, calendar: calendar, logger: logger}
}

// Rank returns the first limit regular participants in hosting order.
func (s *RankingService) Rank(ctx context.Context, limit int) ([]models.Participant, error) {
	regulars, err := s.participants.ListByCategory(ctx, models.CategoryRegular)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return RankParticipants(regulars, limit), nil
}

// SetManualOrder pins ids in order. Ineligible ids are skipped.
func (s *RankingService) SetManualOrder(ctx context.Context, ids []string) ([]models.Participant, error) {
	pinned, err := s.participants.SetManualOrder(ctx, dedupe(ids))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save manual order")
	}
	s.logger.Sugar().Infow("manual order saved", "requested", len(ids), "pinned", pinned)
	return s.Rank(ctx, 0)
}

// ClearManualOrder removes every pin so the organic order applies again.
func (s *RankingService) ClearManualOrder(ctx context.Context) ([]models.Participant, error) {
	cleared, err := s.participants.ClearManualOrder(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear manual order")
	}
	s.logger.Sugar().Infow("manual order cleared", "cleared", cleared)
	return s.Rank(ctx, 0)
}

// Swap exchanges the rotation counters of two regular participants.
func (s *RankingService) Swap(ctx context.Context, firstID, secondID string) ([]models.Participant, error) {
	if firstID == "" || secondID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "two participants are required")
	}
	if firstID == secondID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot swap a participant with themselves")
	}
	if err := s.participants.SwapRotation(ctx, firstID, secondID); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrInternal.Code {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to swap participants")
	}
	s.logger.Sugar().Infow("rotation swapped", "first", firstID, "second", secondID)
	return s.Rank(ctx, 0)
}

// Lineup returns the full ranking split into tiers with estimated dates.
func (s *RankingService) Lineup(ctx context.Context, today time.Time) (*models.Lineup, error) {
	ranked, err := s.Rank(ctx, 0)
	if err != nil {
		return nil, err
	}
	next := s.calendar.NextWeeklyDate(today)
	lineup := BuildLineup(ranked, func(position int) models.LineupEntry {
		return models.LineupEntry{
			Position:      position + 1,
			EstimatedDate: next.AddDate(0, 0, 7*position),
		}
	})
	return &lineup, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
