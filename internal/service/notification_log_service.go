package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type notificationLogLister interface {
	List(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLogEntry, int, error)
}

// NotificationLogService reads the delivery history.
type NotificationLogService struct {
	repo   notificationLogLister
	logger *zap.Logger
}

// NewNotificationLogService constructs NotificationLogService.
func NewNotificationLogService(repo notificationLogLister, logger *zap.Logger) *NotificationLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationLogService{repo: repo, logger: logger}
}

// List returns a page of log entries, newest first.
func (s *NotificationLogService) List(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLogEntry, *models.Pagination, error) {
	if filter.JobType != "" {
		if _, err := models.ParseJobType(filter.JobType); err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	switch models.NotificationStatus(filter.Status) {
	case "", models.NotificationPending, models.NotificationSent, models.NotificationFailed, models.NotificationSkippedDuplicate:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown notification status")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notification log")
	}
	if entries == nil {
		entries = []models.NotificationLogEntry{}
	}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
