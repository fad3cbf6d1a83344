package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type logListerStub struct {
	entries []models.NotificationLogEntry
	err     error
	filter  models.NotificationLogFilter
}

func (s *logListerStub) List(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLogEntry, int, error) {
	s.filter = filter
	return s.entries, len(s.entries), s.err
}

func TestNotificationLogServiceList(t *testing.T) {
	repo := &logListerStub{entries: []models.NotificationLogEntry{{ID: "n-1", Status: models.NotificationSent}}}
	svc := NewNotificationLogService(repo, nil)

	entries, page, err := svc.List(context.Background(), models.NotificationLogFilter{JobType: "host_reminder", PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 20, repo.filter.PageSize)
}

func TestNotificationLogServiceRejectsUnknownFilters(t *testing.T) {
	svc := NewNotificationLogService(&logListerStub{}, nil)

	_, _, err := svc.List(context.Background(), models.NotificationLogFilter{JobType: "digest"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.List(context.Background(), models.NotificationLogFilter{Status: "bounced"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestNotificationLogServiceEmptyAndFailure(t *testing.T) {
	entries, _, err := NewNotificationLogService(&logListerStub{}, nil).List(context.Background(), models.NotificationLogFilter{})
	require.NoError(t, err)
	assert.NotNil(t, entries)

	_, _, err = NewNotificationLogService(&logListerStub{err: errors.New("db down")}, nil).List(context.Background(), models.NotificationLogFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
