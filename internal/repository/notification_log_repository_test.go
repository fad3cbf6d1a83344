package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

func TestNotificationLogRepositoryClaimFirstTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO notification_log .* ON CONFLICT .* DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "e-1", "host_reminder_tier_0", "ada@example.com", "Ada", "You're at bat", models.NotificationPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n-1"))

	repo := NewNotificationLogRepository(db, 0)
	entry := &models.NotificationLogEntry{
		EventID:        strPtr("e-1"),
		JobType:        models.HostReminderTier(0),
		RecipientEmail: "ada@example.com",
		RecipientName:  "Ada",
		Subject:        "You're at bat",
	}
	claimed, err := repo.Claim(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, models.NotificationPending, entry.Status)
}

func TestNotificationLogRepositoryClaimReleasesAbandonedPendingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE notification_log SET status .* status = 'pending' AND updated_at < \\$4").
		WithArgs("e-1", "host_reminder_tier_0", "ada@example.com", sqlmock.AnyArg(), models.NotificationFailed, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO notification_log .* ON CONFLICT .* DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "e-1", "host_reminder_tier_0", "ada@example.com", "Ada", "You're at bat", models.NotificationPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n-2"))

	repo := NewNotificationLogRepository(db, 10*time.Minute)
	entry := &models.NotificationLogEntry{
		EventID:        strPtr("e-1"),
		JobType:        models.HostReminderTier(0),
		RecipientEmail: "ada@example.com",
		RecipientName:  "Ada",
		Subject:        "You're at bat",
	}
	claimed, err := repo.Claim(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, claimed, "a stale pending row no longer blocks the slot")
}

func TestNotificationLogRepositoryClaimDuplicateRecordsSkip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO notification_log .* ON CONFLICT").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO notification_log").
		WithArgs(sqlmock.AnyArg(), "e-1", "host_reminder_tier_0", "ada@example.com", "Ada", "You're at bat", models.NotificationSkippedDuplicate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNotificationLogRepository(db, 0)
	entry := &models.NotificationLogEntry{
		EventID:        strPtr("e-1"),
		JobType:        models.HostReminderTier(0),
		RecipientEmail: "ada@example.com",
		RecipientName:  "Ada",
		Subject:        "You're at bat",
	}
	claimed, err := repo.Claim(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, models.NotificationSkippedDuplicate, entry.Status)
}

func TestNotificationLogRepositoryMarkSentAndFailed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE notification_log SET status").
		WithArgs("n-1", models.NotificationSent, "msg-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notification_log SET status").
		WithArgs("n-2", models.NotificationFailed, "smtp timeout", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewNotificationLogRepository(db, 0)
	require.NoError(t, repo.MarkSent(context.Background(), "n-1", "msg-1"))
	require.NoError(t, repo.MarkFailed(context.Background(), "n-2", "smtp timeout"))
}
