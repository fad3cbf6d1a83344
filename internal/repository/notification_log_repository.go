package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

const notificationColumns = `id, event_id, job_type, recipient_email, recipient_name, subject, status, provider_message_id, error_message, created_at, updated_at`

// NotificationLogRepository is the idempotence ledger for outbound email.
type NotificationLogRepository struct {
	db             *sqlx.DB
	pendingTimeout time.Duration
}

// NewNotificationLogRepository constructs the repository. Pending rows older
// than pendingTimeout are treated as abandoned and released on the next
// claim for the same slot; zero keeps them forever.
func NewNotificationLogRepository(db *sqlx.DB, pendingTimeout time.Duration) *NotificationLogRepository {
	return &NotificationLogRepository{db: db, pendingTimeout: pendingTimeout}
}

// Claim atomically reserves the (event, job, recipient) slot by inserting a
// pending row. When a pending or sent row already holds the slot a
// skipped_duplicate row is appended instead and claimed is false.
func (r *NotificationLogRepository) Claim(ctx context.Context, entry *models.NotificationLogEntry) (claimed bool, err error) {
	now := time.Now().UTC()
	if r.pendingTimeout > 0 {
		if err = r.releaseStale(ctx, entry, now.Add(-r.pendingTimeout), now); err != nil {
			return false, err
		}
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.Status = models.NotificationPending

	const claim = `INSERT INTO notification_log (id, event_id, job_type, recipient_email, recipient_name, subject, status, created_at, updated_at)
        VALUES ($1, $2, $3, LOWER($4), $5, $6, $7, $8, $8)
        ON CONFLICT (COALESCE(event_id, '00000000-0000-0000-0000-000000000000'::uuid), job_type, recipient_email)
        WHERE status IN ('pending','sent') DO NOTHING
        RETURNING id`
	var id string
	err = r.db.GetContext(ctx, &id, claim, entry.ID, entry.EventID, entry.JobType, entry.RecipientEmail, entry.RecipientName, entry.Subject, models.NotificationPending, now)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("claim notification slot: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.Status = models.NotificationSkippedDuplicate
	const duplicate = `INSERT INTO notification_log (id, event_id, job_type, recipient_email, recipient_name, subject, status, created_at, updated_at)
        VALUES ($1, $2, $3, LOWER($4), $5, $6, $7, $8, $8)`
	if _, err = r.db.ExecContext(ctx, duplicate, entry.ID, entry.EventID, entry.JobType, entry.RecipientEmail, entry.RecipientName, entry.Subject, models.NotificationSkippedDuplicate, now); err != nil {
		return false, fmt.Errorf("record duplicate notification: %w", err)
	}
	return false, nil
}

// releaseStale fails pending rows for the slot that were claimed before the
// cutoff and never finalised, so the slot can be claimed again.
func (r *NotificationLogRepository) releaseStale(ctx context.Context, entry *models.NotificationLogEntry, cutoff, now time.Time) error {
	const query = `UPDATE notification_log SET status = $5, error_message = $6, updated_at = $7
        WHERE event_id IS NOT DISTINCT FROM $1 AND job_type = $2 AND recipient_email = LOWER($3)
        AND status = 'pending' AND updated_at < $4`
	if _, err := r.db.ExecContext(ctx, query, entry.EventID, entry.JobType, entry.RecipientEmail, cutoff,
		models.NotificationFailed, "claim expired before delivery was recorded", now); err != nil {
		return fmt.Errorf("release stale notification claim: %w", err)
	}
	return nil
}

// MarkSent finalises a claimed row.
func (r *NotificationLogRepository) MarkSent(ctx context.Context, id, providerMessageID string) error {
	const query = `UPDATE notification_log SET status = $2, provider_message_id = NULLIF($3, ''), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationSent, providerMessageID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed releases a claimed slot so a later run may retry it.
func (r *NotificationLogRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE notification_log SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// List returns log entries matching the filter, newest first.
func (r *NotificationLogRepository) List(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLogEntry, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.EventID != "" {
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)+1))
		args = append(args, filter.EventID)
	}
	if filter.JobType != "" {
		conditions = append(conditions, fmt.Sprintf("job_type LIKE $%d", len(args)+1))
		args = append(args, filter.JobType+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	where := strings.Join(conditions, " AND ")
	_, size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM notification_log WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", notificationColumns, where, size, offset)
	var entries []models.NotificationLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notification log: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notification_log WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count notification log: %w", err)
	}
	return entries, total, nil
}
