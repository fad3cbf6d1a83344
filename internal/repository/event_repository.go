package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

const eventColumns = `id, event_date, host_id, venue_id, venue_confirmed, host_acknowledged, status, confirmation_token, attendee_count, completed_at, created_at, updated_at`

// EventRepository persists weekly event rows, one per date.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// FindByID fetches an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	return r.getOne(ctx, "id = $1", id)
}

// FindByDate fetches the event for a calendar date.
func (r *EventRepository) FindByDate(ctx context.Context, date time.Time) (*models.Event, error) {
	return r.getOne(ctx, "event_date = $1", date)
}

// FindByConfirmationToken resolves a host confirmation token.
func (r *EventRepository) FindByConfirmationToken(ctx context.Context, token string) (*models.Event, error) {
	return r.getOne(ctx, "confirmation_token = $1", token)
}

func (r *EventRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE %s", eventColumns, where)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, arg); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetOrCreate returns the event for date, inserting a planned row when none
// exists. Concurrent callers converge on the same row through the unique
// constraint on event_date.
func (r *EventRepository) GetOrCreate(ctx context.Context, date time.Time) (*models.Event, error) {
	now := time.Now().UTC()
	const insert = `INSERT INTO events (id, event_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        ON CONFLICT (event_date) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), date, models.EventPlanned, now); err != nil {
		return nil, fmt.Errorf("insert event %s: %w", date.Format("2006-01-02"), err)
	}
	event, err := r.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", date.Format("2006-01-02"), err)
	}
	return event, nil
}

// ListBetween returns events whose date falls within [from, to].
func (r *EventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE event_date BETWEEN $1 AND $2 ORDER BY event_date ASC", eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// RecentAttendeeCounts returns attendee counts of the most recent completed
// events, newest first.
func (r *EventRepository) RecentAttendeeCounts(ctx context.Context, limit int) ([]int, error) {
	const query = `SELECT attendee_count FROM events
        WHERE status = $1 AND attendee_count IS NOT NULL
        ORDER BY event_date DESC LIMIT $2`
	var counts []int
	if err := r.db.SelectContext(ctx, &counts, query, models.EventCompleted, limit); err != nil {
		return nil, fmt.Errorf("recent attendee counts: %w", err)
	}
	return counts, nil
}

// AssignHostIfEmpty sets the host unless one is already assigned and returns
// the resulting event.
func (r *EventRepository) AssignHostIfEmpty(ctx context.Context, eventID, hostID string) (*models.Event, error) {
	query := fmt.Sprintf(`UPDATE events SET host_id = COALESCE(host_id, $2), updated_at = $3
        WHERE id = $1 RETURNING %s`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, eventID, hostID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &event, nil
}

// EnsureConfirmationToken stores token unless the event already has one and
// returns whichever token is in effect.
func (r *EventRepository) EnsureConfirmationToken(ctx context.Context, eventID, token string) (string, error) {
	const query = `UPDATE events SET confirmation_token = COALESCE(confirmation_token, $2), updated_at = $3
        WHERE id = $1 RETURNING confirmation_token`
	var stored string
	if err := r.db.GetContext(ctx, &stored, query, eventID, token, time.Now().UTC()); err != nil {
		return "", err
	}
	return stored, nil
}

// ConfirmVenue records the venue for an event. When acknowledge is true the
// host acknowledgement is set in the same statement.
func (r *EventRepository) ConfirmVenue(ctx context.Context, eventID, venueID string, acknowledge bool) (*models.Event, error) {
	query := fmt.Sprintf(`UPDATE events SET venue_id = $2, venue_confirmed = TRUE,
        host_acknowledged = host_acknowledged OR $3, updated_at = $4
        WHERE id = $1 RETURNING %s`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, eventID, venueID, acknowledge, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("confirm venue: %w", err)
	}
	return &event, nil
}

// Cancel marks a planned event as cancelled.
func (r *EventRepository) Cancel(ctx context.Context, eventID string) (*models.Event, error) {
	query := fmt.Sprintf(`UPDATE events SET status = $2, updated_at = $3
        WHERE id = $1 AND status = $4 RETURNING %s`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, eventID, models.EventCancelled, time.Now().UTC(), models.EventPlanned); err != nil {
		return nil, err
	}
	return &event, nil
}
