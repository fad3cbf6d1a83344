package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

const ratingColumns = `id, event_id, participant_id, token, value, comment, requested_at, submitted_at`

// RatingRepository stores rating requests and submitted scores.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository constructs the repository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// EnsureRequest creates the rating row for (event, participant) with token
// unless it already exists, and returns the stored row.
func (r *RatingRepository) EnsureRequest(ctx context.Context, eventID, participantID, token string) (*models.Rating, error) {
	const insert = `INSERT INTO ratings (id, event_id, participant_id, token, requested_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (event_id, participant_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), eventID, participantID, token, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert rating request: %w", err)
	}
	query := fmt.Sprintf("SELECT %s FROM ratings WHERE event_id = $1 AND participant_id = $2", ratingColumns)
	var rating models.Rating
	if err := r.db.GetContext(ctx, &rating, query, eventID, participantID); err != nil {
		return nil, fmt.Errorf("fetch rating request: %w", err)
	}
	return &rating, nil
}

// RatedParticipantIDs lists participants who already submitted a value.
func (r *RatingRepository) RatedParticipantIDs(ctx context.Context, eventID string) ([]string, error) {
	const query = `SELECT participant_id FROM ratings WHERE event_id = $1 AND value IS NOT NULL`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, eventID); err != nil {
		return nil, fmt.Errorf("list rated participants: %w", err)
	}
	return ids, nil
}

// ListByEvent returns every rating row of an event.
func (r *RatingRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Rating, error) {
	query := fmt.Sprintf("SELECT %s FROM ratings WHERE event_id = $1 ORDER BY requested_at ASC", ratingColumns)
	var ratings []models.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, eventID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// Submit stores the value for the rating identified by token and refreshes
// the average group rating of the event's venue in the same transaction.
func (r *RatingRepository) Submit(ctx context.Context, token string, value int, comment *string) (rating *models.Rating, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var stored models.Rating
	query := fmt.Sprintf(`UPDATE ratings SET value = $2, comment = $3, submitted_at = $4
        WHERE token = $1 RETURNING %s`, ratingColumns)
	if err = tx.GetContext(ctx, &stored, query, token, value, comment, time.Now().UTC()); err != nil {
		return nil, err
	}

	const refresh = `UPDATE venues v SET avg_group_rating = sub.avg_rating, updated_at = $2
        FROM (
            SELECT e.venue_id, ROUND(AVG(r.value)::numeric, 2) AS avg_rating
            FROM ratings r JOIN events e ON e.id = r.event_id
            WHERE e.venue_id = (SELECT venue_id FROM events WHERE id = $1) AND r.value IS NOT NULL
            GROUP BY e.venue_id
        ) sub
        WHERE v.id = sub.venue_id`
	if _, err = tx.ExecContext(ctx, refresh, stored.EventID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("refresh venue rating: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}
	return &stored, nil
}
