package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

// AttendanceRepository stores attendance facts and applies reconciliation
// atomically.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByEvent returns the recorded facts for an event.
func (r *AttendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]models.AttendanceFact, error) {
	const query = `SELECT event_id, participant_id, was_host, rotation_before, created_at
        FROM attendance_facts WHERE event_id = $1 ORDER BY created_at ASC, participant_id ASC`
	var facts []models.AttendanceFact
	if err := r.db.SelectContext(ctx, &facts, query, eventID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return facts, nil
}

// ListAttendees returns the participants recorded as attending an event.
func (r *AttendanceRepository) ListAttendees(ctx context.Context, eventID string) ([]models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants
        WHERE id IN (SELECT participant_id FROM attendance_facts WHERE event_id = $1)
        ORDER BY name ASC`, participantColumns)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, eventID); err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return participants, nil
}

// Reconcile locks the event and every participant touched by the old or new
// attendance set, asks plan for the outcome and applies it in one
// transaction. The updated event, the plan and the refreshed participants are
// returned.
func (r *AttendanceRepository) Reconcile(ctx context.Context, eventID string, attendeeIDs []string, plan models.ReconcileFunc) (result *models.AttendanceResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reconcile tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var event models.Event
	if err = tx.GetContext(ctx, &event, fmt.Sprintf("SELECT %s FROM events WHERE id = $1 FOR UPDATE", eventColumns), eventID); err != nil {
		return nil, err
	}

	var previous []models.AttendanceFact
	if err = tx.SelectContext(ctx, &previous, `SELECT event_id, participant_id, was_host, rotation_before, created_at
        FROM attendance_facts WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("load previous attendance: %w", err)
	}

	touched := unionIDs(attendeeIDs, previous)
	var locked []models.Participant
	if len(touched) > 0 {
		query := fmt.Sprintf("SELECT %s FROM participants WHERE id = ANY($1) ORDER BY id FOR UPDATE", participantColumns)
		if err = tx.SelectContext(ctx, &locked, query, pq.Array(touched)); err != nil {
			return nil, fmt.Errorf("lock participants: %w", err)
		}
	}
	byID := make(map[string]models.Participant, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	outcome, err := plan(event, previous, byID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance_facts WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("clear attendance: %w", err)
	}
	const insertFact = `INSERT INTO attendance_facts (event_id, participant_id, was_host, rotation_before, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	for _, fact := range outcome.Facts {
		if _, err = tx.ExecContext(ctx, insertFact, eventID, fact.ParticipantID, fact.WasHost, fact.RotationBefore, now); err != nil {
			return nil, fmt.Errorf("insert attendance for %s: %w", fact.ParticipantID, err)
		}
	}

	const updateCounters = `UPDATE participants SET
        rotation_counter = CASE WHEN $2 THEN 0 ELSE GREATEST(rotation_counter + $3, 0) END,
        lifetime_host_count = GREATEST(lifetime_host_count + $4, 0),
        last_hosted_at = COALESCE($5, last_hosted_at),
        updated_at = $6
        WHERE id = $1`
	for _, d := range outcome.Deltas {
		if d.IsZero() {
			continue
		}
		if _, err = tx.ExecContext(ctx, updateCounters, d.ParticipantID, d.ResetRotation, d.RotationDelta, d.HostDelta, d.LastHostedAt, now); err != nil {
			return nil, fmt.Errorf("update counters for %s: %w", d.ParticipantID, err)
		}
	}

	if event.Status != models.EventCompleted && event.VenueID != nil {
		const visit = `UPDATE venues SET visit_count = visit_count + 1,
            last_visited = GREATEST(COALESCE(last_visited, $2), $2), updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, visit, *event.VenueID, event.Date, now); err != nil {
			return nil, fmt.Errorf("record venue visit: %w", err)
		}
	}

	var hostID *string
	for _, fact := range outcome.Facts {
		if fact.WasHost {
			id := fact.ParticipantID
			hostID = &id
		}
	}
	var updated models.Event
	completeEvent := fmt.Sprintf(`UPDATE events SET attendee_count = $2, host_id = $3, status = $4,
        completed_at = COALESCE(completed_at, $5), updated_at = $5
        WHERE id = $1 RETURNING %s`, eventColumns)
	if err = tx.GetContext(ctx, &updated, completeEvent, eventID, len(outcome.Facts), hostID, models.EventCompleted, now); err != nil {
		return nil, fmt.Errorf("complete event: %w", err)
	}

	var refreshed []models.Participant
	if len(touched) > 0 {
		query := fmt.Sprintf("SELECT %s FROM participants WHERE id = ANY($1) ORDER BY name ASC", participantColumns)
		if err = tx.SelectContext(ctx, &refreshed, query, pq.Array(touched)); err != nil {
			return nil, fmt.Errorf("reload participants: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reconcile tx: %w", err)
	}
	return &models.AttendanceResult{Event: &updated, Plan: outcome, Participants: refreshed}, nil
}

func unionIDs(ids []string, facts []models.AttendanceFact) []string {
	seen := make(map[string]struct{}, len(ids)+len(facts))
	out := make([]string, 0, len(ids)+len(facts))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, f := range facts {
		if _, ok := seen[f.ParticipantID]; !ok {
			seen[f.ParticipantID] = struct{}{}
			out = append(out, f.ParticipantID)
		}
	}
	return out
}
