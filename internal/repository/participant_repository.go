package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

const participantColumns = `id, name, email, category, rotation_counter, manual_rank, last_hosted_at, lifetime_host_count, created_at, updated_at`

// ParticipantRepository manages persistence for roster members.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs a ParticipantRepository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// List returns participants matching the provided filters.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")
	_, size, offset := normalisePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM participants WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d", participantColumns, where, size, offset)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM participants WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count participants: %w", err)
	}
	return participants, total, nil
}

// ListByCategory returns every participant in the category ordered by name.
func (r *ParticipantRepository) ListByCategory(ctx context.Context, category models.ParticipantCategory) ([]models.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE category = $1 ORDER BY name ASC", participantColumns)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, category); err != nil {
		return nil, fmt.Errorf("list %s participants: %w", category, err)
	}
	return participants, nil
}

// FindByID fetches a participant by ID.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE id = $1", participantColumns)
	var p models.Participant
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new participant.
func (r *ParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	const query = `INSERT INTO participants (id, name, email, category, rotation_counter, manual_rank, last_hosted_at, lifetime_host_count, created_at, updated_at)
        VALUES (:id, :name, :email, :category, :rotation_counter, :manual_rank, :last_hosted_at, :lifetime_host_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateContact, fmt.Sprintf("contact %s already registered", p.Email))
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

// Update modifies the profile fields of a participant. Rotation counters are
// only ever changed by reconciliation and the queue operations.
func (r *ParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE participants SET name = :name, email = :email, category = :category,
        manual_rank = CASE WHEN :category = 'regular' THEN manual_rank ELSE NULL END, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicateContact, fmt.Sprintf("contact %s already registered", p.Email))
		}
		return fmt.Errorf("update participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertByEmail inserts or refreshes participants keyed by contact address in
// one transaction.
func (r *ParticipantRepository) UpsertByEmail(ctx context.Context, participants []models.Participant) (created, updated int, err error) {
	if len(participants) == 0 {
		return 0, 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin roster import tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO participants (id, name, email, category, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        ON CONFLICT ((LOWER(email))) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category,
            manual_rank = CASE WHEN EXCLUDED.category = 'regular' THEN participants.manual_rank ELSE NULL END,
            updated_at = EXCLUDED.updated_at
        RETURNING (xmax = 0) AS inserted`
	now := time.Now().UTC()
	for _, p := range participants {
		var inserted bool
		if err = tx.QueryRowxContext(ctx, query, uuid.NewString(), p.Name, p.Email, p.Category, now).Scan(&inserted); err != nil {
			return 0, 0, fmt.Errorf("upsert participant %s: %w", p.Email, err)
		}
		if inserted {
			created++
		} else {
			updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit roster import tx: %w", err)
	}
	return created, updated, nil
}

// SetManualOrder pins the regular participants among ids to ranks 1..N in the
// given order and unpins everyone else. Unknown and non regular ids are
// skipped; if none remain nothing changes.
func (r *ParticipantRepository) SetManualOrder(ctx context.Context, ids []string) (pinned int, err error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin manual order tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var eligible []string
	if err = tx.SelectContext(ctx, &eligible, `SELECT id FROM participants WHERE id = ANY($1) AND category = $2 FOR UPDATE`, pq.Array(ids), models.CategoryRegular); err != nil {
		return 0, fmt.Errorf("lock participants for manual order: %w", err)
	}
	valid := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		valid[id] = struct{}{}
	}
	if len(valid) == 0 {
		_ = tx.Rollback()
		return 0, nil
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE participants SET manual_rank = NULL, updated_at = $1 WHERE manual_rank IS NOT NULL`, now); err != nil {
		return 0, fmt.Errorf("clear manual ranks: %w", err)
	}
	for _, id := range ids {
		if _, ok := valid[id]; !ok {
			continue
		}
		delete(valid, id)
		pinned++
		if _, err = tx.ExecContext(ctx, `UPDATE participants SET manual_rank = $1, updated_at = $2 WHERE id = $3`, pinned, now, id); err != nil {
			return 0, fmt.Errorf("pin participant %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit manual order tx: %w", err)
	}
	return pinned, nil
}

// ClearManualOrder unpins every participant.
func (r *ParticipantRepository) ClearManualOrder(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE participants SET manual_rank = NULL, updated_at = $1 WHERE manual_rank IS NOT NULL`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("clear manual order: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SwapRotation exchanges the rotation counters of two regular participants.
func (r *ParticipantRepository) SwapRotation(ctx context.Context, firstID, secondID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var rows []models.Participant
	query := fmt.Sprintf("SELECT %s FROM participants WHERE id IN (%s) ORDER BY id FOR UPDATE", participantColumns, placeholders(1, 2))
	if err = tx.SelectContext(ctx, &rows, query, firstID, secondID); err != nil {
		return fmt.Errorf("lock participants for swap: %w", err)
	}
	if len(rows) != 2 {
		err = appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		return err
	}
	for _, p := range rows {
		if !p.IsRegular() {
			err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("participant %s is not a regular", p.Name))
			return err
		}
	}

	now := time.Now().UTC()
	const update = `UPDATE participants SET rotation_counter = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, update, rows[1].RotationCounter, now, rows[0].ID); err != nil {
		return fmt.Errorf("swap rotation: %w", err)
	}
	if _, err = tx.ExecContext(ctx, update, rows[0].RotationCounter, now, rows[1].ID); err != nil {
		return fmt.Errorf("swap rotation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit swap tx: %w", err)
	}
	return nil
}
