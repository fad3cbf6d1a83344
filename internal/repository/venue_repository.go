package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

const venueColumns = `id, name, address, phone, cuisine, price_level, visit_count, last_visited, avg_group_rating, created_at, updated_at`

// VenueRepository persists restaurants.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs the repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// List returns venues, most visited first.
func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues ORDER BY visit_count DESC, name ASC", venueColumns)
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// FindByID fetches a venue.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE id = $1", venueColumns)
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// Create inserts a venue.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now
	const query = `INSERT INTO venues (id, name, address, phone, cuisine, price_level, created_at, updated_at)
        VALUES (:id, :name, :address, :phone, :cuisine, :price_level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

// Update modifies the descriptive fields of a venue.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	venue.UpdatedAt = time.Now().UTC()
	const query = `UPDATE venues SET name = :name, address = :address, phone = :phone, cuisine = :cuisine,
        price_level = :price_level, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, venue)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
