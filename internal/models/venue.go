package models

import "time"

// Venue is a restaurant the group has visited or may visit.
type Venue struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Address        string     `db:"address" json:"address"`
	Phone          string     `db:"phone" json:"phone"`
	Cuisine        string     `db:"cuisine" json:"cuisine"`
	PriceLevel     int        `db:"price_level" json:"price_level"`
	VisitCount     int        `db:"visit_count" json:"visit_count"`
	LastVisited    *time.Time `db:"last_visited" json:"last_visited,omitempty"`
	AvgGroupRating *float64   `db:"avg_group_rating" json:"avg_group_rating,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
