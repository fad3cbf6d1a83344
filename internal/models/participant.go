package models

import "time"

// ParticipantCategory controls rotation eligibility.
type ParticipantCategory string

const (
	CategoryRegular  ParticipantCategory = "regular"
	CategoryGuest    ParticipantCategory = "guest"
	CategoryInactive ParticipantCategory = "inactive"
)

// Valid reports whether the category is one of the known values.
func (c ParticipantCategory) Valid() bool {
	switch c {
	case CategoryRegular, CategoryGuest, CategoryInactive:
		return true
	}
	return false
}

// Participant is a roster member stored in the participants table.
type Participant struct {
	ID                string              `db:"id" json:"id"`
	Name              string              `db:"name" json:"name"`
	Email             string              `db:"email" json:"email"`
	Category          ParticipantCategory `db:"category" json:"category"`
	RotationCounter   int                 `db:"rotation_counter" json:"rotation_counter"`
	ManualRank        *int                `db:"manual_rank" json:"manual_rank,omitempty"`
	LastHostedAt      *time.Time          `db:"last_hosted_at" json:"last_hosted_at,omitempty"`
	LifetimeHostCount int                 `db:"lifetime_host_count" json:"lifetime_host_count"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
}

// IsRegular reports whether the participant takes part in the hosting rotation.
func (p Participant) IsRegular() bool {
	return p.Category == CategoryRegular
}

// ParticipantFilter captures list filters for the roster.
type ParticipantFilter struct {
	Category *ParticipantCategory
	Search   string
	Page     int
	PageSize int
}
