package models

import "time"

// EventStatus tracks the lifecycle of a weekly event.
type EventStatus string

const (
	EventPlanned   EventStatus = "planned"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is one calendar week's lunch.
type Event struct {
	ID                string      `db:"id" json:"id"`
	Date              time.Time   `db:"event_date" json:"date"`
	HostID            *string     `db:"host_id" json:"host_id,omitempty"`
	VenueID           *string     `db:"venue_id" json:"venue_id,omitempty"`
	VenueConfirmed    bool        `db:"venue_confirmed" json:"venue_confirmed"`
	HostAcknowledged  bool        `db:"host_acknowledged" json:"host_acknowledged"`
	Status            EventStatus `db:"status" json:"status"`
	ConfirmationToken *string     `db:"confirmation_token" json:"-"`
	AttendeeCount     *int        `db:"attendee_count" json:"attendee_count,omitempty"`
	CompletedAt       *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// Ready reports whether the host has both acknowledged and confirmed a venue.
func (e Event) Ready() bool {
	return e.VenueConfirmed && e.HostAcknowledged
}

// HasConfirmedVenue reports whether the event can be announced.
func (e Event) HasConfirmedVenue() bool {
	return e.VenueID != nil && e.VenueConfirmed
}

// EventDetail bundles an event with its resolved host and venue.
type EventDetail struct {
	Event
	Host  *Participant `json:"host,omitempty"`
	Venue *Venue       `json:"venue,omitempty"`
}
