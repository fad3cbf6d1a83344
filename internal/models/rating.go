package models

import "time"

// Rating is a per attendee request for, and eventually the value of, a
// post-event score.
type Rating struct {
	ID            string     `db:"id" json:"id"`
	EventID       string     `db:"event_id" json:"event_id"`
	ParticipantID string     `db:"participant_id" json:"participant_id"`
	Token         string     `db:"token" json:"-"`
	Value         *int       `db:"value" json:"value,omitempty"`
	Comment       *string    `db:"comment" json:"comment,omitempty"`
	RequestedAt   time.Time  `db:"requested_at" json:"requested_at"`
	SubmittedAt   *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
}
