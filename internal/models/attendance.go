package models

import "time"

// AttendanceFact records that a participant attended an event.
type AttendanceFact struct {
	EventID       string `db:"event_id" json:"event_id"`
	ParticipantID string `db:"participant_id" json:"participant_id"`
	WasHost       bool   `db:"was_host" json:"was_host"`
	// RotationBefore holds the host's rotation counter at the moment it was
	// reset, so a retracted hosting can be undone exactly.
	RotationBefore *int      `db:"rotation_before" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CounterDelta is the per participant change produced by reconciliation.
type CounterDelta struct {
	ParticipantID string     `json:"participant_id"`
	RotationDelta int        `json:"rotation_delta"`
	ResetRotation bool       `json:"reset_rotation"`
	HostDelta     int        `json:"host_delta"`
	LastHostedAt  *time.Time `json:"last_hosted_at,omitempty"`
}

// IsZero reports whether applying the delta would change nothing.
func (d CounterDelta) IsZero() bool {
	return d.RotationDelta == 0 && !d.ResetRotation && d.HostDelta == 0 && d.LastHostedAt == nil
}

// ReconcilePlan is the full outcome of diffing a resubmitted attendance set.
type ReconcilePlan struct {
	Facts   []AttendanceFact `json:"-"`
	Deltas  []CounterDelta   `json:"deltas"`
	Added   []string         `json:"added"`
	Removed []string         `json:"removed"`
	Kept    []string         `json:"kept"`
}

// ReconcileFunc derives the new facts and counter deltas from the locked
// state of an event. It must not perform I/O.
type ReconcileFunc func(event Event, previous []AttendanceFact, participants map[string]Participant) (ReconcilePlan, error)

// AttendanceResult is returned after attendance has been recorded.
type AttendanceResult struct {
	Event        *Event        `json:"event"`
	Plan         ReconcilePlan `json:"plan"`
	Participants []Participant `json:"participants"`
}
