package models

import "time"

// Setting keys understood by the settings provider.
const (
	SettingSecretaryID = "secretary_participant_id"
)

// Setting is a persisted key/value pair.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
