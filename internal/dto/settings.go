package dto

// SecretaryRequest designates the secretary.
type SecretaryRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}
