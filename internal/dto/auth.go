package dto

// IssueTokenRequest mints an access token for a participant.
type IssueTokenRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Role          string `json:"role" validate:"required,oneof=admin secretary member"`
}
