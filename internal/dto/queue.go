package dto

// ManualOrderRequest pins participants in the given order.
type ManualOrderRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1,dive,required"`
}

// SwapRequest exchanges rotation counters between two regulars.
type SwapRequest struct {
	FirstID  string `json:"first_id" validate:"required"`
	SecondID string `json:"second_id" validate:"required"`
}
