package dto

// ConfirmHostingRequest is posted from the host's emailed link.
type ConfirmHostingRequest struct {
	VenueID string `json:"venue_id" validate:"required"`
}

// ConfirmVenueRequest is used by the secretary to set a venue directly.
type ConfirmVenueRequest struct {
	VenueID string `json:"venue_id" validate:"required"`
}

// SubmitRatingRequest is posted from an emailed rating link.
type SubmitRatingRequest struct {
	Value   int    `json:"value" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}
