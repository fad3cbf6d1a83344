package dto

// CreateParticipantRequest adds a roster member.
type CreateParticipantRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Category string `json:"category" validate:"omitempty,oneof=regular guest inactive"`
}

// UpdateParticipantRequest edits a roster member.
type UpdateParticipantRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Category *string `json:"category" validate:"omitempty,oneof=regular guest inactive"`
}

// QuickAddGuestRequest registers a guest while attendance is being taken.
type QuickAddGuestRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
}

// ImportRosterRequest upserts participants by contact address.
type ImportRosterRequest struct {
	Participants []CreateParticipantRequest `json:"participants" validate:"required,min=1,dive"`
}

// ImportRosterResult reports how an import was applied.
type ImportRosterResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
