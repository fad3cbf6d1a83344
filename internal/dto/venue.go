package dto

// VenueRequest creates or updates a venue.
type VenueRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Address    string `json:"address" validate:"omitempty,max=300"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	Cuisine    string `json:"cuisine" validate:"omitempty,max=80"`
	PriceLevel int    `json:"price_level" validate:"omitempty,min=1,max=4"`
}
