package models

import "time"

// Lineup tiers, named after batting order.
const (
	TierAtBat  = "at_bat"
	TierOnDeck = "on_deck"
	TierInHole = "in_hole"
	TierDugout = "dugout"
)

// LineupEntry is a ranked participant with an estimated hosting date.
type LineupEntry struct {
	Position      int         `json:"position"`
	Tier          string      `json:"tier"`
	EstimatedDate time.Time   `json:"estimated_date"`
	Participant   Participant `json:"participant"`
}

// Lineup partitions the full ranking for display.
type Lineup struct {
	AtBat  *LineupEntry  `json:"at_bat,omitempty"`
	OnDeck *LineupEntry  `json:"on_deck,omitempty"`
	InHole *LineupEntry  `json:"in_hole,omitempty"`
	Dugout []LineupEntry `json:"dugout"`
}
