package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents the access level carried in a bearer token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSecretary Role = "secretary"
	RoleMember    Role = "member"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	ParticipantID string `json:"participant_id"`
	Role          Role   `json:"role"`
	Email         string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSecretary, RoleMember:
		return true
	}
	return false
}

// IssuedToken is returned when an access token is minted.
type IssuedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Participant string    `json:"participant_id"`
	Role        Role      `json:"role"`
}
