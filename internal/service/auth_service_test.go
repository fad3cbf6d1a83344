package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

func newAuthService() *AuthService {
	roster := newRosterStub(models.Participant{ID: "sec", Name: "Sue", Email: "sue@example.com"})
	return NewAuthService(roster, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "lunch-rotation-api"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuthService()

	issued, err := svc.IssueToken(context.Background(), "sec", models.RoleSecretary)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.AccessToken)

	claims, err := svc.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "sec", claims.ParticipantID)
	assert.Equal(t, models.RoleSecretary, claims.Role)
	assert.Equal(t, "sue@example.com", claims.Email)
}

func TestAuthServiceIssueValidation(t *testing.T) {
	svc := newAuthService()

	_, err := svc.IssueToken(context.Background(), "sec", models.Role("root"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.IssueToken(context.Background(), "nobody", models.RoleMember)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc := newAuthService()

	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	other := NewAuthService(newRosterStub(models.Participant{ID: "sec"}), nil, AuthConfig{AccessTokenSecret: "other", Issuer: "lunch-rotation-api"})
	issued, err := other.IssueToken(context.Background(), "sec", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(issued.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		ParticipantID: "sec",
		Role:          models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lunch-rotation-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
