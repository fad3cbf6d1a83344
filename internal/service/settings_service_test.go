package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type settingsRepoStub struct {
	values map[string]models.Setting
}

func newSettingsRepoStub() *settingsRepoStub {
	return &settingsRepoStub{values: map[string]models.Setting{}}
}

func (s *settingsRepoStub) List(ctx context.Context) ([]models.Setting, error) {
	out := make([]models.Setting, 0, len(s.values))
	for _, v := range s.values {
		out = append(out, v)
	}
	return out, nil
}

func (s *settingsRepoStub) Get(ctx context.Context, key string) (*models.Setting, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

func (s *settingsRepoStub) Upsert(ctx context.Context, setting *models.Setting) error {
	s.values[setting.Key] = *setting
	return nil
}

func newSettingsFixture(fallback string) (*SettingsService, *settingsRepoStub) {
	roster := newRosterStub(
		models.Participant{ID: "sec", Name: "Sue"},
		models.Participant{ID: "reg", Name: "Rex"},
		models.Participant{ID: "guest", Name: "Gus", Category: models.CategoryGuest},
	)
	repo := newSettingsRepoStub()
	return NewSettingsService(repo, roster, fallback, nil), repo
}

func TestSettingsSecretaryMissingIsConfigurationError(t *testing.T) {
	svc, _ := newSettingsFixture("")

	_, err := svc.Secretary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
}

func TestSettingsSecretaryFallsBackToConfig(t *testing.T) {
	svc, _ := newSettingsFixture("sec")

	secretary, err := svc.Secretary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sue", secretary.Name)
}

func TestSettingsSecretaryPointingAtDeletedParticipant(t *testing.T) {
	svc, repo := newSettingsFixture("")
	repo.values[models.SettingSecretaryID] = models.Setting{Key: models.SettingSecretaryID, Value: "gone"}

	_, err := svc.Secretary(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
}

func TestSettingsSetSecretaryRequiresRegular(t *testing.T) {
	svc, repo := newSettingsFixture("")
	ctx := context.Background()

	_, err := svc.SetSecretary(ctx, "guest", "admin")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.SetSecretary(ctx, "nobody", "admin")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	p, err := svc.SetSecretary(ctx, "sec", "admin")
	require.NoError(t, err)
	assert.Equal(t, "sec", p.ID)
	assert.Equal(t, "sec", repo.values[models.SettingSecretaryID].Value)
	assert.Equal(t, "admin", *repo.values[models.SettingSecretaryID].UpdatedBy)
}

func TestSettingsTransferSecretary(t *testing.T) {
	svc, repo := newSettingsFixture("")
	ctx := context.Background()
	_, err := svc.SetSecretary(ctx, "sec", "")
	require.NoError(t, err)

	_, err = svc.TransferSecretary(ctx, &models.JWTClaims{ParticipantID: "reg", Role: models.RoleMember}, "reg")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.TransferSecretary(ctx, &models.JWTClaims{ParticipantID: "sec", Role: models.RoleSecretary}, "sec")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.TransferSecretary(ctx, &models.JWTClaims{ParticipantID: "sec", Role: models.RoleSecretary}, "guest")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	p, err := svc.TransferSecretary(ctx, &models.JWTClaims{ParticipantID: "sec", Role: models.RoleSecretary}, "reg")
	require.NoError(t, err)
	assert.Equal(t, "reg", p.ID)
	assert.Equal(t, "reg", repo.values[models.SettingSecretaryID].Value)

	p, err = svc.TransferSecretary(ctx, &models.JWTClaims{ParticipantID: "root", Role: models.RoleAdmin}, "sec")
	require.NoError(t, err)
	assert.Equal(t, "sec", p.ID)
}
