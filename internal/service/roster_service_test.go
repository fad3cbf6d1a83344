package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

func (s *rosterStub) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (s *rosterStub) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []models.Participant
	for _, p := range s.items {
		if filter.Category == nil || p.Category == *filter.Category {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (s *rosterStub) emailTaken(email, except string) bool {
	for _, p := range s.items {
		if p.Email == email && p.ID != except {
			return true
		}
	}
	return false
}

func (s *rosterStub) Create(ctx context.Context, p *models.Participant) error {
	if s.emailTaken(p.Email, "") {
		return appErrors.Clone(appErrors.ErrDuplicateContact, "taken")
	}
	p.ID = fmt.Sprintf("p-%d", len(s.items)+1)
	clone := *p
	s.items[p.ID] = &clone
	return nil
}

func (s *rosterStub) Update(ctx context.Context, p *models.Participant) error {
	if _, ok := s.items[p.ID]; !ok {
		return sql.ErrNoRows
	}
	if s.emailTaken(p.Email, p.ID) {
		return appErrors.Clone(appErrors.ErrDuplicateContact, "taken")
	}
	clone := *p
	s.items[p.ID] = &clone
	return nil
}

func (s *rosterStub) UpsertByEmail(ctx context.Context, participants []models.Participant) (int, int, error) {
	var created, updated int
	for _, in := range participants {
		found := false
		for _, p := range s.items {
			if p.Email == in.Email {
				p.Name, p.Category = in.Name, in.Category
				found = true
				updated++
			}
		}
		if !found {
			row := in
			row.ID = fmt.Sprintf("p-%d", len(s.items)+1)
			s.items[row.ID] = &row
			created++
		}
	}
	return created, updated, nil
}

func TestRosterCreateDefaultsToRegular(t *testing.T) {
	roster := newRosterStub()
	svc := NewRosterService(roster, nil, nil)

	p, err := svc.Create(context.Background(), dto.CreateParticipantRequest{Name: " Ann ", Email: "Ann@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryRegular, p.Category)
	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, "ann@example.com", p.Email)

	_, err = svc.Create(context.Background(), dto.CreateParticipantRequest{Name: "Other Ann", Email: "ann@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateContact))
}

func TestRosterCreateRejectsInvalidPayload(t *testing.T) {
	svc := NewRosterService(newRosterStub(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateParticipantRequest{Name: "Ann", Email: "not-an-email"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateParticipantRequest{Name: "Ann", Email: "a@b.co", Category: "vip"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRosterAddGuest(t *testing.T) {
	roster := newRosterStub()
	svc := NewRosterService(roster, nil, nil)

	guest, err := svc.AddGuest(context.Background(), dto.QuickAddGuestRequest{Name: "Gus", Email: "gus@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGuest, guest.Category)
	assert.Contains(t, roster.items, guest.ID)
}

func TestRosterUpdateDemotionClearsPin(t *testing.T) {
	roster := newRosterStub(models.Participant{ID: "a", Name: "Ann", Email: "ann@example.com", ManualRank: pin(1)})
	svc := NewRosterService(roster, nil, nil)
	inactive := string(models.CategoryInactive)

	p, err := svc.Update(context.Background(), "a", dto.UpdateParticipantRequest{Category: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryInactive, p.Category)
	assert.Nil(t, p.ManualRank)

	_, err = svc.Update(context.Background(), "missing", dto.UpdateParticipantRequest{Category: &inactive})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestRosterImportUpsertsByEmail(t *testing.T) {
	roster := newRosterStub(models.Participant{ID: "a", Name: "Ann", Email: "ann@example.com"})
	svc := NewRosterService(roster, nil, nil)

	result, err := svc.Import(context.Background(), dto.ImportRosterRequest{Participants: []dto.CreateParticipantRequest{
		{Name: "Ann B", Email: "ANN@example.com"},
		{Name: "Ben", Email: "ben@example.com", Category: "guest"},
	}})
	require.NoError(t, err)
	assert.Equal(t, dto.ImportRosterResult{Created: 1, Updated: 1}, *result)
	assert.Equal(t, "Ann B", roster.items["a"].Name)

	_, err = svc.Import(context.Background(), dto.ImportRosterRequest{Participants: []dto.CreateParticipantRequest{
		{Name: "Cat", Email: "cat@example.com"},
		{Name: "Cat 2", Email: "Cat@example.com"},
	}})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateContact))
}

func TestRosterListPagination(t *testing.T) {
	roster := newRosterStub(models.Participant{ID: "a", Name: "Ann"}, models.Participant{ID: "b", Name: "Ben", Category: models.CategoryGuest})
	svc := NewRosterService(roster, nil, nil)
	guest := models.CategoryGuest

	items, page, err := svc.List(context.Background(), models.ParticipantFilter{Category: &guest, PageSize: 500})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, page)

	bogus := models.ParticipantCategory("vip")
	_, _, err = svc.List(context.Background(), models.ParticipantFilter{Category: &bogus})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
