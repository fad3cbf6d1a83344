package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

// rosterStub is an in-memory participant store shared by service tests.
type rosterStub struct {
	items map[string]*models.Participant
	err   error
}

func newRosterStub(participants ...models.Participant) *rosterStub {
	s := &rosterStub{items: map[string]*models.Participant{}}
	for i := range participants {
		p := participants[i]
		if p.Category == "" {
			p.Category = models.CategoryRegular
		}
		s.items[p.ID] = &p
	}
	return s
}

func (s *rosterStub) ListByCategory(ctx context.Context, category models.ParticipantCategory) ([]models.Participant, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Participant
	for _, p := range s.items {
		if p.Category == category {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *rosterStub) SetManualOrder(ctx context.Context, ids []string) (int, error) {
	var valid []string
	for _, id := range ids {
		if p, ok := s.items[id]; ok && p.IsRegular() {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}
	for _, p := range s.items {
		p.ManualRank = nil
	}
	for i, id := range valid {
		rank := i + 1
		s.items[id].ManualRank = &rank
	}
	return len(valid), nil
}

func (s *rosterStub) ClearManualOrder(ctx context.Context) (int64, error) {
	var n int64
	for _, p := range s.items {
		if p.ManualRank != nil {
			n++
		}
		p.ManualRank = nil
	}
	return n, nil
}

func (s *rosterStub) SwapRotation(ctx context.Context, firstID, secondID string) error {
	a, okA := s.items[firstID]
	b, okB := s.items[secondID]
	if !okA || !okB {
		return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
	}
	if !a.IsRegular() || !b.IsRegular() {
		return appErrors.Clone(appErrors.ErrValidation, "not a regular")
	}
	a.RotationCounter, b.RotationCounter = b.RotationCounter, a.RotationCounter
	return nil
}

func names(ps []models.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func pin(rank int) *int {
	return &rank
}

func TestRankParticipantsPinnedFirstThenCounterThenName(t *testing.T) {
	roster := []models.Participant{
		{ID: "a", Name: "Alice", Category: models.CategoryRegular, RotationCounter: 3},
		{ID: "b", Name: "Bob", Category: models.CategoryRegular, RotationCounter: 5, ManualRank: pin(1)},
		{ID: "c", Name: "Carol", Category: models.CategoryRegular, RotationCounter: 5},
		{ID: "d", Name: "Dave", Category: models.CategoryRegular, RotationCounter: 3},
		{ID: "g", Name: "Gus", Category: models.CategoryGuest, RotationCounter: 99},
		{ID: "i", Name: "Ivy", Category: models.CategoryInactive, RotationCounter: 99},
	}

	assert.Equal(t, []string{"Bob", "Carol", "Alice"}, names(RankParticipants(roster[:3], 3)))
	assert.Equal(t, []string{"Bob", "Carol", "Alice", "Dave"}, names(RankParticipants(roster, 0)))
	assert.Equal(t, []string{"Bob", "Carol"}, names(RankParticipants(roster, 2)))
}

func TestRankParticipantsIsDeterministic(t *testing.T) {
	roster := []models.Participant{
		{ID: "1", Name: "Zed", Category: models.CategoryRegular, RotationCounter: 2},
		{ID: "2", Name: "Amy", Category: models.CategoryRegular, RotationCounter: 2},
		{ID: "3", Name: "Kim", Category: models.CategoryRegular, RotationCounter: 7, ManualRank: pin(2)},
		{ID: "4", Name: "Lou", Category: models.CategoryRegular, RotationCounter: 0, ManualRank: pin(1)},
	}
	reversed := []models.Participant{roster[3], roster[2], roster[1], roster[0]}

	first := names(RankParticipants(roster, 0))
	assert.Equal(t, first, names(RankParticipants(roster, 0)))
	assert.Equal(t, first, names(RankParticipants(reversed, 0)))
	assert.Equal(t, []string{"Lou", "Kim", "Amy", "Zed"}, first)
}

func TestRankingServicePinPrecedenceAndClear(t *testing.T) {
	roster := newRosterStub(
		models.Participant{ID: "a", Name: "Alice", RotationCounter: 1},
		models.Participant{ID: "b", Name: "Bob", RotationCounter: 9},
		models.Participant{ID: "c", Name: "Carol", RotationCounter: 4},
		models.Participant{ID: "g", Name: "Gus", Category: models.CategoryGuest},
	)
	svc := NewRankingService(roster, NewEventCalendar(nil, time.Tuesday, time.UTC), nil)
	ctx := context.Background()

	ranked, err := svc.SetManualOrder(ctx, []string{"a", "g", "missing", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names(ranked))

	once, err := svc.ClearManualOrder(ctx)
	require.NoError(t, err)
	twice, err := svc.ClearManualOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, names(once), names(twice))
	assert.Equal(t, []string{"Bob", "Carol", "Alice"}, names(twice))
}

func TestRankingServiceSetManualOrderAllInvalidKeepsPins(t *testing.T) {
	roster := newRosterStub(
		models.Participant{ID: "a", Name: "Alice", RotationCounter: 1, ManualRank: pin(1)},
		models.Participant{ID: "b", Name: "Bob", RotationCounter: 9},
	)
	svc := NewRankingService(roster, NewEventCalendar(nil, time.Tuesday, time.UTC), nil)

	ranked, err := svc.SetManualOrder(context.Background(), []string{"nobody"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names(ranked))
}

func TestRankingServiceSwap(t *testing.T) {
	roster := newRosterStub(
		models.Participant{ID: "a", Name: "Alice", RotationCounter: 1},
		models.Participant{ID: "b", Name: "Bob", RotationCounter: 9},
		models.Participant{ID: "g", Name: "Gus", Category: models.CategoryGuest},
	)
	svc := NewRankingService(roster, NewEventCalendar(nil, time.Tuesday, time.UTC), nil)
	ctx := context.Background()

	ranked, err := svc.Swap(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names(ranked))
	assert.Equal(t, 9, roster.items["a"].RotationCounter)

	_, err = svc.Swap(ctx, "a", "a")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Swap(ctx, "a", "g")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestRankingServiceLineup(t *testing.T) {
	roster := newRosterStub(
		models.Participant{ID: "a", Name: "Alice", RotationCounter: 5},
		models.Participant{ID: "b", Name: "Bob", RotationCounter: 4},
		models.Participant{ID: "c", Name: "Carol", RotationCounter: 3},
		models.Participant{ID: "d", Name: "Dave", RotationCounter: 2},
		models.Participant{ID: "e", Name: "Eve", RotationCounter: 1},
	)
	svc := NewRankingService(roster, NewEventCalendar(nil, time.Tuesday, time.UTC), nil)

	lineup, err := svc.Lineup(context.Background(), day("2024-05-30"))
	require.NoError(t, err)
	require.NotNil(t, lineup.AtBat)
	assert.Equal(t, "Alice", lineup.AtBat.Participant.Name)
	assert.Equal(t, day("2024-06-04"), lineup.AtBat.EstimatedDate)
	assert.Equal(t, models.TierOnDeck, lineup.OnDeck.Tier)
	assert.Equal(t, day("2024-06-18"), lineup.InHole.EstimatedDate)
	require.Len(t, lineup.Dugout, 2)
	assert.Equal(t, "Eve", lineup.Dugout[1].Participant.Name)
	assert.Equal(t, 5, lineup.Dugout[1].Position)
	assert.Equal(t, day("2024-07-02"), lineup.Dugout[1].EstimatedDate)
}
