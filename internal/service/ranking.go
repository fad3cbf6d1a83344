package service

import (
	"sort"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

// RankParticipants orders the regular participants by hosting priority:
// pinned ones first by ascending manual rank, then the rest by descending
// rotation counter with ties broken by name. A limit <= 0 returns everyone.
func RankParticipants(participants []models.Participant, limit int) []models.Participant {
	ranked := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.IsRegular() {
			ranked = append(ranked, p)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.ManualRank != nil && b.ManualRank != nil:
			if *a.ManualRank != *b.ManualRank {
				return *a.ManualRank < *b.ManualRank
			}
		case a.ManualRank != nil:
			return true
		case b.ManualRank != nil:
			return false
		default:
			if a.RotationCounter != b.RotationCounter {
				return a.RotationCounter > b.RotationCounter
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

// BuildLineup partitions a full ranking into the batting order tiers and
// estimates each participant's hosting date from the next event day.
func BuildLineup(ranked []models.Participant, nextEvent func(position int) models.LineupEntry) models.Lineup {
	lineup := models.Lineup{Dugout: []models.LineupEntry{}}
	for i := range ranked {
		entry := nextEvent(i)
		entry.Participant = ranked[i]
		switch i {
		case 0:
			entry.Tier = models.TierAtBat
			lineup.AtBat = &entry
		case 1:
			entry.Tier = models.TierOnDeck
			lineup.OnDeck = &entry
		case 2:
			entry.Tier = models.TierInHole
			lineup.InHole = &entry
		default:
			entry.Tier = models.TierDugout
			lineup.Dugout = append(lineup.Dugout, entry)
		}
	}
	return lineup
}
