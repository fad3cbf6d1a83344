package service

import (
	"fmt"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

// PlanReconciliation diffs a resubmitted attendance snapshot against the facts
// already stored for the event and returns the replacement facts plus the
// counter deltas that move the roster from the old outcome to the new one.
//
// Resubmitting an identical snapshot yields no deltas. A host that is removed
// or demoted gets the rotation counter they had before hosting back, as long
// as they have not hosted a later event since.
func PlanReconciliation(event models.Event, previous []models.AttendanceFact, participants map[string]models.Participant, attendeeIDs []string, hostID *string) (models.ReconcilePlan, error) {
	plan := models.ReconcilePlan{
		Facts:   []models.AttendanceFact{},
		Deltas:  []models.CounterDelta{},
		Added:   []string{},
		Removed: []string{},
		Kept:    []string{},
	}
	if event.Status == models.EventCancelled {
		return plan, appErrors.Clone(appErrors.ErrConflict, "cannot record attendance for a cancelled event")
	}

	attendees := dedupe(attendeeIDs)
	inNew := make(map[string]struct{}, len(attendees))
	for _, id := range attendees {
		if _, ok := participants[id]; !ok {
			return plan, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("participant %s not found", id))
		}
		inNew[id] = struct{}{}
	}

	newHost := ""
	if hostID != nil && *hostID != "" {
		newHost = *hostID
		if _, ok := inNew[newHost]; !ok {
			return plan, appErrors.Clone(appErrors.ErrValidation, "host must be one of the attendees")
		}
	}

	prevByID := make(map[string]models.AttendanceFact, len(previous))
	for _, fact := range previous {
		prevByID[fact.ParticipantID] = fact
	}

	eventDate := event.Date
	hostedDelta := func(id string) models.CounterDelta {
		return models.CounterDelta{ParticipantID: id, ResetRotation: true, HostDelta: 1, LastHostedAt: &eventDate}
	}
	restore := func(id string, fact models.AttendanceFact) int {
		p, ok := participants[id]
		if !ok || fact.RotationBefore == nil {
			return 0
		}
		if p.LastHostedAt != nil && p.LastHostedAt.After(event.Date) {
			return 0
		}
		return *fact.RotationBefore
	}

	for _, fact := range previous {
		id := fact.ParticipantID
		if _, ok := inNew[id]; ok {
			continue
		}
		plan.Removed = append(plan.Removed, id)
		if fact.WasHost {
			plan.Deltas = append(plan.Deltas, models.CounterDelta{ParticipantID: id, HostDelta: -1, RotationDelta: restore(id, fact)})
		} else {
			plan.Deltas = append(plan.Deltas, models.CounterDelta{ParticipantID: id, RotationDelta: -1})
		}
	}

	for _, id := range attendees {
		isHost := id == newHost
		fact := models.AttendanceFact{EventID: event.ID, ParticipantID: id, WasHost: isHost}
		old, existed := prevByID[id]

		switch {
		case !existed:
			plan.Added = append(plan.Added, id)
			if isHost {
				before := participants[id].RotationCounter
				fact.RotationBefore = &before
				plan.Deltas = append(plan.Deltas, hostedDelta(id))
			} else {
				plan.Deltas = append(plan.Deltas, models.CounterDelta{ParticipantID: id, RotationDelta: 1})
			}
		case isHost && !old.WasHost:
			plan.Kept = append(plan.Kept, id)
			// The earlier submission counted this participant as a plain
			// attendee, so their pre-event counter is one lower.
			before := participants[id].RotationCounter - 1
			if before < 0 {
				before = 0
			}
			fact.RotationBefore = &before
			plan.Deltas = append(plan.Deltas, hostedDelta(id))
		case !isHost && old.WasHost:
			plan.Kept = append(plan.Kept, id)
			plan.Deltas = append(plan.Deltas, models.CounterDelta{ParticipantID: id, HostDelta: -1, RotationDelta: 1 + restore(id, old)})
		default:
			plan.Kept = append(plan.Kept, id)
			fact.RotationBefore = old.RotationBefore
		}
		plan.Facts = append(plan.Facts, fact)
	}

	return plan, nil
}
