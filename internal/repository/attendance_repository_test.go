package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

func TestAttendanceRepositoryReconcileAppliesPlanAtomically(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	date := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_date, .* FOR UPDATE").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e-1", date, nil, "v-1", true, true, "planned", nil, nil, nil, now, now))
	mock.ExpectQuery("SELECT event_id, participant_id, was_host, rotation_before, created_at").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "participant_id", "was_host", "rotation_before", "created_at"}))
	mock.ExpectQuery("SELECT id, name, email, .* FOR UPDATE").
		WithArgs(pq.Array([]string{"p-1", "p-2"})).
		WillReturnRows(sqlmock.NewRows(participantCols).
			AddRow("p-1", "Alice", "alice@example.com", "regular", 3, nil, nil, 0, now, now).
			AddRow("p-2", "Bob", "bob@example.com", "regular", 5, nil, nil, 1, now, now))
	mock.ExpectExec("DELETE FROM attendance_facts").
		WithArgs("e-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO attendance_facts").
		WithArgs("e-1", "p-1", false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_facts").
		WithArgs("e-1", "p-2", true, 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE participants SET").
		WithArgs("p-1", false, 1, 0, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE participants SET").
		WithArgs("p-2", true, 0, 1, date, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE venues SET visit_count").
		WithArgs("v-1", date, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE events SET attendee_count").
		WithArgs("e-1", 2, "p-2", models.EventCompleted, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e-1", date, "p-2", "v-1", true, true, "completed", nil, 2, now, now, now))
	mock.ExpectQuery("SELECT id, name, email, .* ORDER BY name ASC").
		WithArgs(pq.Array([]string{"p-1", "p-2"})).
		WillReturnRows(sqlmock.NewRows(participantCols).
			AddRow("p-1", "Alice", "alice@example.com", "regular", 4, nil, nil, 0, now, now).
			AddRow("p-2", "Bob", "bob@example.com", "regular", 0, nil, date, 2, now, now))
	mock.ExpectCommit()

	repo := NewAttendanceRepository(db)
	result, err := repo.Reconcile(context.Background(), "e-1", []string{"p-1", "p-2"},
		func(event models.Event, previous []models.AttendanceFact, participants map[string]models.Participant) (models.ReconcilePlan, error) {
			assert.Empty(t, previous)
			require.Len(t, participants, 2)
			return models.ReconcilePlan{
				Facts: []models.AttendanceFact{
					{EventID: "e-1", ParticipantID: "p-1"},
					{EventID: "e-1", ParticipantID: "p-2", WasHost: true, RotationBefore: intPtr(5)},
				},
				Deltas: []models.CounterDelta{
					{ParticipantID: "p-1", RotationDelta: 1},
					{ParticipantID: "p-2", ResetRotation: true, HostDelta: 1, LastHostedAt: &event.Date},
				},
				Added: []string{"p-1", "p-2"},
			}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, result.Event.Status)
	require.NotNil(t, result.Event.AttendeeCount)
	assert.Equal(t, 2, *result.Event.AttendeeCount)
	require.Len(t, result.Participants, 2)
	assert.Equal(t, 4, result.Participants[0].RotationCounter)
}

func TestAttendanceRepositoryReconcileRollsBackOnPlanError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	date := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_date").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow("e-1", date, nil, nil, false, false, "planned", nil, nil, nil, now, now))
	mock.ExpectQuery("SELECT event_id, participant_id").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "participant_id", "was_host", "rotation_before", "created_at"}))
	mock.ExpectQuery("SELECT id, name, email").
		WillReturnRows(sqlmock.NewRows(participantCols))
	mock.ExpectRollback()

	repo := NewAttendanceRepository(db)
	planErr := errors.New("unknown participant")
	_, err := repo.Reconcile(context.Background(), "e-1", []string{"ghost"},
		func(models.Event, []models.AttendanceFact, map[string]models.Participant) (models.ReconcilePlan, error) {
			return models.ReconcilePlan{}, planErr
		})
	assert.ErrorIs(t, err, planErr)
}

func TestAttendanceRepositoryReconcileMissingEvent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, event_date").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	repo := NewAttendanceRepository(db)
	_, err := repo.Reconcile(context.Background(), "missing", nil,
		func(models.Event, []models.AttendanceFact, map[string]models.Participant) (models.ReconcilePlan, error) {
			t.Fatal("plan must not run")
			return models.ReconcilePlan{}, nil
		})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
