package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/scheduler"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
)

type clockStub struct{}

func (clockStub) DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (clockStub) ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return d, nil
}

func fixedNow() time.Time { return time.Date(2024, 5, 30, 15, 0, 0, 0, time.UTC) }

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

type rosterServiceMock struct {
	lastFilter models.ParticipantFilter
	createReq  dto.CreateParticipantRequest
	err        error
}

func (m *rosterServiceMock) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.Participant{{ID: "p-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, m.err
}

func (m *rosterServiceMock) Get(ctx context.Context, id string) (*models.Participant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Participant{ID: id}, nil
}

func (m *rosterServiceMock) Create(ctx context.Context, req dto.CreateParticipantRequest) (*models.Participant, error) {
	m.createReq = req
	return &models.Participant{ID: "p-new", Name: req.Name}, m.err
}

func (m *rosterServiceMock) AddGuest(ctx context.Context, req dto.QuickAddGuestRequest) (*models.Participant, error) {
	return &models.Participant{ID: "g-new", Category: models.CategoryGuest}, m.err
}

func (m *rosterServiceMock) Update(ctx context.Context, id string, req dto.UpdateParticipantRequest) (*models.Participant, error) {
	return &models.Participant{ID: id}, m.err
}

func (m *rosterServiceMock) Import(ctx context.Context, req dto.ImportRosterRequest) (*dto.ImportRosterResult, error) {
	return &dto.ImportRosterResult{Created: len(req.Participants)}, m.err
}

func TestRosterHandlerListParsesFilter(t *testing.T) {
	svc := &rosterServiceMock{}
	h := NewRosterHandler(svc)

	c, w := newContext(http.MethodGet, "/participants?category=Guest&search=%20ann%20&page=2&limit=5", "")
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastFilter.Category)
	assert.Equal(t, models.CategoryGuest, *svc.lastFilter.Category)
	assert.Equal(t, "ann", svc.lastFilter.Search)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 5, svc.lastFilter.PageSize)
}

func TestRosterHandlerListRejectsUnknownCategory(t *testing.T) {
	h := NewRosterHandler(&rosterServiceMock{})
	c, w := newContext(http.MethodGet, "/participants?category=vip", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerCreate(t *testing.T) {
	svc := &rosterServiceMock{}
	h := NewRosterHandler(svc)

	c, w := newContext(http.MethodPost, "/participants", `{"name":"Ann","email":"ann@example.com"}`)
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ann", svc.createReq.Name)

	c, w = newContext(http.MethodPost, "/participants", `{"name":`)
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRosterHandlerGetMapsNotFound(t *testing.T) {
	h := NewRosterHandler(&rosterServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "participant not found")})
	c, w := newContext(http.MethodGet, "/participants/missing", "")
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, decodeError(t, w))
}

type attendanceServiceMock struct {
	eventID string
	req     dto.SubmitAttendanceRequest
	err     error
}

func (m *attendanceServiceMock) Submit(ctx context.Context, eventID string, req dto.SubmitAttendanceRequest) (*models.AttendanceResult, error) {
	m.eventID = eventID
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AttendanceResult{}, nil
}

func (m *attendanceServiceMock) List(ctx context.Context, eventID string) ([]models.AttendanceFact, error) {
	return []models.AttendanceFact{}, m.err
}

func TestAttendanceHandlerSubmit(t *testing.T) {
	svc := &attendanceServiceMock{}
	h := NewAttendanceHandler(svc)

	c, w := newContext(http.MethodPut, "/events/e-1/attendance", `{"attendee_ids":["a","b"],"host_id":"a"}`)
	c.Params = gin.Params{{Key: "id", Value: "e-1"}}
	h.Submit(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e-1", svc.eventID)
	assert.Equal(t, []string{"a", "b"}, svc.req.AttendeeIDs)
	require.NotNil(t, svc.req.HostID)
	assert.Equal(t, "a", *svc.req.HostID)
}

func TestAttendanceHandlerSubmitConflict(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "event is cancelled")})
	c, w := newContext(http.MethodPut, "/events/e-1/attendance", `{"attendee_ids":[]}`)
	c.Params = gin.Params{{Key: "id", Value: "e-1"}}
	h.Submit(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

type jobRunnerMock struct {
	job   models.JobType
	today time.Time
	opts  service.RunOptions
	err   error
}

func (m *jobRunnerMock) Run(ctx context.Context, job models.JobType, today time.Time, opts service.RunOptions) (*models.JobResult, error) {
	m.job, m.today, m.opts = job, today, opts
	if m.err != nil {
		return nil, m.err
	}
	return &models.JobResult{Job: job, Success: true}, nil
}

type jobQueueMock struct {
	enqueued []models.JobType
	err      error
}

func (m *jobQueueMock) Enqueue(job models.JobType, today time.Time, dryRun bool) (*scheduler.RunStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.enqueued = append(m.enqueued, job)
	return &scheduler.RunStatus{ID: "run-1", Job: job, Date: today.Format("2006-01-02"), State: scheduler.StateQueued}, nil
}

func (m *jobQueueMock) Status(id string) (*scheduler.RunStatus, bool) {
	if id != "run-1" {
		return nil, false
	}
	return &scheduler.RunStatus{ID: id, State: scheduler.StateSucceeded}, true
}

func newJobHandler(runner *jobRunnerMock, queue jobQueue) *JobHandler {
	h := NewJobHandler(runner, queue, nil, clockStub{})
	h.now = fixedNow
	return h
}

func TestJobHandlerRunInlineDefaultsToToday(t *testing.T) {
	runner := &jobRunnerMock{}
	h := newJobHandler(runner, &jobQueueMock{})

	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"host_reminder","dry_run":true}`)
	h.Run(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.JobHostReminder, runner.job)
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), runner.today)
	assert.True(t, runner.opts.DryRun)
}

func TestJobHandlerRunExplicitDate(t *testing.T) {
	runner := &jobRunnerMock{}
	h := newJobHandler(runner, nil)

	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"announcement","date":"2024-06-03"}`)
	h.Run(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-03", runner.today.Format("2006-01-02"))
}

func TestJobHandlerRunRejectsUnknownJob(t *testing.T) {
	runner := &jobRunnerMock{}
	h := newJobHandler(runner, nil)

	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"digest"}`)
	h.Run(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.job)
}

func TestJobHandlerRunLocked(t *testing.T) {
	h := newJobHandler(&jobRunnerMock{err: appErrors.Clone(appErrors.ErrLocked, "host_reminder already running")}, nil)

	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"host_reminder"}`)
	h.Run(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrLocked.Code, decodeError(t, w))
}

func TestJobHandlerRunAsync(t *testing.T) {
	queue := &jobQueueMock{}
	h := newJobHandler(&jobRunnerMock{}, queue)

	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"rating_request","async":true}`)
	h.Run(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []models.JobType{models.JobRatingRequest}, queue.enqueued)

	var envelope struct {
		Data dto.JobAccepted `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "run-1", envelope.Data.JobID)
	assert.Equal(t, "2024-05-30", envelope.Data.Date)
}

func TestJobHandlerRunAsyncWithoutQueue(t *testing.T) {
	h := newJobHandler(&jobRunnerMock{}, nil)
	c, w := newContext(http.MethodPost, "/jobs/run", `{"job":"rating_request","async":true}`)
	h.Run(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestJobHandlerStatus(t *testing.T) {
	h := newJobHandler(&jobRunnerMock{}, &jobQueueMock{})

	c, w := newContext(http.MethodGet, "/jobs/runs/run-1", "")
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}
	h.Status(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/jobs/runs/other", "")
	c.Params = gin.Params{{Key: "id", Value: "other"}}
	h.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type confirmationServiceMock struct {
	link   string
	rating dto.SubmitRatingRequest
	err    error
}

func (m *confirmationServiceMock) HostingDetails(ctx context.Context, link string) (*models.EventDetail, error) {
	m.link = link
	if m.err != nil {
		return nil, m.err
	}
	return &models.EventDetail{Event: models.Event{ID: "e-1"}}, nil
}

func (m *confirmationServiceMock) ConfirmHosting(ctx context.Context, link string, req dto.ConfirmHostingRequest) (*models.Event, error) {
	m.link = link
	return &models.Event{ID: "e-1", VenueID: &req.VenueID, VenueConfirmed: true, HostAcknowledged: true}, m.err
}

func (m *confirmationServiceMock) SubmitRating(ctx context.Context, link string, req dto.SubmitRatingRequest) (*models.Rating, error) {
	m.link = link
	m.rating = req
	if m.err != nil {
		return nil, m.err
	}
	value := req.Value
	return &models.Rating{Value: &value}, nil
}

type venueListerStub struct{}

func (venueListerStub) List(ctx context.Context) ([]models.Venue, error) {
	return []models.Venue{{ID: "v-1", Name: "Noodle Bar"}}, nil
}

func TestPublicHandlerHostingDetails(t *testing.T) {
	svc := &confirmationServiceMock{}
	h := NewPublicHandler(svc, venueListerStub{})

	c, w := newContext(http.MethodGet, "/public/hosting/abc", "")
	c.Params = gin.Params{{Key: "link", Value: "abc"}}
	h.HostingDetails(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.link)
	var envelope struct {
		Data HostingPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Venues, 1)
}

func TestPublicHandlerExpiredLink(t *testing.T) {
	h := NewPublicHandler(&confirmationServiceMock{err: appErrors.Clone(appErrors.ErrInvalidToken, "link has expired")}, venueListerStub{})

	c, w := newContext(http.MethodGet, "/public/hosting/old", "")
	c.Params = gin.Params{{Key: "link", Value: "old"}}
	h.HostingDetails(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, decodeError(t, w))
}

func TestPublicHandlerQuickRating(t *testing.T) {
	svc := &confirmationServiceMock{}
	h := NewPublicHandler(svc, venueListerStub{})

	c, w := newContext(http.MethodGet, "/public/ratings/r1?value=4", "")
	c.Params = gin.Params{{Key: "link", Value: "r1"}}
	h.QuickRating(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, svc.rating.Value)

	c, w = newContext(http.MethodGet, "/public/ratings/r1?value=five", "")
	c.Params = gin.Params{{Key: "link", Value: "r1"}}
	h.QuickRating(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicHandlerSubmitRatingWithComment(t *testing.T) {
	svc := &confirmationServiceMock{}
	h := NewPublicHandler(svc, venueListerStub{})

	c, w := newContext(http.MethodPost, "/public/ratings/r1", `{"value":5,"comment":"great dumplings"}`)
	c.Params = gin.Params{{Key: "link", Value: "r1"}}
	h.SubmitRating(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "great dumplings", svc.rating.Comment)
}

type eventServiceMock struct {
	today time.Time
	date  time.Time
}

func (m *eventServiceMock) Current(ctx context.Context, today time.Time) (*models.EventDetail, error) {
	m.today = today
	return &models.EventDetail{}, nil
}

func (m *eventServiceMock) ForDate(ctx context.Context, date time.Time) (*models.EventDetail, error) {
	m.date = date
	return &models.EventDetail{}, nil
}

func (m *eventServiceMock) Get(ctx context.Context, id string) (*models.EventDetail, error) {
	return &models.EventDetail{Event: models.Event{ID: id}}, nil
}

func (m *eventServiceMock) Upcoming(ctx context.Context, today time.Time, weeks int) ([]models.Event, error) {
	return []models.Event{}, nil
}

func (m *eventServiceMock) Cancel(ctx context.Context, id string) (*models.Event, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "only planned events can be cancelled")
}

func TestEventHandlerDates(t *testing.T) {
	svc := &eventServiceMock{}
	h := NewEventHandler(svc, nil, clockStub{})
	h.now = fixedNow

	c, w := newContext(http.MethodGet, "/events/current", "")
	h.Current(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-30", svc.today.Format("2006-01-02"))

	c, w = newContext(http.MethodGet, "/events?date=2024-06-11", "")
	h.ForDate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-11", svc.date.Format("2006-01-02"))

	c, w = newContext(http.MethodGet, "/events?date=11/06/2024", "")
	h.ForDate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerCancelConflict(t *testing.T) {
	h := NewEventHandler(&eventServiceMock{}, nil, clockStub{})
	c, w := newContext(http.MethodPost, "/events/e-1/cancel", "")
	c.Params = gin.Params{{Key: "id", Value: "e-1"}}
	h.Cancel(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
