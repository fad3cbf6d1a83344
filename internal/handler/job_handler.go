package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/scheduler"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

type jobRunner interface {
	Run(ctx context.Context, job models.JobType, today time.Time, opts service.RunOptions) (*models.JobResult, error)
}

type jobQueue interface {
	Enqueue(job models.JobType, today time.Time, dryRun bool) (*scheduler.RunStatus, error)
	Status(id string) (*scheduler.RunStatus, bool)
}

type notificationHistory interface {
	List(ctx context.Context, filter models.NotificationLogFilter) ([]models.NotificationLogEntry, *models.Pagination, error)
}

// JobHandler triggers notification jobs and exposes their history.
type JobHandler struct {
	runner  jobRunner
	queue   jobQueue
	history notificationHistory
	clock   calendarClock
	now     func() time.Time
}

// NewJobHandler constructs JobHandler. queue may be nil, in which case only
// inline runs are accepted.
func NewJobHandler(runner jobRunner, queue jobQueue, history notificationHistory, clock calendarClock) *JobHandler {
	return &JobHandler{runner: runner, queue: queue, history: history, clock: clock, now: time.Now}
}

// Run executes a job for ?date= (default today). With async=true the run is
// queued and 202 is returned with a status id.
func (h *JobHandler) Run(c *gin.Context) {
	var req dto.RunJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := models.ParseJobType(req.Job)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	today, err := resolveDate(h.clock, h.now, req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Async {
		if h.queue == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrConfiguration, "background queue is not running"))
			return
		}
		status, err := h.queue.Enqueue(job, today, req.DryRun)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, dto.JobAccepted{JobID: status.ID, Job: string(status.Job), Date: status.Date})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), job, today, service.RunOptions{DryRun: req.DryRun})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status reports a queued run.
func (h *JobHandler) Status(c *gin.Context) {
	if h.queue == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "run not found"))
		return
	}
	status, ok := h.queue.Status(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "run not found"))
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Log lists notification log entries.
func (h *JobHandler) Log(c *gin.Context) {
	filter := models.NotificationLogFilter{
		EventID: c.Query("eventId"),
		JobType: c.Query("job"),
		Status:  c.Query("status"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	entries, pagination, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
