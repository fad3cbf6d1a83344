package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

type eventService interface {
	Current(ctx context.Context, today time.Time) (*models.EventDetail, error)
	ForDate(ctx context.Context, date time.Time) (*models.EventDetail, error)
	Get(ctx context.Context, id string) (*models.EventDetail, error)
	Upcoming(ctx context.Context, today time.Time, weeks int) ([]models.Event, error)
	Cancel(ctx context.Context, id string) (*models.Event, error)
}

type venueConfirmer interface {
	ConfirmVenue(ctx context.Context, eventID string, req dto.ConfirmVenueRequest) (*models.Event, error)
	Ratings(ctx context.Context, eventID string) ([]models.Rating, error)
}

// EventHandler exposes weekly events.
type EventHandler struct {
	events  eventService
	confirm venueConfirmer
	clock   calendarClock
	now     func() time.Time
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events eventService, confirm venueConfirmer, clock calendarClock) *EventHandler {
	return &EventHandler{events: events, confirm: confirm, clock: clock, now: time.Now}
}

// Current returns this week's event, creating it when missing.
func (h *EventHandler) Current(c *gin.Context) {
	detail, err := h.events.Current(c.Request.Context(), h.clock.DateOf(h.now()))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ForDate returns the event of the week containing ?date=.
func (h *EventHandler) ForDate(c *gin.Context) {
	date, err := resolveDate(h.clock, h.now, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.events.ForDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Get returns an event by id.
func (h *EventHandler) Get(c *gin.Context) {
	detail, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Upcoming lists stored events over the next ?weeks= weeks.
func (h *EventHandler) Upcoming(c *gin.Context) {
	weeks, err := strconv.Atoi(c.DefaultQuery("weeks", "4"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weeks must be an integer"))
		return
	}
	events, err := h.events.Upcoming(c.Request.Context(), h.clock.DateOf(h.now()), weeks)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Cancel marks a planned event as cancelled.
func (h *EventHandler) Cancel(c *gin.Context) {
	event, err := h.events.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// ConfirmVenue lets the secretary set the venue directly.
func (h *EventHandler) ConfirmVenue(c *gin.Context) {
	var req dto.ConfirmVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid venue payload"))
		return
	}
	event, err := h.confirm.ConfirmVenue(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Ratings lists the rating requests of an event.
func (h *EventHandler) Ratings(c *gin.Context) {
	ratings, err := h.confirm.Ratings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}
