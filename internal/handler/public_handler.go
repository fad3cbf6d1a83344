package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

type confirmationService interface {
	HostingDetails(ctx context.Context, link string) (*models.EventDetail, error)
	ConfirmHosting(ctx context.Context, link string, req dto.ConfirmHostingRequest) (*models.Event, error)
	SubmitRating(ctx context.Context, link string, req dto.SubmitRatingRequest) (*models.Rating, error)
}

type venueLister interface {
	List(ctx context.Context) ([]models.Venue, error)
}

// HostingPage is what the host sees when opening their emailed link.
type HostingPage struct {
	Event  *models.EventDetail `json:"event"`
	Venues []models.Venue      `json:"venues"`
}

// PublicHandler serves the signed links sent by email. The link itself is the
// credential, so these routes sit outside the JWT group.
type PublicHandler struct {
	confirm confirmationService
	venues  venueLister
}

// NewPublicHandler constructs PublicHandler.
func NewPublicHandler(confirm confirmationService, venues venueLister) *PublicHandler {
	return &PublicHandler{confirm: confirm, venues: venues}
}

// HostingDetails shows the event and the venues the host can pick from.
func (h *PublicHandler) HostingDetails(c *gin.Context) {
	detail, err := h.confirm.HostingDetails(c.Request.Context(), c.Param("link"))
	if err != nil {
		response.Error(c, err)
		return
	}
	venues, err := h.venues.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, HostingPage{Event: detail, Venues: venues}, nil)
}

// ConfirmHosting acknowledges hosting and confirms the chosen venue.
func (h *PublicHandler) ConfirmHosting(c *gin.Context) {
	var req dto.ConfirmHostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}
	event, err := h.confirm.ConfirmHosting(c.Request.Context(), c.Param("link"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// QuickRating records the score carried in ?value= so a single click from
// the email is enough.
func (h *PublicHandler) QuickRating(c *gin.Context) {
	value, err := strconv.Atoi(c.Query("value"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "value must be between 1 and 5"))
		return
	}
	h.submitRating(c, dto.SubmitRatingRequest{Value: value})
}

// SubmitRating records a score with an optional comment.
func (h *PublicHandler) SubmitRating(c *gin.Context) {
	var req dto.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}
	h.submitRating(c, req)
}

func (h *PublicHandler) submitRating(c *gin.Context, req dto.SubmitRatingRequest) {
	rating, err := h.confirm.SubmitRating(c.Request.Context(), c.Param("link"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}
