package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

type rosterService interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Participant, error)
	Create(ctx context.Context, req dto.CreateParticipantRequest) (*models.Participant, error)
	AddGuest(ctx context.Context, req dto.QuickAddGuestRequest) (*models.Participant, error)
	Update(ctx context.Context, id string, req dto.UpdateParticipantRequest) (*models.Participant, error)
	Import(ctx context.Context, req dto.ImportRosterRequest) (*dto.ImportRosterResult, error)
}

// RosterHandler exposes participant management endpoints.
type RosterHandler struct {
	roster rosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster rosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// List returns participants filtered by category and search term.
func (h *RosterHandler) List(c *gin.Context) {
	var filter models.ParticipantFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("category"); raw != "" {
		category := models.ParticipantCategory(strings.ToLower(raw))
		if !category.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "category must be regular, guest or inactive"))
			return
		}
		filter.Category = &category
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	participants, pagination, err := h.roster.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, pagination)
}

// Get returns a participant by id.
func (h *RosterHandler) Get(c *gin.Context) {
	participant, err := h.roster.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Create adds a participant to the roster.
func (h *RosterHandler) Create(c *gin.Context) {
	var req dto.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid participant payload"))
		return
	}
	participant, err := h.roster.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participant)
}

// AddGuest registers a guest during attendance entry.
func (h *RosterHandler) AddGuest(c *gin.Context) {
	var req dto.QuickAddGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid guest payload"))
		return
	}
	participant, err := h.roster.AddGuest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participant)
}

// Update edits a participant.
func (h *RosterHandler) Update(c *gin.Context) {
	var req dto.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid participant payload"))
		return
	}
	participant, err := h.roster.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Import upserts participants by contact address.
func (h *RosterHandler) Import(c *gin.Context) {
	var req dto.ImportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	result, err := h.roster.Import(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
