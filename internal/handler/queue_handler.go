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

type rankingService interface {
	Rank(ctx context.Context, limit int) ([]models.Participant, error)
	Lineup(ctx context.Context, today time.Time) (*models.Lineup, error)
	SetManualOrder(ctx context.Context, ids []string) ([]models.Participant, error)
	ClearManualOrder(ctx context.Context) ([]models.Participant, error)
	Swap(ctx context.Context, firstID, secondID string) ([]models.Participant, error)
}

// QueueHandler exposes the hosting queue.
type QueueHandler struct {
	ranking rankingService
	clock   calendarClock
	now     func() time.Time
}

// NewQueueHandler constructs QueueHandler.
func NewQueueHandler(ranking rankingService, clock calendarClock) *QueueHandler {
	return &QueueHandler{ranking: ranking, clock: clock, now: time.Now}
}

// Rank returns regulars in hosting order. ?limit=0 returns everyone.
func (h *QueueHandler) Rank(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
		return
	}
	ranked, err := h.ranking.Rank(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}

// Lineup returns the ranking split into at-bat, on-deck, in-hole and dugout.
func (h *QueueHandler) Lineup(c *gin.Context) {
	lineup, err := h.ranking.Lineup(c.Request.Context(), h.clock.DateOf(h.now()))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lineup, nil)
}

// SetManualOrder pins the given participants to the front of the queue.
func (h *QueueHandler) SetManualOrder(c *gin.Context) {
	var req dto.ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid manual order payload"))
		return
	}
	ranked, err := h.ranking.SetManualOrder(c.Request.Context(), req.ParticipantIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}

// ClearManualOrder removes every pin.
func (h *QueueHandler) ClearManualOrder(c *gin.Context) {
	ranked, err := h.ranking.ClearManualOrder(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}

// Swap exchanges two regulars' rotation counters.
func (h *QueueHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	ranked, err := h.ranking.Swap(c.Request.Context(), req.FirstID, req.SecondID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}
