package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

type attendanceService interface {
	Submit(ctx context.Context, eventID string, req dto.SubmitAttendanceRequest) (*models.AttendanceResult, error)
	List(ctx context.Context, eventID string) ([]models.AttendanceFact, error)
}

// AttendanceHandler records who came to an event.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Submit replaces the attendance snapshot of an event and reconciles
// rotation counters.
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	result, err := h.attendance.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List returns the attendance facts of an event.
func (h *AttendanceHandler) List(c *gin.Context) {
	facts, err := h.attendance.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, facts, nil)
}
