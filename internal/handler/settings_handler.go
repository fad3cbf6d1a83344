package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

// SettingsHandler manages system settings such as the secretary.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// List returns every stored setting.
func (h *SettingsHandler) List(c *gin.Context) {
	items, err := h.settings.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Secretary returns the current secretary.
func (h *SettingsHandler) Secretary(c *gin.Context) {
	secretary, err := h.settings.Secretary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, secretary, nil)
}

// SetSecretary designates the secretary. Admin only.
func (h *SettingsHandler) SetSecretary(c *gin.Context) {
	var req dto.SecretaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid secretary payload"))
		return
	}
	actorID := ""
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.ParticipantID
	}
	secretary, err := h.settings.SetSecretary(c.Request.Context(), req.ParticipantID, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, secretary, nil)
}

// TransferSecretary hands the role over. Allowed for admins and the current
// secretary.
func (h *SettingsHandler) TransferSecretary(c *gin.Context) {
	var req dto.SecretaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid secretary payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	secretary, err := h.settings.TransferSecretary(c.Request.Context(), claims, req.ParticipantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, secretary, nil)
}
