package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/dto"
	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	appErrors "github.com/noah-isme/lunch-rotation-api/pkg/errors"
	"github.com/noah-isme/lunch-rotation-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Issue mints an access token for a participant. Admin only.
func (h *AuthHandler) Issue(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	issued, err := h.service.IssueToken(c.Request.Context(), req.ParticipantID, models.Role(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// Me returns the claims of the current token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}
