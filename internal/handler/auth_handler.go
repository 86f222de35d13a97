package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type authService interface {
	Login(req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate the teacher
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid login payload"))
		return
	}

	res, err := h.service.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
