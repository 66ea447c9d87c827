package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/kelaskode/kelaskode-backend/internal/response"
	"github.com/kelaskode/kelaskode-backend/internal/service"
	"github.com/kelaskode/kelaskode-backend/internal/validator"
	"github.com/rs/zerolog"
)

// AuthHandler serves login and admin bootstrap checks.
type AuthHandler struct {
	auth *service.AuthService
	log  zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login handles POST /auth/login. NPM-based login; an enrolled user also
// passes the exam entry gate here.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.NPM, req.AsAdmin)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	response.Success(c, status, result)
}

// AdminExists handles GET /auth/admin-exists.
func (h *AuthHandler) AdminExists(c *gin.Context) {
	exists, err := h.auth.AdminExists(c.Request.Context())
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"admin_exists": exists})
}
