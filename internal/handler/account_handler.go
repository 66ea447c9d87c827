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

// AccountHandler serves the admin-only account CRUD.
type AccountHandler struct {
	accounts *service.AccountService
	log      zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		log:      log.With().Str("component", "account_handler").Logger(),
	}
}

// List handles GET /accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, accounts)
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, account)
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req model.CreateAccountRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusCreated, account)
}

// UpdateRole handles PUT /accounts/:id/role.
func (h *AccountHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAccountRoleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	account, err := h.accounts.UpdateRole(c.Request.Context(), id, req.Role)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, account)
}

// Delete handles DELETE /accounts/:id.
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}
