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

// ClassroomHandler serves classroom and roster CRUD.
type ClassroomHandler struct {
	classrooms *service.ClassroomService
	log        zerolog.Logger
}

// NewClassroomHandler creates a new ClassroomHandler.
func NewClassroomHandler(classrooms *service.ClassroomService, log zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		classrooms: classrooms,
		log:        log.With().Str("component", "classroom_handler").Logger(),
	}
}

// List handles GET /classrooms.
func (h *ClassroomHandler) List(c *gin.Context) {
	classrooms, err := h.classrooms.List(c.Request.Context())
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, classrooms)
}

// Get handles GET /classrooms/:id.
func (h *ClassroomHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	classroom, err := h.classrooms.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, classroom)
}

// Create handles POST /classrooms.
func (h *ClassroomHandler) Create(c *gin.Context) {
	var req model.CreateClassroomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	classroom, err := h.classrooms.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusCreated, classroom)
}

// Update handles PUT /classrooms/:id.
func (h *ClassroomHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClassroomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	classroom, err := h.classrooms.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, classroom)
}

// Delete handles DELETE /classrooms/:id.
func (h *ClassroomHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.classrooms.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddUser handles POST /classrooms/:id/users.
func (h *ClassroomHandler) AddUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	user, err := h.classrooms.AddUser(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusCreated, user)
}

// UpdateUser handles PUT /classrooms/:id/users/:user_id.
func (h *ClassroomHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	user, err := h.classrooms.UpdateUser(c.Request.Context(), id, userID, &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// RemoveUser handles DELETE /classrooms/:id/users/:user_id.
func (h *ClassroomHandler) RemoveUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	if err := h.classrooms.RemoveUser(c.Request.Context(), id, userID); err != nil {
		failFromError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}
