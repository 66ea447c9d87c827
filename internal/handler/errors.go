package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kelaskode/kelaskode-backend/internal/judge"
	"github.com/kelaskode/kelaskode-backend/internal/response"
	"github.com/kelaskode/kelaskode-backend/internal/service"
	"github.com/rs/zerolog"
)

// failFromError translates a service error into the API error taxonomy.
// Unrecognized errors are logged and surfaced as an internal error.
func failFromError(c *gin.Context, err error, log zerolog.Logger) {
	var judgeErr *judge.Error

	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		response.Fail(c, response.ErrClassroomNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, response.ErrUserNotFound)
	case errors.Is(err, service.ErrAccountNotFound):
		response.Fail(c, response.ErrAccountNotFound)
	case errors.Is(err, service.ErrUserInactive):
		response.Fail(c, response.ErrUserInactive)
	case errors.Is(err, service.ErrExamWindowNotOpen):
		response.Fail(c, response.ErrExamNotOpen)
	case errors.Is(err, service.ErrExamWindowClosed):
		response.Fail(c, response.ErrExamClosed)
	case errors.Is(err, service.ErrExamNotRunning):
		response.Fail(c, response.ErrExamNotRunning)
	case errors.Is(err, service.ErrNPMRequired):
		response.Fail(c, response.ErrNPMRequired)
	case errors.Is(err, service.ErrAdminAlreadyExists):
		response.Fail(c, response.ErrAdminExists)
	case errors.Is(err, service.ErrDuplicateNPM):
		response.Fail(c, response.ErrConflict)
	case errors.As(err, &judgeErr):
		response.FailWithFields(c, response.ErrExternalJudge, map[string]string{
			"upstream_status": strconv.Itoa(judgeErr.StatusCode),
			"upstream_body":   judgeErr.Body,
		})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled service error")
		response.Fail(c, response.ErrInternal)
	}
}

// pathID parses a numeric path parameter. A non-numeric value yields ok=false
// with the error response already written.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.Fail(c, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
