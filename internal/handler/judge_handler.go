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

// JudgeHandler proxies code submissions to the external Judge0 service.
type JudgeHandler struct {
	exams *service.ExamService
	log   zerolog.Logger
}

// NewJudgeHandler creates a new JudgeHandler.
func NewJudgeHandler(exams *service.ExamService, log zerolog.Logger) *JudgeHandler {
	return &JudgeHandler{
		exams: exams,
		log:   log.With().Str("component", "judge_handler").Logger(),
	}
}

// Submit handles POST /judge0/submissions. When the payload names an NPM,
// the submitted code is persisted to that enrollment before forwarding; the
// Judge0 result is passed through unchanged.
func (h *JudgeHandler) Submit(c *gin.Context) {
	var req model.JudgeSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	result, err := h.exams.SubmitToJudge(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, result)
}
