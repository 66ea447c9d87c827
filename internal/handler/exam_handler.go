package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelaskode/kelaskode-backend/internal/clock"
	"github.com/kelaskode/kelaskode-backend/internal/model"
	"github.com/kelaskode/kelaskode-backend/internal/response"
	"github.com/kelaskode/kelaskode-backend/internal/service"
	"github.com/kelaskode/kelaskode-backend/internal/validator"
	"github.com/rs/zerolog"
)

// ExamHandler serves the exam session endpoints: the countdown stream, the
// state snapshot, completion, autosave and roster activation.
type ExamHandler struct {
	exams *service.ExamService
	clk   clock.Clock
	log   zerolog.Logger

	// Stream cadence. Overridable in tests.
	tickInterval      time.Duration
	keepAliveInterval time.Duration
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(exams *service.ExamService, clk clock.Clock, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		exams:             exams,
		clk:               clk,
		log:               log.With().Str("component", "exam_handler").Logger(),
		tickInterval:      time.Second,
		keepAliveInterval: 15 * time.Second,
	}
}

type countdownEvent struct {
	Type             string `json:"type"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

type terminalEvent struct {
	Type string `json:"type"`
}

// Events handles GET /classrooms/:id/events?npm=...
//
// Streams countdown events once per tick and ends with a single terminal
// time_expired event. The deadline is resolved once per stream; the server
// clock is authoritative, so reconnecting clients always converge on the
// same expiry regardless of their local clocks.
func (h *ExamHandler) Events(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	npm := strings.TrimSpace(c.Query("npm"))
	if npm == "" {
		response.Fail(c, response.ErrNPMRequired)
		return
	}

	deadline, err := h.exams.ResolveDeadline(c.Request.Context(), id, npm)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	h.log.Info().
		Int("classroom_id", id).
		Str("npm", npm).
		Time("deadline", deadline).
		Msg("Countdown stream opened")

	// First event goes out immediately so a reconnecting client resyncs
	// without waiting a full tick.
	if h.emitCountdown(c, deadline) {
		return
	}

	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()
	keepAlive := time.NewTicker(h.keepAliveInterval)
	defer keepAlive.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Int("classroom_id", id).Str("npm", npm).Msg("Countdown stream client disconnected")
			return
		case <-ticker.C:
			if h.emitCountdown(c, deadline) {
				return
			}
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			c.Writer.Flush()
		}
	}
}

// emitCountdown writes one countdown event, or the terminal time_expired
// event when the deadline has passed. Returns true when the stream is done.
func (h *ExamHandler) emitCountdown(c *gin.Context, deadline time.Time) bool {
	remaining := service.Remaining(h.clk.Now(), deadline)
	if remaining <= 0 {
		h.writeEvent(c, terminalEvent{Type: "time_expired"})
		return true
	}
	h.writeEvent(c, countdownEvent{
		Type:             "countdown",
		RemainingSeconds: int64(remaining.Seconds()),
	})
	return false
}

func (h *ExamHandler) writeEvent(c *gin.Context, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	c.Writer.Flush()
}

// State handles GET /classrooms/:id/state?npm=...
//
// One-shot remaining-time snapshot for page reloads; the stream stays the
// source of truth while the page is open.
func (h *ExamHandler) State(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	npm := strings.TrimSpace(c.Query("npm"))
	if npm == "" {
		response.Fail(c, response.ErrNPMRequired)
		return
	}

	deadline, err := h.exams.ResolveDeadline(c.Request.Context(), id, npm)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}

	remaining := service.Remaining(h.clk.Now(), deadline)
	response.Success(c, http.StatusOK, gin.H{
		"remaining_seconds": int64(remaining.Seconds()),
		"deadline":          deadline.UTC().Format(time.RFC3339),
		"expired":           remaining <= 0,
	})
}

// Finish handles POST /classrooms/:id/finish.
func (h *ExamHandler) Finish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.FinishExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	result, err := h.exams.Finish(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Autosave handles POST /classrooms/:id/autosave. The snapshot is queued,
// not persisted inline, so the response is 202.
func (h *ExamHandler) Autosave(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AutosaveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	if err := h.exams.QueueSnapshot(c.Request.Context(), id, req.NPM, req.Code); err != nil {
		failFromError(c, err, h.log)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// UpdateUsersStatus handles PUT /classrooms/:id/users/status (bulk roster
// activation, admin only).
func (h *ExamHandler) UpdateUsersStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUsersStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, response.ErrValidation, fields)
		return
	}

	if err := h.exams.SetUsersActive(c.Request.Context(), id, req.UserIDs, *req.Active); err != nil {
		failFromError(c, err, h.log)
		return
	}
	c.Status(http.StatusNoContent)
}
