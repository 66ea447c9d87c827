package model

import (
	"time"
)

// User represents an enrollment in a classroom. Active=false means the user
// may no longer authenticate or act (exam finished or proctor-disabled).
// ExamStartedAt is written at most once per exam by the entry gate.
type User struct {
	ID            int        `json:"id"`
	ClassroomID   int        `json:"classroom_id"`
	Name          string     `json:"name"`
	NPM           string     `json:"npm"`
	Code          string     `json:"code"`
	Active        bool       `json:"active"`
	ExamStartedAt *time.Time `json:"exam_started_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserResponse is the API shape of an enrollment.
type UserResponse struct {
	ID            int        `json:"id"`
	ClassroomID   int        `json:"classroom_id"`
	Name          string     `json:"name"`
	NPM           string     `json:"npm"`
	Code          string     `json:"code"`
	Active        bool       `json:"active"`
	ExamStartedAt *time.Time `json:"exam_started_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserResponse builds a UserResponse from a stored record.
func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		ClassroomID:   u.ClassroomID,
		Name:          u.Name,
		NPM:           u.NPM,
		Code:          u.Code,
		Active:        u.Active,
		ExamStartedAt: u.ExamStartedAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// CreateUserRequest is the payload for enrolling a user in a classroom.
type CreateUserRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
	NPM  string `json:"npm" binding:"required,min=1,max=32"`
	Code string `json:"code"`
}

// UpdateUserRequest is the payload for editing an enrollment. Nil fields are
// left unchanged.
type UpdateUserRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=255"`
	NPM  *string `json:"npm" binding:"omitempty,min=1,max=32"`
	Code *string `json:"code"`
}

// UpdateUsersStatusRequest is the bulk roster activation payload.
type UpdateUsersStatusRequest struct {
	UserIDs []int `json:"user_ids" binding:"required,min=1"`
	Active  *bool `json:"active" binding:"required"`
}

// FinishExamRequest is the payload for completing an exam attempt.
type FinishExamRequest struct {
	NPM        string `json:"npm" binding:"required,min=1,max=32"`
	Code       string `json:"code"`
	LanguageID int    `json:"language_id" binding:"required"`
}

// AutosaveRequest is the payload for queuing a code snapshot during an exam.
type AutosaveRequest struct {
	NPM  string `json:"npm" binding:"required,min=1,max=32"`
	Code string `json:"code"`
}
