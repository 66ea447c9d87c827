package model

import (
	"encoding/json"
	"time"
)

// Classroom represents a classroom entity. Tasks is stored as a JSON-encoded
// string array; use DecodeTasks/EncodeTasks when crossing the API boundary.
type Classroom struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	ProgrammingLanguage string     `json:"programming_language"`
	LanguageLocked      bool       `json:"language_locked"`
	Tasks               string     `json:"-"`
	IsExam              bool       `json:"is_exam"`
	ExamStart           *time.Time `json:"exam_start,omitempty"`
	ExamEnd             *time.Time `json:"exam_end,omitempty"`
	TimeLimit           int64      `json:"time_limit"`
	TestCode            string     `json:"test_code"`
	PresetupCode        string     `json:"presetup_code"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// EncodeTasks serializes a task list to its stored string form.
func EncodeTasks(tasks []string) string {
	data, err := json.Marshal(tasks)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeTasks parses the stored tasks string. Malformed input yields an
// empty list, never an error.
func DecodeTasks(value string) []string {
	var tasks []string
	if err := json.Unmarshal([]byte(value), &tasks); err != nil {
		return []string{}
	}
	if tasks == nil {
		return []string{}
	}
	return tasks
}

// ClassroomResponse is the full classroom payload with decoded tasks and
// enrolled users.
type ClassroomResponse struct {
	Classroom
	Tasks []string       `json:"tasks"`
	Users []UserResponse `json:"users"`
}

// NewClassroomResponse builds a ClassroomResponse from stored records.
func NewClassroomResponse(c Classroom, users []User) ClassroomResponse {
	userResponses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		userResponses = append(userResponses, NewUserResponse(u))
	}
	return ClassroomResponse{
		Classroom: c,
		Tasks:     DecodeTasks(c.Tasks),
		Users:     userResponses,
	}
}

// LoginClassroomInfo is the classroom metadata returned at login. TimeLimit
// is only populated for exam classrooms; the countdown stream remains the
// source of truth for remaining time.
type LoginClassroomInfo struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ProgrammingLanguage string `json:"programming_language,omitempty"`
	LanguageLocked      bool   `json:"language_locked"`
	IsExam              bool   `json:"is_exam"`
	TimeLimit           *int64 `json:"time_limit,omitempty"`
	PresetupCode        string `json:"presetup_code"`
}

// NewLoginClassroomInfo builds the login-time classroom metadata.
func NewLoginClassroomInfo(c *Classroom) *LoginClassroomInfo {
	info := &LoginClassroomInfo{
		ID:                  c.ID,
		Name:                c.Name,
		ProgrammingLanguage: c.ProgrammingLanguage,
		LanguageLocked:      c.LanguageLocked,
		IsExam:              c.IsExam,
		PresetupCode:        c.PresetupCode,
	}
	if c.IsExam {
		limit := c.TimeLimit
		info.TimeLimit = &limit
	}
	return info
}

// CreateClassroomRequest is the payload for creating a classroom, optionally
// with its initial roster.
type CreateClassroomRequest struct {
	Name                string              `json:"name" binding:"required,min=1,max=255"`
	ProgrammingLanguage string              `json:"programming_language"`
	LanguageLocked      bool                `json:"language_locked"`
	Tasks               []string            `json:"tasks"`
	IsExam              bool                `json:"is_exam"`
	ExamStart           *time.Time          `json:"exam_start"`
	ExamEnd             *time.Time          `json:"exam_end" binding:"omitempty,gtfield=ExamStart"`
	TimeLimit           int64               `json:"time_limit"`
	TestCode            string              `json:"test_code"`
	PresetupCode        string              `json:"presetup_code"`
	Users               []CreateUserRequest `json:"users" binding:"omitempty,dive"`
}

// UpdateClassroomRequest is the payload for updating a classroom. Nil fields
// are left unchanged; a non-nil Users replaces the whole roster.
type UpdateClassroomRequest struct {
	Name                *string              `json:"name" binding:"omitempty,min=1,max=255"`
	ProgrammingLanguage *string              `json:"programming_language"`
	LanguageLocked      *bool                `json:"language_locked"`
	Tasks               *[]string            `json:"tasks"`
	IsExam              *bool                `json:"is_exam"`
	ExamStart           *time.Time           `json:"exam_start"`
	ExamEnd             *time.Time           `json:"exam_end"`
	TimeLimit           *int64               `json:"time_limit"`
	TestCode            *string              `json:"test_code"`
	PresetupCode        *string              `json:"presetup_code"`
	Users               *[]CreateUserRequest `json:"users" binding:"omitempty,dive"`
}
