package model

import (
	"strings"

	"github.com/kelaskode/kelaskode-backend/internal/judge"
)

// JudgeSubmissionRequest is the payload accepted by the submissions endpoint.
// It mirrors the Judge0 submission fields plus an optional NPM; when NPM is
// set, the source code is persisted to that enrollment before forwarding.
type JudgeSubmissionRequest struct {
	SourceCode           string   `json:"source_code" binding:"required"`
	LanguageID           int      `json:"language_id" binding:"required"`
	Stdin                *string  `json:"stdin"`
	ExpectedOutput       *string  `json:"expected_output"`
	CPUTimeLimit         *float32 `json:"cpu_time_limit"`
	MemoryLimit          *int     `json:"memory_limit"`
	CompilerOptions      *string  `json:"compiler_options"`
	CommandLineArguments *string  `json:"command_line_arguments"`
	NPM                  *string  `json:"npm"`
}

// TrimmedNPM returns the NPM with surrounding whitespace removed, or the
// empty string when absent.
func (r *JudgeSubmissionRequest) TrimmedNPM() string {
	if r.NPM == nil {
		return ""
	}
	return strings.TrimSpace(*r.NPM)
}

// ToSubmission strips the local-only fields and produces the upstream payload.
func (r *JudgeSubmissionRequest) ToSubmission() *judge.SubmissionRequest {
	return &judge.SubmissionRequest{
		SourceCode:           r.SourceCode,
		LanguageID:           r.LanguageID,
		Stdin:                r.Stdin,
		ExpectedOutput:       r.ExpectedOutput,
		CPUTimeLimit:         r.CPUTimeLimit,
		MemoryLimit:          r.MemoryLimit,
		CompilerOptions:      r.CompilerOptions,
		CommandLineArguments: r.CommandLineArguments,
	}
}
