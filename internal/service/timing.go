package service

import (
	"time"
)

// Timing model for exam sessions. These are pure functions over stored
// fields; all validation and I/O lives in the callers.
//
// Two independent intervals govern a session: the classroom-wide admission
// window [exam_start, exam_end] gates when a user may enter, and the
// per-user deadline (exam_started_at + time_limit) bounds how long one
// attempt may run.

// WithinAdmissionWindow reports whether now falls inside the admission
// window. A nil bound leaves that side unbounded.
func WithinAdmissionWindow(now time.Time, examStart, examEnd *time.Time) bool {
	if examStart != nil && now.Before(*examStart) {
		return false
	}
	if examEnd != nil && now.After(*examEnd) {
		return false
	}
	return true
}

// Deadline computes the per-user deadline from the recorded start and the
// classroom time limit in minutes. A non-positive limit yields a deadline at
// or before the start, which callers treat as already expired.
func Deadline(examStartedAt time.Time, timeLimitMinutes int64) time.Time {
	return examStartedAt.Add(time.Duration(timeLimitMinutes) * time.Minute)
}

// Remaining returns the time left until deadline, floored at zero.
func Remaining(now, deadline time.Time) time.Duration {
	if r := deadline.Sub(now); r > 0 {
		return r
	}
	return 0
}
