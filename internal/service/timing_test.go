package service

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWithinAdmissionWindow(t *testing.T) {
	start := ts("2026-03-10T08:00:00Z")
	end := ts("2026-03-10T10:00:00Z")

	tests := []struct {
		name  string
		now   time.Time
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{"before start", ts("2026-03-10T07:59:59Z"), &start, &end, false},
		{"exactly at start", start, &start, &end, true},
		{"inside window", ts("2026-03-10T09:00:00Z"), &start, &end, true},
		{"exactly at end", end, &start, &end, true},
		{"after end", ts("2026-03-10T10:00:01Z"), &start, &end, false},
		{"no bounds", ts("2026-03-10T09:00:00Z"), nil, nil, true},
		{"only start, after it", ts("2026-03-10T23:00:00Z"), &start, nil, true},
		{"only start, before it", ts("2026-03-10T07:00:00Z"), &start, nil, false},
		{"only end, before it", ts("2026-03-10T07:00:00Z"), nil, &end, true},
		{"only end, after it", ts("2026-03-10T11:00:00Z"), nil, &end, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinAdmissionWindow(tt.now, tt.start, tt.end); got != tt.want {
				t.Errorf("WithinAdmissionWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeadline(t *testing.T) {
	started := ts("2026-03-10T08:15:00Z")

	if got := Deadline(started, 90); !got.Equal(ts("2026-03-10T09:45:00Z")) {
		t.Errorf("Deadline(90m) = %v", got)
	}
	if got := Deadline(started, 0); !got.Equal(started) {
		t.Errorf("Deadline(0m) = %v, want start itself", got)
	}
}

func TestRemainingFloorsAtZero(t *testing.T) {
	deadline := ts("2026-03-10T10:00:00Z")

	if got := Remaining(ts("2026-03-10T09:59:00Z"), deadline); got != time.Minute {
		t.Errorf("Remaining before deadline = %v, want 1m", got)
	}
	if got := Remaining(deadline, deadline); got != 0 {
		t.Errorf("Remaining at deadline = %v, want 0", got)
	}
	if got := Remaining(ts("2026-03-10T12:00:00Z"), deadline); got != 0 {
		t.Errorf("Remaining past deadline = %v, want 0 (never negative)", got)
	}
}
