package model

import (
	"reflect"
	"testing"
)

func TestDecodeTasks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"valid list", `["soal 1","soal 2"]`, []string{"soal 1", "soal 2"}},
		{"empty list", `[]`, []string{}},
		{"json null", `null`, []string{}},
		{"malformed json", `{broken`, []string{}},
		{"empty string", ``, []string{}},
		{"wrong type", `{"a":1}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeTasks(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeTasks(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tasks := []string{"implementasi stack", "implementasi queue"}
	if got := DecodeTasks(EncodeTasks(tasks)); !reflect.DeepEqual(got, tasks) {
		t.Errorf("round trip = %#v, want %#v", got, tasks)
	}
}

func TestNewLoginClassroomInfoTimeLimitOnlyForExams(t *testing.T) {
	exam := &Classroom{ID: 1, Name: "Ujian", IsExam: true, TimeLimit: 90}
	info := NewLoginClassroomInfo(exam)
	if info.TimeLimit == nil || *info.TimeLimit != 90 {
		t.Errorf("exam TimeLimit = %v, want 90", info.TimeLimit)
	}

	regular := &Classroom{ID: 2, Name: "Praktikum", IsExam: false, TimeLimit: 90}
	info = NewLoginClassroomInfo(regular)
	if info.TimeLimit != nil {
		t.Errorf("non-exam TimeLimit = %v, want nil", *info.TimeLimit)
	}
}
