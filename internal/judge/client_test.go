package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSubmitForwardsAndReturnsResult(t *testing.T) {
	var gotQuery string
	var gotBody SubmissionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":{"id":3,"description":"Accepted"},"stdout":"ok\n"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	result, err := client.Submit(context.Background(), &SubmissionRequest{
		SourceCode: "print('ok')",
		LanguageID: 71,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !strings.Contains(gotQuery, "wait=true") || !strings.Contains(gotQuery, "base64_encoded=false") {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if gotBody.SourceCode != "print('ok')" || gotBody.LanguageID != 71 {
		t.Errorf("forwarded body mismatch: %+v", gotBody)
	}

	var parsed map[string]any
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if parsed["stdout"] != "ok\n" {
		t.Errorf("result not passed through unchanged: %v", parsed)
	}
}

func TestSubmitNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"queue is full"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	_, err := client.Submit(context.Background(), &SubmissionRequest{SourceCode: "x", LanguageID: 1})

	var judgeErr *Error
	if !errors.As(err, &judgeErr) {
		t.Fatalf("expected *judge.Error, got %v", err)
	}
	if judgeErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", judgeErr.StatusCode)
	}
	if !strings.Contains(judgeErr.Body, "queue is full") {
		t.Errorf("Body = %q, want upstream body", judgeErr.Body)
	}
}

func TestSubmitTimeoutIsExternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 10*time.Millisecond, zerolog.Nop())
	_, err := client.Submit(context.Background(), &SubmissionRequest{SourceCode: "x", LanguageID: 1})

	var judgeErr *Error
	if !errors.As(err, &judgeErr) {
		t.Fatalf("expected *judge.Error for timeout, got %v", err)
	}
	if judgeErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", judgeErr.StatusCode)
	}
}
