package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type finishPayload struct {
	NPM        string `json:"npm" binding:"required"`
	LanguageID int    `json:"language_id" binding:"required"`
}

func newJSONContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c
}

func TestBindReportsFieldsByJSONName(t *testing.T) {
	Setup()

	var dst finishPayload
	fields := Bind(newJSONContext(t, `{"npm":"2217051001"}`), &dst)
	if fields == nil {
		t.Fatal("Bind accepted a payload missing language_id")
	}
	msg, ok := fields["language_id"]
	if !ok {
		t.Fatalf("fields = %v, want the json name language_id as key", fields)
	}
	if !strings.Contains(msg, "required") {
		t.Errorf("message = %q, want a translated required-field message", msg)
	}
}

func TestBindMalformedJSONSurfacesDetail(t *testing.T) {
	Setup()

	var dst finishPayload
	fields := Bind(newJSONContext(t, `{"npm":`), &dst)
	if fields == nil {
		t.Fatal("Bind accepted malformed JSON")
	}
	if _, ok := fields["detail"]; !ok {
		t.Errorf("fields = %v, want a detail entry for non-validation errors", fields)
	}
}

func TestBindPassesValidPayload(t *testing.T) {
	Setup()

	var dst finishPayload
	if fields := Bind(newJSONContext(t, `{"npm":"2217051001","language_id":71}`), &dst); fields != nil {
		t.Fatalf("Bind rejected a valid payload: %v", fields)
	}
	if dst.NPM != "2217051001" || dst.LanguageID != 71 {
		t.Errorf("bound payload = %+v", dst)
	}
}
