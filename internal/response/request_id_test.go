package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRequestIDRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		*seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestIDMiddlewareKeepsValidCallerID(t *testing.T) {
	supplied := uuid.New().String()

	var seen string
	r := newRequestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, supplied)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != supplied {
		t.Errorf("RequestID = %q, want caller-supplied %q", seen, supplied)
	}
	if got := w.Header().Get(HeaderRequestID); got != supplied {
		t.Errorf("echoed header = %q, want %q", got, supplied)
	}
}

func TestRequestIDMiddlewareReplacesMalformedCallerID(t *testing.T) {
	var seen string
	r := newRequestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen == "not-a-uuid" {
		t.Fatal("middleware kept a malformed caller id")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("assigned id %q is not a UUID: %v", seen, err)
	}
	if got := w.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("echoed header = %q, want assigned id %q", got, seen)
	}
}

func TestRequestIDWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := RequestID(c); id != "" {
		t.Errorf("RequestID = %q, want empty string when the middleware did not run", id)
	}
}
