package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/campushub/backend/pkg/apperr"
)

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", apperr.Unauthenticated("no token"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("not yours"), http.StatusForbidden},
		{"invalid", apperr.Invalid("bad field"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("already reviewed"), http.StatusConflict},
		{"not found", apperr.NotFound("missing"), http.StatusNotFound},
		{"fatal", apperr.Fatal("orphan", errors.New("write failed")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)

		if w.Code != tc.wantStatus {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.wantStatus, w.Code)
		}
		var body Body
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode body: %v", tc.name, err)
		}
		if body.Success {
			t.Errorf("%s: success must be false", tc.name)
		}
		if body.Error == "" {
			t.Errorf("%s: expected an error message", tc.name)
		}
	}
}

func TestFatalDoesNotLeakCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, apperr.Fatal("event evt-1 created but request update failed", errors.New("redis down")))

	var body Body
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal inconsistency, contact support" {
		t.Errorf("fatal message leaked internals: %q", body.Error)
	}
}
