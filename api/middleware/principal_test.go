package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

func TestPrincipal(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
	userID := uuid.New()

	var seen uuid.UUID
	handler := Principal(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/safes", nil)
		req.Header.Set("X-User-Id", userID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if seen != userID {
			t.Fatalf("expected %s on context, got %s", userID, seen)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		seen = uuid.Nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/safes", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if seen != uuid.Nil {
			t.Fatalf("handler must not run without identity")
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/safes", nil)
		req.Header.Set("X-User-Id", "not-a-uuid")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := UserIDFromContext(req.Context()); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil without principal, got %s", got)
	}
}
