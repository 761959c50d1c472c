package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/safes"
	"github.com/diallo-dev/coffrefort-backend/pkg/db/models"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
)

func TestSafeBalance(t *testing.T) {
	logg := newTestLogger()
	safeID := uuid.New()
	userID := uuid.New()

	call := func(target string, lookup safes.Service, balances ledger.Service) *httptest.ResponseRecorder {
		req := requestWithRouteParam(http.MethodGet, target, "safeID", safeID.String(), "")
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		SafeBalance(lookup, balances, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("current balance", func(t *testing.T) {
		balances := &stubBalanceService{info: ledger.BalanceInfo{AmountCents: 115000}}
		rec := call("/api/v1/safes/"+safeID.String()+"/balance", &stubSafeService{}, balances)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if balances.asOf != nil {
			t.Fatalf("expected nil asOf for current balance")
		}

		var envelope struct {
			Data ledger.BalanceInfo `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if envelope.Data.AmountCents != 115000 {
			t.Fatalf("expected 115000, got %d", envelope.Data.AmountCents)
		}
	})

	t.Run("historical as_of", func(t *testing.T) {
		balances := &stubBalanceService{}
		rec := call("/api/v1/safes/"+safeID.String()+"/balance?as_of=2024-03-10T12:00:00Z", &stubSafeService{}, balances)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		want := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		if balances.asOf == nil || !balances.asOf.Equal(want) {
			t.Fatalf("expected asOf %s, got %v", want, balances.asOf)
		}
	})

	t.Run("bad as_of", func(t *testing.T) {
		rec := call("/api/v1/safes/"+safeID.String()+"/balance?as_of=yesterday", &stubSafeService{}, &stubBalanceService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown safe maps to 404", func(t *testing.T) {
		balances := &stubBalanceService{err: ledger.ErrSafeNotFound}
		rec := call("/api/v1/safes/"+safeID.String()+"/balance", &stubSafeService{}, balances)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("membership gate", func(t *testing.T) {
		lookup := &stubSafeService{getErr: pkgerrors.New(pkgerrors.CodeForbidden, "not a member")}
		balances := &stubBalanceService{}
		rec := call("/api/v1/safes/"+safeID.String()+"/balance", lookup, balances)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if balances.called {
			t.Fatalf("balance must not be computed for non-members")
		}
	})
}

type stubSafeService struct {
	getErr error
}

func (s *stubSafeService) Create(ctx context.Context, input safes.CreateInput) (*models.Safe, error) {
	return &models.Safe{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubSafeService) Update(ctx context.Context, input safes.UpdateInput) (*models.Safe, error) {
	return &models.Safe{ID: input.SafeID, Name: input.Name}, nil
}

func (s *stubSafeService) Delete(ctx context.Context, safeID, actorUserID uuid.UUID) error {
	return nil
}

func (s *stubSafeService) Get(ctx context.Context, safeID, actorUserID uuid.UUID) (*models.Safe, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Safe{ID: safeID}, nil
}

func (s *stubSafeService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Safe, error) {
	return nil, nil
}

type stubBalanceService struct {
	info   ledger.BalanceInfo
	err    error
	asOf   *time.Time
	called bool
}

func (s *stubBalanceService) Balance(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (ledger.BalanceInfo, error) {
	s.called = true
	s.asOf = asOf
	return s.info, s.err
}

func (s *stubBalanceService) BalanceUncached(ctx context.Context, safeID uuid.UUID, asOf *time.Time) (ledger.BalanceInfo, error) {
	return s.Balance(ctx, safeID, asOf)
}

func (s *stubBalanceService) AggregateBalance(ctx context.Context, safeIDs []uuid.UUID, asOf *time.Time) (int64, error) {
	return 0, nil
}
