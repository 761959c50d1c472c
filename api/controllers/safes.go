package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/api/responses"
	"github.com/diallo-dev/coffrefort-backend/api/validators"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/safes"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

type safeCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type safeUpdateRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=120"`
	Active bool   `json:"active"`
}

// SafeCreate registers a new safe owned by the caller.
func SafeCreate(svc safes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req safeCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		safe, err := svc.Create(r.Context(), safes.CreateInput{
			Name:        validators.SanitizeString(req.Name, 120),
			ActorUserID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, safe)
	}
}

// SafeList returns every safe the caller belongs to.
func SafeList(svc safes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SafeGet returns one safe, membership required.
func SafeGet(svc safes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		safe, err := svc.Get(r.Context(), safeID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, safe)
	}
}

// SafeUpdate renames a safe or toggles its active flag.
func SafeUpdate(svc safes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req safeUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		safe, err := svc.Update(r.Context(), safes.UpdateInput{
			SafeID:      safeID,
			Name:        validators.SanitizeString(req.Name, 120),
			Active:      req.Active,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, safe)
	}
}

// SafeDelete removes an empty safe and its history.
func SafeDelete(svc safes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), safeID, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SafeBalance returns the reconstructed balance, optionally at a historical
// instant via the as_of query parameter (RFC 3339).
func SafeBalance(lookup safes.Service, balances ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Membership gate; the ledger service itself has no access model.
		if _, err := lookup.Get(r.Context(), safeID, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asOf, err := parseAsOf(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		info, err := balances.Balance(r.Context(), safeID, asOf)
		if err != nil {
			if errors.Is(err, ledger.ErrSafeNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "safe not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

func parseAsOf(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "as_of must be RFC 3339")
	}
	return &at, nil
}
