package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/api/responses"
	"github.com/diallo-dev/coffrefort-backend/internal/dashboard"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

// Dashboard returns the caller's aggregated view. An optional safe_id query
// parameter narrows it to a single safe.
func Dashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID := uuid.Nil
		if raw := r.URL.Query().Get("safe_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid safe_id"))
				return
			}
			safeID = parsed
		}

		view, err := svc.Stats(r.Context(), middleware.UserIDFromContext(r.Context()), safeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
