package controllers

import (
	"net/http"
	"time"

	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/api/responses"
	"github.com/diallo-dev/coffrefort-backend/api/validators"
	"github.com/diallo-dev/coffrefort-backend/internal/inventories"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

type inventoryCreateRequest struct {
	CountedAt          *time.Time   `json:"counted_at,omitempty"`
	Details            []detailLine `json:"details" validate:"required,min=1,dive"`
	DeclaredTotalCents *int64       `json:"declared_total_cents,omitempty"`
}

// InventoryCreate records a full physical count, which becomes the safe's
// new balance checkpoint.
func InventoryCreate(svc inventories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req inventoryCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventories.CreateInput{
			SafeID:             safeID,
			ActorUserID:        middleware.UserIDFromContext(r.Context()),
			Details:            toDetails(req.Details),
			DeclaredTotalCents: req.DeclaredTotalCents,
		}
		if req.CountedAt != nil {
			input.CountedAt = *req.CountedAt
		}

		inventory, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventory)
	}
}

// InventoryList returns a safe's count history, newest first.
func InventoryList(svc inventories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := queryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := queryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), inventories.ListInput{
			SafeID:      safeID,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			From:        from,
			To:          to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// InventoryGet returns one count with its denomination lines.
func InventoryGet(svc inventories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := pathUUID(r, "inventoryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inventory, err := svc.Get(r.Context(), inventoryID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventory)
	}
}
