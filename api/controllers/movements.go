package controllers

import (
	"net/http"
	"time"

	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/api/responses"
	"github.com/diallo-dev/coffrefort-backend/api/validators"
	"github.com/diallo-dev/coffrefort-backend/internal/denominations"
	"github.com/diallo-dev/coffrefort-backend/internal/movements"
	"github.com/diallo-dev/coffrefort-backend/pkg/enums"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

type detailLine struct {
	DenominationCents int64 `json:"denomination_cents" validate:"required,gt=0"`
	Quantity          int64 `json:"quantity" validate:"required,gt=0"`
}

type movementCreateRequest struct {
	Type       string       `json:"type" validate:"required"`
	HappenedAt *time.Time   `json:"happened_at,omitempty"`
	Details    []detailLine `json:"details" validate:"required,min=1,dive"`
}

type movementUpdateRequest struct {
	Type       string       `json:"type" validate:"required"`
	HappenedAt *time.Time   `json:"happened_at,omitempty"`
	Details    []detailLine `json:"details" validate:"required,min=1,dive"`
}

func toDetails(lines []detailLine) []denominations.Detail {
	out := make([]denominations.Detail, 0, len(lines))
	for _, line := range lines {
		out = append(out, denominations.Detail{
			DenominationCents: line.DenominationCents,
			Quantity:          line.Quantity,
		})
	}
	return out
}

// MovementCreate records a cash delta on a safe.
func MovementCreate(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		safeID, err := pathUUID(r, "safeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req movementCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		input := movements.CreateInput{
			SafeID:      safeID,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			Type:        movementType,
			Details:     toDetails(req.Details),
		}
		if req.HappenedAt != nil {
			input.HappenedAt = *req.HappenedAt
		}

		movement, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

// MovementList returns a safe's movement history. Optional from/to query
// parameters (RFC 3339) narrow the window; include_deleted=true includes
// tombstoned movements and limit caps the result count.
func MovementList(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
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
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), movements.ListInput{
			SafeID:         safeID,
			ActorUserID:    middleware.UserIDFromContext(r.Context()),
			From:           from,
			To:             to,
			IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
			Limit:          limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MovementGet returns one movement with its denomination lines.
func MovementGet(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Get(r.Context(), movementID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

// MovementUpdate rewrites a movement's type, instant and lines.
func MovementUpdate(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req movementUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type"))
			return
		}

		input := movements.UpdateInput{
			MovementID:  movementID,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			Type:        movementType,
			Details:     toDetails(req.Details),
		}
		if req.HappenedAt != nil {
			input.HappenedAt = *req.HappenedAt
		}

		movement, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

// MovementDelete tombstones a movement. Safe to retry.
func MovementDelete(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), movementID, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be RFC 3339")
	}
	return &at, nil
}
