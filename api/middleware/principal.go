package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/diallo-dev/coffrefort-backend/api/responses"
	pkgerrors "github.com/diallo-dev/coffrefort-backend/pkg/errors"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

type principalKey struct{}

// Principal requires a valid X-User-Id header and stores the caller identity
// on the context. Authentication itself happens upstream; this service only
// consumes the asserted identity.
func Principal(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(userIDHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID stores the caller identity on the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, principalKey{}, userID)
}

// UserIDFromContext returns the authenticated caller, or uuid.Nil when the
// request did not pass Principal.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if userID, ok := ctx.Value(principalKey{}).(uuid.UUID); ok {
		return userID
	}
	return uuid.Nil
}
