package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/copperstill/stillhouse-backend/api/responses"
	pkgerrors "github.com/copperstill/stillhouse-backend/pkg/errors"
	"github.com/copperstill/stillhouse-backend/pkg/logger"
)

const orgIDHeader = "X-Organization-Id"

type orgIDKey struct{}

// OrgContext resolves the caller's organization from the X-Organization-Id
// header and rejects requests without one. Tenancy is established upstream;
// every handler below reads the id from the request context and passes it
// down explicitly.
func OrgContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(orgIDHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "organization header is required"))
				return
			}

			orgID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
				return
			}

			ctx := context.WithValue(r.Context(), orgIDKey{}, orgID)
			if logg != nil {
				ctx = logg.WithOrgID(ctx, orgID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgIDFromContext returns the organization resolved by OrgContext, or
// uuid.Nil when the middleware did not run.
func OrgIDFromContext(ctx context.Context) uuid.UUID {
	if orgID, ok := ctx.Value(orgIDKey{}).(uuid.UUID); ok {
		return orgID
	}
	return uuid.Nil
}
