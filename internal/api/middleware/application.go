package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/access"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// ApplicationResolver decides whether a user may act on an application.
type ApplicationResolver interface {
	ResolveApplication(ctx context.Context, applicationID uuid.UUID, userID string) (*models.Application, error)
}

// RequireApplication resolves the {applicationId} path parameter for the
// authenticated user and attaches the application to the request context.
// Handlers behind it read it with access.ApplicationFrom.
func RequireApplication(resolver ApplicationResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				response.FromError(w, r, apperr.Unauthenticated("authentication required"))
				return
			}

			id, err := uuid.Parse(chi.URLParam(r, "applicationId"))
			if err != nil {
				response.FromError(w, r, apperr.NotFound("application not found"))
				return
			}

			app, err := resolver.ResolveApplication(r.Context(), id, userID)
			if err != nil {
				response.FromError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithApplication(r.Context(), app)))
		})
	}
}
