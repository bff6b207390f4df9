package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/access"
	mw "github.com/kiranshivaraju/logtrail/internal/api/middleware"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/registry"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// ApplicationService defines the registry operations the handlers depend on.
type ApplicationService interface {
	ListApplicationsFor(ctx context.Context, userID string) ([]models.ApplicationSummary, error)
	CreateApplication(ctx context.Context, userID string, in registry.CreateApplicationInput) (*models.Application, error)
	RenameApplication(ctx context.Context, id uuid.UUID, name string) (*models.Application, error)
}

// NewListApplicationsHandler returns an http.HandlerFunc for GET /list.
func NewListApplicationsHandler(svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.FromError(w, r, apperr.Unauthenticated("authentication required"))
			return
		}

		apps, err := svc.ListApplicationsFor(r.Context(), userID)
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		response.JSON(w, apps)
	}
}

// NewCreateApplicationHandler returns an http.HandlerFunc for POST /create.
// The response is the only place the raw ingestion key is ever shown.
func NewCreateApplicationHandler(svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.FromError(w, r, apperr.Unauthenticated("authentication required"))
			return
		}

		var req registry.CreateApplicationInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		app, err := svc.CreateApplication(r.Context(), userID, req)
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		response.Created(w, app)
	}
}

// NewGetApplicationHandler returns an http.HandlerFunc for GET /{applicationId}.
func NewGetApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := access.ApplicationFrom(r.Context())
		if !ok {
			response.FromError(w, r, apperr.NotFound("application not found"))
			return
		}
		response.JSON(w, app.Summary())
	}
}

// NewRenameApplicationHandler returns an http.HandlerFunc for PATCH /{applicationId}.
func NewRenameApplicationHandler(svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := access.ApplicationFrom(r.Context())
		if !ok {
			response.FromError(w, r, apperr.NotFound("application not found"))
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		updated, err := svc.RenameApplication(r.Context(), app.ID, req.Name)
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		response.JSON(w, updated.Summary())
	}
}
