package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/logtrail/internal/access"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// LogQuerier defines the query engine operations the handlers depend on.
type LogQuerier interface {
	Search(ctx context.Context, app *models.Application, content string) ([]models.LogRecord, error)
	Recent(ctx context.Context, app *models.Application) ([]models.LogRecord, error)
	History(ctx context.Context, app *models.Application, before, content string) ([]models.LogRecord, error)
}

// NewSearchLogsHandler returns an http.HandlerFunc for GET /{applicationId}/logs/search.
func NewSearchLogsHandler(q LogQuerier) http.HandlerFunc {
	return logsHandler(func(r *http.Request, app *models.Application) ([]models.LogRecord, error) {
		return q.Search(r.Context(), app, r.URL.Query().Get("content"))
	})
}

// NewRecentLogsHandler returns an http.HandlerFunc for GET /{applicationId}/logs/recent.
func NewRecentLogsHandler(q LogQuerier) http.HandlerFunc {
	return logsHandler(func(r *http.Request, app *models.Application) ([]models.LogRecord, error) {
		return q.Recent(r.Context(), app)
	})
}

// NewHistoryLogsHandler returns an http.HandlerFunc for GET /{applicationId}/logs/history.
func NewHistoryLogsHandler(q LogQuerier) http.HandlerFunc {
	return logsHandler(func(r *http.Request, app *models.Application) ([]models.LogRecord, error) {
		params := r.URL.Query()
		return q.History(r.Context(), app, params.Get("before"), params.Get("content"))
	})
}

func logsHandler(run func(*http.Request, *models.Application) ([]models.LogRecord, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := access.ApplicationFrom(r.Context())
		if !ok {
			response.FromError(w, r, apperr.NotFound("application not found"))
			return
		}

		records, err := run(r, app)
		if err != nil {
			// The client is gone; nobody is left to answer.
			if r.Context().Err() != nil {
				return
			}
			response.FromError(w, r, err)
			return
		}
		response.JSON(w, records)
	}
}
