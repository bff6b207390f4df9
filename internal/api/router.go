package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/logtrail/internal/api/middleware"
	"github.com/kiranshivaraju/logtrail/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit
	Resolver  mw.ApplicationResolver

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	ListApplications  http.HandlerFunc
	CreateApplication http.HandlerFunc
	GetApplication    http.HandlerFunc
	RenameApplication http.HandlerFunc
	SearchLogs        http.HandlerFunc
	RecentLogs        http.HandlerFunc
	HistoryLogs       http.HandlerFunc
	Trail             http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Protected routes
	r.Route("/api/v1/applications", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/list", orNotImplemented(deps.ListApplications))
		r.Post("/create", orNotImplemented(deps.CreateApplication))

		// Everything below acts on one application and passes the resolver first.
		r.Route("/{applicationId}", func(r chi.Router) {
			r.Use(mw.RequireApplication(deps.Resolver))

			r.Get("/", orNotImplemented(deps.GetApplication))
			r.Patch("/", orNotImplemented(deps.RenameApplication))

			r.Get("/logs/search", orNotImplemented(deps.SearchLogs))
			r.Get("/logs/recent", orNotImplemented(deps.RecentLogs))
			r.Get("/logs/history", orNotImplemented(deps.HistoryLogs))

			r.Get("/trail", orNotImplemented(deps.Trail))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "Endpoint not yet implemented")
	}
}
