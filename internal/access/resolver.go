// Package access decides whether a user may act on an application.
package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/metrics"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// Loader is the subset of the registry the resolver reads from.
type Loader interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// Resolver is the single gate in front of every application-scoped operation.
// The decision is recomputed on every call; only the application record may
// come from cache.
type Resolver struct {
	loader Loader
}

// NewResolver creates a Resolver.
func NewResolver(l Loader) *Resolver {
	return &Resolver{loader: l}
}

// ResolveApplication returns the application when userID owns it or belongs
// to its team.
func (r *Resolver) ResolveApplication(ctx context.Context, applicationID uuid.UUID, userID string) (*models.Application, error) {
	start := time.Now()
	app, err := r.resolve(ctx, applicationID, userID)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	metrics.ObserveResolve(outcome, elapsed)
	slog.Debug("application resolved",
		"application_id", applicationID,
		"user_id", userID,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
	)
	return app, err
}

func (r *Resolver) resolve(ctx context.Context, applicationID uuid.UUID, userID string) (*models.Application, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	app, err := r.loader.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.OwnedBy(userID) {
		return app, nil
	}

	if app.TeamID != nil {
		team, err := r.loader.GetTeam(ctx, *app.TeamID)
		switch {
		case err == nil:
			if team.HasMember(userID) {
				return app, nil
			}
		case apperr.KindOf(err) == apperr.KindUnknownTeam:
			// A dangling team reference grants nothing.
		default:
			return nil, err
		}
	}

	return nil, apperr.Forbidden("you do not have access to this application")
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindInternal:
		if err == nil {
			return metrics.OutcomeGranted
		}
		return metrics.OutcomeError
	case apperr.KindForbidden, apperr.KindUnauthenticated:
		return metrics.OutcomeForbidden
	case apperr.KindNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
