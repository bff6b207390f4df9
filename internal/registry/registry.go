// Package registry creates and looks up Applications and Teams. It is the only
// writer of those records and keeps the application cache coherent with the
// store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/cache"
	"github.com/kiranshivaraju/logtrail/internal/search"
	"github.com/kiranshivaraju/logtrail/internal/store"
	"github.com/kiranshivaraju/logtrail/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// MaxNameLength bounds application and team names, in characters.
const MaxNameLength = 255

// CreateApplicationInput is the body of a create request.
type CreateApplicationInput struct {
	Name   string     `json:"name"`
	TeamID *uuid.UUID `json:"teamId"`
}

// Registry manages Application and Team records.
type Registry struct {
	store   store.Store
	apps    *cache.ApplicationCache
	search  search.Client
	keyCost int
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithKeyCost overrides the bcrypt cost used for ingestion keys.
func WithKeyCost(cost int) Option {
	return func(r *Registry) { r.keyCost = cost }
}

// New creates a Registry.
func New(s store.Store, apps *cache.ApplicationCache, sc search.Client, opts ...Option) *Registry {
	r := &Registry{
		store:   s,
		apps:    apps,
		search:  sc,
		keyCost: bcrypt.DefaultCost,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ListApplicationsFor returns every application userID owns directly or
// through team membership.
func (r *Registry) ListApplicationsFor(ctx context.Context, userID string) ([]models.ApplicationSummary, error) {
	apps, err := r.store.ListApplicationsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to list applications", err)
	}

	out := make([]models.ApplicationSummary, 0, len(apps))
	seen := make(map[uuid.UUID]struct{}, len(apps))
	for _, a := range apps {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a.Summary())
	}
	return out, nil
}

// CreateApplication creates an application owned by userID, or by the given
// team when userID belongs to it. The returned record carries the raw key;
// it is never retrievable again.
func (r *Registry) CreateApplication(ctx context.Context, userID string, in CreateApplicationInput) (*models.Application, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	app := &models.Application{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.TeamID != nil {
		team, err := r.store.GetTeam(ctx, *in.TeamID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.UnknownTeam(fmt.Sprintf("team %s does not exist", *in.TeamID))
		}
		if err != nil {
			return nil, apperr.Unavailable("failed to load team", err)
		}
		if !team.HasMember(userID) {
			return nil, apperr.Forbidden("you are not a member of this team")
		}
		teamID := team.ID
		app.TeamID = &teamID
	} else {
		owner := userID
		app.OwnerID = &owner
	}

	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	hash, err := hashKey(key, r.keyCost)
	if err != nil {
		return nil, err
	}
	app.KeyPrefix = key[:KeyPrefixLength]
	app.KeyHash = hash

	if err := r.store.CreateApplication(ctx, app); err != nil {
		return nil, apperr.Unavailable("failed to create application", err)
	}

	// The record is committed; index provisioning is best effort. Reads run
	// EnsureIndex again, so a failure here heals on first use.
	index := search.IndexName(app.ID)
	if _, err := r.search.EnsureIndex(context.WithoutCancel(ctx), index); err != nil {
		slog.Warn("index provisioning failed",
			"application_id", app.ID,
			"index", index,
			"error", err,
		)
	}

	slog.Info("application created",
		"application_id", app.ID,
		"user_id", userID,
		"team_id", app.TeamID,
	)

	app.Key = key
	return app, nil
}

// GetApplication loads an application, preferring the cache. Cache failures
// fall back to the store.
func (r *Registry) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	if r.apps != nil {
		app, ok, err := r.apps.Get(ctx, id)
		if err != nil {
			slog.Warn("application cache read failed", "application_id", id, "error", err)
		}
		if ok {
			return app, nil
		}
	}

	app, err := r.store.GetApplication(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("application not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load application", err)
	}

	if r.apps != nil {
		if err := r.apps.Set(ctx, app); err != nil {
			slog.Warn("application cache write failed", "application_id", id, "error", err)
		}
	}
	return app, nil
}

// GetTeam always reads the store. Membership decisions must see the current
// member set.
func (r *Registry) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := r.store.GetTeam(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.UnknownTeam(fmt.Sprintf("team %s does not exist", id))
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to load team", err)
	}
	return team, nil
}

// RenameApplication changes an application's name and drops its cache entry.
func (r *Registry) RenameApplication(ctx context.Context, id uuid.UUID, name string) (*models.Application, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	app, err := r.store.UpdateApplicationName(ctx, id, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("application not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to rename application", err)
	}

	r.invalidate(ctx, id)
	return app, nil
}

// AuthenticateKey resolves a raw ingestion key to its application.
func (r *Registry) AuthenticateKey(ctx context.Context, rawKey string) (*models.Application, error) {
	if len(rawKey) != KeyLength {
		return nil, apperr.Unauthenticated("invalid key")
	}

	candidates, err := r.store.GetApplicationsByKeyPrefix(ctx, rawKey[:KeyPrefixLength])
	if err != nil {
		return nil, apperr.Unavailable("failed to validate key", err)
	}
	for _, app := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(app.KeyHash), []byte(rawKey)) == nil {
			return app, nil
		}
	}
	return nil, apperr.Unauthenticated("invalid key")
}

// ProvisionIndex ensures the application's index exists. It reports whether
// the index was already present.
func (r *Registry) ProvisionIndex(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := r.GetApplication(ctx, id); err != nil {
		return false, err
	}
	existed, err := r.search.EnsureIndex(ctx, search.IndexName(id))
	if err != nil {
		return false, apperr.Unavailable("failed to provision index", err)
	}
	return existed, nil
}

// --- Teams ---

// CreateTeam creates a team with the given initial members.
func (r *Registry) CreateTeam(ctx context.Context, name string, memberIDs []string) (*models.Team, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	team := &models.Team{
		ID:        uuid.New(),
		Name:      name,
		MemberIDs: dedupe(memberIDs),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateTeam(ctx, team); err != nil {
		return nil, apperr.Unavailable("failed to create team", err)
	}
	return team, nil
}

// AddTeamMember grants userID access to every application the team owns.
func (r *Registry) AddTeamMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	return r.teamWrite(r.store.AddTeamMember(ctx, teamID, userID), teamID)
}

// RemoveTeamMember revokes the team's access for userID. Teams are never
// cached, so the next resolution already denies.
func (r *Registry) RemoveTeamMember(ctx context.Context, teamID uuid.UUID, userID string) error {
	return r.teamWrite(r.store.RemoveTeamMember(ctx, teamID, userID), teamID)
}

func (r *Registry) teamWrite(err error, teamID uuid.UUID) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.UnknownTeam(fmt.Sprintf("team %s does not exist", teamID))
	}
	if err != nil {
		return apperr.Unavailable("failed to update team", err)
	}
	return nil
}

func (r *Registry) invalidate(ctx context.Context, id uuid.UUID) {
	if r.apps == nil {
		return
	}
	if err := r.apps.Invalidate(ctx, id); err != nil {
		slog.Warn("application cache invalidation failed", "application_id", id, "error", err)
	}
}

// validateName trims a display name and enforces its bounds.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.MissingParameter("name")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperr.Validation(fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	}
	return name, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
