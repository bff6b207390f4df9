package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// cachedApplication mirrors the persisted columns of models.Application.
// The model hides the key material from JSON, so it gets its own shape here.
type cachedApplication struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	KeyPrefix string     `json:"key_prefix"`
	KeyHash   string     `json:"key_hash"`
	OwnerID   *string    `json:"owner_id"`
	TeamID    *uuid.UUID `json:"team_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ApplicationCache stores Application records for a bounded time. Entries
// must be invalidated on every write to the application.
type ApplicationCache struct {
	cache Cache
	ttl   time.Duration
}

// NewApplicationCache creates an ApplicationCache over c.
func NewApplicationCache(c Cache, ttl time.Duration) *ApplicationCache {
	return &ApplicationCache{cache: c, ttl: ttl}
}

// Get returns the cached application, or false on a miss.
func (a *ApplicationCache) Get(ctx context.Context, id uuid.UUID) (*models.Application, bool, error) {
	raw, found, err := a.cache.Get(ctx, ApplicationKey(id))
	if err != nil || !found {
		return nil, false, err
	}
	var c cachedApplication
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false, err
	}
	return &models.Application{
		ID:        c.ID,
		Name:      c.Name,
		KeyPrefix: c.KeyPrefix,
		KeyHash:   c.KeyHash,
		OwnerID:   c.OwnerID,
		TeamID:    c.TeamID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, true, nil
}

// Set stores app. The raw key is never cached.
func (a *ApplicationCache) Set(ctx context.Context, app *models.Application) error {
	raw, err := json.Marshal(cachedApplication{
		ID:        app.ID,
		Name:      app.Name,
		KeyPrefix: app.KeyPrefix,
		KeyHash:   app.KeyHash,
		OwnerID:   app.OwnerID,
		TeamID:    app.TeamID,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return a.cache.Set(ctx, ApplicationKey(app.ID), raw, a.ttl)
}

// Invalidate drops the cached entry for id.
func (a *ApplicationCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return a.cache.Delete(ctx, ApplicationKey(id))
}
