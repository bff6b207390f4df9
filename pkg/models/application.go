// Package models contains shared data models used across the logtrail codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Application is a tenant: a named log stream owned either by a single user
// or by a team. Exactly one of OwnerID and TeamID is set.
//
// The raw ingestion key is only populated on the record returned from
// creation; only its prefix and bcrypt hash are persisted.
type Application struct {
	ID        uuid.UUID  `db:"id"         json:"id"`
	Name      string     `db:"name"       json:"name"`
	Key       string     `db:"-"          json:"key,omitempty"`
	KeyPrefix string     `db:"key_prefix" json:"-"`
	KeyHash   string     `db:"key_hash"   json:"-"`
	OwnerID   *string    `db:"owner_id"   json:"ownerId"`
	TeamID    *uuid.UUID `db:"team_id"    json:"teamId"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// ApplicationSummary is the externally visible projection of an Application.
// It never carries the ingestion key.
type ApplicationSummary struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	TeamID    *uuid.UUID `json:"teamId"`
	OwnerID   *string    `json:"ownerId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Summary projects the application for listings and lookups.
func (a *Application) Summary() ApplicationSummary {
	return ApplicationSummary{
		ID:        a.ID,
		Name:      a.Name,
		TeamID:    a.TeamID,
		OwnerID:   a.OwnerID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// OwnedBy reports whether userID is the direct owner.
func (a *Application) OwnedBy(userID string) bool {
	return a.OwnerID != nil && *a.OwnerID == userID
}
