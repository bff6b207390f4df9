package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	// ListApplicationsForUser returns applications owned by userID plus those
	// owned by any team listing userID as a member, each at most once.
	ListApplicationsForUser(ctx context.Context, userID string) ([]*models.Application, error)
	UpdateApplicationName(ctx context.Context, id uuid.UUID, name string) (*models.Application, error)
	GetApplicationsByKeyPrefix(ctx context.Context, prefix string) ([]*models.Application, error)

	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	AddTeamMember(ctx context.Context, id uuid.UUID, userID string) error
	RemoveTeamMember(ctx context.Context, id uuid.UUID, userID string) error
}
