package registry_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/store"
	"github.com/kiranshivaraju/logtrail/pkg/esquery"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// --- Fake Store ---

type fakeStore struct {
	mu    sync.Mutex
	apps  map[uuid.UUID]*models.Application
	teams map[uuid.UUID]*models.Team

	getAppCalls int
	createErr   error
	listErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		apps:  map[uuid.UUID]*models.Application{},
		teams: map[uuid.UUID]*models.Team{},
	}
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) CreateApplication(_ context.Context, app *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *app
	cp.Key = ""
	f.apps[app.ID] = &cp
	return nil
}

func (f *fakeStore) GetApplication(_ context.Context, id uuid.UUID) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getAppCalls++
	a, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) ListApplicationsForUser(_ context.Context, userID string) ([]*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Application{}
	for _, a := range f.apps {
		if a.OwnedBy(userID) {
			out = append(out, a)
			continue
		}
		if a.TeamID != nil {
			if t, ok := f.teams[*a.TeamID]; ok && t.HasMember(userID) {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateApplicationName(_ context.Context, id uuid.UUID, name string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.Name = name
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (f *fakeStore) GetApplicationsByKeyPrefix(_ context.Context, prefix string) ([]*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Application
	for _, a := range f.apps {
		if a.KeyPrefix == prefix {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTeam(_ context.Context, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeStore) GetTeam(_ context.Context, id uuid.UUID) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	cp.MemberIDs = append([]string(nil), t.MemberIDs...)
	return &cp, nil
}

func (f *fakeStore) AddTeamMember(_ context.Context, id uuid.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	if !t.HasMember(userID) {
		t.MemberIDs = append(t.MemberIDs, userID)
	}
	return nil
}

func (f *fakeStore) RemoveTeamMember(_ context.Context, id uuid.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return store.ErrNotFound
	}
	kept := t.MemberIDs[:0]
	for _, m := range t.MemberIDs {
		if m != userID {
			kept = append(kept, m)
		}
	}
	t.MemberIDs = kept
	return nil
}

// --- Fake Search ---

type fakeSearch struct {
	mu      sync.Mutex
	indices map[string]bool
	ensured []string
	err     error
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{indices: map[string]bool{}}
}

func (f *fakeSearch) EnsureIndex(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, name)
	if f.err != nil {
		return false, f.err
	}
	existed := f.indices[name]
	f.indices[name] = true
	return existed, nil
}

func (f *fakeSearch) Search(_ context.Context, _ string, _ esquery.Query) ([]models.LogRecord, error) {
	return []models.LogRecord{}, nil
}

func (f *fakeSearch) Ping(_ context.Context) error { return nil }

// --- Fake Cache ---

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
	dels   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Ping(_ context.Context) error { return nil }

func (c *fakeCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}
