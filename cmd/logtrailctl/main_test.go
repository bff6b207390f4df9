package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	mw "github.com/kiranshivaraju/logtrail/internal/api/middleware"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── fake admin ──────────────────────────────────────────────────────────────

type fakeAdmin struct {
	teams    map[uuid.UUID]*models.Team
	apps     map[string]*models.Application
	indexes  map[uuid.UUID]bool
	closed   bool
	lastName string
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		teams:   map[uuid.UUID]*models.Team{},
		apps:    map[string]*models.Application{},
		indexes: map[uuid.UUID]bool{},
	}
}

func (f *fakeAdmin) CreateTeam(_ context.Context, name string, members []string) (*models.Team, error) {
	f.lastName = name
	t := &models.Team{ID: uuid.New(), Name: name, MemberIDs: members}
	f.teams[t.ID] = t
	return t, nil
}

func (f *fakeAdmin) AddTeamMember(_ context.Context, id uuid.UUID, userID string) error {
	t, ok := f.teams[id]
	if !ok {
		return apperr.UnknownTeam("team does not exist")
	}
	t.MemberIDs = append(t.MemberIDs, userID)
	return nil
}

func (f *fakeAdmin) RemoveTeamMember(_ context.Context, id uuid.UUID, userID string) error {
	t, ok := f.teams[id]
	if !ok {
		return apperr.UnknownTeam("team does not exist")
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

func (f *fakeAdmin) ProvisionIndex(_ context.Context, id uuid.UUID) (bool, error) {
	existed := f.indexes[id]
	f.indexes[id] = true
	return existed, nil
}

func (f *fakeAdmin) AuthenticateKey(_ context.Context, raw string) (*models.Application, error) {
	app, ok := f.apps[raw]
	if !ok {
		return nil, apperr.Unauthenticated("invalid application key")
	}
	return app, nil
}

func (f *fakeAdmin) opener() AdminOpener {
	return func(context.Context) (Admin, func(), error) {
		return f, func() { f.closed = true }, nil
	}
}

func execute(t *testing.T, open AdminOpener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// ─── team commands ──────────────────────────────────────────────────────────

func TestTeamCreate(t *testing.T) {
	admin := newFakeAdmin()

	out, err := execute(t, admin.opener(), "team", "create", "platform", "-m", "u1", "--member", "u2")
	require.NoError(t, err)

	require.Len(t, admin.teams, 1)
	for id, team := range admin.teams {
		assert.Contains(t, out, id.String())
		assert.Equal(t, []string{"u1", "u2"}, team.MemberIDs)
	}
	assert.Equal(t, "platform", admin.lastName)
	assert.True(t, admin.closed)
}

func TestTeamMembership(t *testing.T) {
	admin := newFakeAdmin()
	team, _ := admin.CreateTeam(context.Background(), "platform", []string{"u1"})

	out, err := execute(t, admin.opener(), "team", "add-member", team.ID.String(), "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "User u2 added to team")
	assert.Equal(t, []string{"u1", "u2"}, team.MemberIDs)

	out, err = execute(t, admin.opener(), "team", "remove-member", team.ID.String(), "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "User u1 removed from team")
	assert.Equal(t, []string{"u2"}, team.MemberIDs)
}

func TestTeamMembership_UnknownTeam(t *testing.T) {
	admin := newFakeAdmin()

	_, err := execute(t, admin.opener(), "team", "add-member", uuid.NewString(), "u2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnknownTeam, apperr.KindOf(err))
}

func TestTeamMembership_InvalidID(t *testing.T) {
	_, err := execute(t, newFakeAdmin().opener(), "team", "add-member", "not-a-uuid", "u2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid team id")
}

// ─── provision / key ────────────────────────────────────────────────────────

func TestProvision(t *testing.T) {
	admin := newFakeAdmin()
	id := uuid.New()

	out, err := execute(t, admin.opener(), "provision", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "syslog-"+id.String()+" created")

	out, err = execute(t, admin.opener(), "provision", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "already present")
}

func TestKeyVerify(t *testing.T) {
	admin := newFakeAdmin()
	app := &models.Application{ID: uuid.New(), Name: "billing"}
	admin.apps["abcdefghij0123456789"] = app

	out, err := execute(t, admin.opener(), "key", "verify", "abcdefghij0123456789")
	require.NoError(t, err)
	assert.Equal(t, app.ID.String()+"\tbilling\n", out)

	_, err = execute(t, admin.opener(), "key", "verify", "wrong")
	require.Error(t, err)
}

func TestOpenerFailure(t *testing.T) {
	failing := func(context.Context) (Admin, func(), error) {
		return nil, nil, errors.New("connect database: refused")
	}

	_, err := execute(t, failing, "provision", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── token / tail ───────────────────────────────────────────────────────────

func TestToken(t *testing.T) {
	out, err := execute(t, nil, "token", "u1", "--secret", "s3cret")
	require.NoError(t, err)

	sub, err := mw.ValidateSession(strings.TrimSpace(out), []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
}

func TestToken_NoSecret(t *testing.T) {
	_, err := execute(t, nil, "token", "u1", "--secret", "")
	require.Error(t, err)
}

func TestTrailURL(t *testing.T) {
	id := uuid.MustParse("7f3c1e9a-0000-4000-8000-000000000001")

	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/v1/applications/" + id.String() + "/trail"},
		{"https://logs.example.com/", "wss://logs.example.com/api/v1/applications/" + id.String() + "/trail"},
		{"https://example.com/logtrail", "wss://example.com/logtrail/api/v1/applications/" + id.String() + "/trail"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := trailURL(tt.base, id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := trailURL("ftp://example.com", id)
	require.Error(t, err)
}

func TestTail_StreamsMessages(t *testing.T) {
	secret := []byte("s3cret")
	id := uuid.New()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if sub, err := mw.ValidateSession(token, secret); err != nil || sub != "u1" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/applications/"+id.String()+"/trail") {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"1","message":"first"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"2","message":"second"}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	out, err := execute(t, nil, "tail", id.String(), "--server", srv.URL, "--user", "u1", "--secret", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":\"1\",\"message\":\"first\"}\n{\"id\":\"2\",\"message\":\"second\"}\n", out)
}

func TestTail_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := execute(t, nil, "tail", uuid.NewString(), "--server", srv.URL, "--user", "u1", "--secret", "s3cret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestTail_RequiresUser(t *testing.T) {
	_, err := execute(t, nil, "tail", uuid.NewString(), "--secret", "s3cret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}
