package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/api/apitest"
	"github.com/rastreiamais/rastreia/internal/apperr"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return tok
}

func TestStorePersistsWithPrivateMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	st, err := Open(path, true)
	require.NoError(t, err)
	assert.False(t, st.LoggedIn())

	require.NoError(t, st.Set(Session{Access: "a", Refresh: "r", Role: api.RoleManager, Username: "ana", UserID: 3}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Open(path, true)
	require.NoError(t, err)
	assert.Equal(t, "ana", again.Session().Username)
	assert.Equal(t, api.RoleManager, again.Session().Role)

	require.NoError(t, again.Update("a2", ""))
	assert.Equal(t, "a2", again.AccessToken())
	assert.Equal(t, "r", again.RefreshToken(), "refresh kept when not rotated")

	require.NoError(t, again.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, again.Session())
}

func TestNonPersistentStoreNeverWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	st, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, st.Set(Session{Access: "a", Refresh: "r"}))
	assert.True(t, st.LoggedIn())
	assert.Empty(t, st.Path())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := Open(path, true)
	assert.Error(t, err)
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{
		"user_id":         42,
		"sub":             "42",
		"username":        "ana",
		"professional_id": 7,
		"exp":             exp.Unix(),
	})
	c, err := ParseClaims(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", c.UserID)
	assert.Equal(t, 42, c.UserIDInt())
	assert.Equal(t, "ana", c.Username)
	assert.Equal(t, 7, c.ProfessionalID)
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(exp.Add(-time.Second)))
	assert.True(t, c.Expired(exp))

	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
	_, err = ParseClaims("")
	assert.Error(t, err)
}

func TestDraftUIDFallbacks(t *testing.T) {
	assert.Equal(t, "9", DraftUID(Claims{UserID: "9", Subject: "s", Username: "u"}))
	assert.Equal(t, "s", DraftUID(Claims{Subject: "s", Username: "u"}))
	assert.Equal(t, "u", DraftUID(Claims{Username: "u"}))
	assert.Equal(t, "anon", DraftUID(Claims{}))
	assert.Equal(t, "anon", DraftUIDFromToken("garbage"))
	assert.Equal(t, "5", DraftUIDFromToken(signed(t, jwt.MapClaims{"user_id": "5"})))
}

func TestPickRole(t *testing.T) {
	assert.Equal(t, api.RoleManager, PickRole([]api.Role{api.RolePatient, api.RoleManager, api.RoleProfessional}))
	assert.Equal(t, api.RoleProfessional, PickRole([]api.Role{api.RolePatient, api.RoleProfessional}))
	assert.Equal(t, api.RolePatient, PickRole([]api.Role{api.RolePatient}))
	assert.Equal(t, api.Role(""), PickRole([]api.Role{"OTHER"}))
}

func TestAllowed(t *testing.T) {
	off := Features{}
	on := Features{PatientPortal: true}

	assert.True(t, Allowed(RouteGestor, api.RoleManager, off))
	assert.False(t, Allowed(RouteGestor, api.RoleProfessional, off))
	assert.True(t, Allowed(RoutePacientes, api.RoleProfessional, off))
	assert.True(t, Allowed(RoutePacientes, api.RoleManager, off))
	assert.False(t, Allowed(RoutePacientes, api.RolePatient, off))
	assert.False(t, Allowed(RouteExportacoes, api.RoleProfessional, off))
	assert.False(t, Allowed(RouteMe, api.RolePatient, off))
	assert.True(t, Allowed(RouteMe, api.RolePatient, on))

	err := Require(RouteGestor, api.RoleProfessional, off)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Esta conta não possui o papel necessário (MANAGER).", apperr.Message(err))
	assert.ErrorIs(t, Require(RoutePacientes, "", off), apperr.ErrUnauthorized)
	assert.NoError(t, Require(RoutePacientes, api.RoleManager, off))
	assert.Equal(t, RouteProfissional, Home(api.RoleProfessional))
}

func newBackend(t *testing.T, srv *apitest.Server, st *Store) *api.Client {
	t.Helper()
	return api.New(api.Options{BaseURL: srv.URL, Metrics: api.NewMetrics(prometheus.NewRegistry())}, st, nil)
}

func TestLoginStoresRole(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Me.Roles = []api.Role{api.RoleProfessional, api.RoleManager}
	st := Memory()

	s, err := Login(context.Background(), newBackend(t, srv, st), st, "admin", "secret", "", nil)
	require.NoError(t, err)
	assert.Equal(t, api.RoleManager, s.Role)
	assert.Equal(t, "admin", s.Username)
	assert.Equal(t, 1, s.UserID)
	assert.True(t, st.LoggedIn())
}

func TestLoginRefusesMissingRole(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	st := Memory()

	_, err := Login(context.Background(), newBackend(t, srv, st), st, "admin", "secret", api.RoleManager, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "Esta conta não possui o papel necessário (MANAGER).", apperr.Message(err))
	assert.False(t, st.LoggedIn())
}

func TestLoginBadCredentials(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	st := Memory()

	_, err := Login(context.Background(), newBackend(t, srv, st), st, "admin", "nope", "", nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.False(t, st.LoggedIn())
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	st := Memory()
	b := newBackend(t, srv, st)
	_, err := Login(context.Background(), b, st, "admin", "secret", "", nil)
	require.NoError(t, err)

	srv.Fail("POST", api.PathLogout, 500, "")
	require.NoError(t, Logout(context.Background(), b, st, nil))
	assert.False(t, st.LoggedIn())
}
