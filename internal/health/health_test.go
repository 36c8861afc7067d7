package health

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/api/apitest"
	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
)

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "1",
		"exp":     exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		API:  config.APIConfig{BaseURL: "http://localhost:8000", Timeout: time.Second},
		Auth: config.AuthConfig{SessionFile: filepath.Join(dir, "session.json")},
		Draft: config.DraftConfig{
			Backend:  config.BackendFile,
			Dir:      filepath.Join(dir, "drafts"),
			Debounce: time.Second,
		},
		Log: config.LogConfig{Level: "info", Format: "console"},
	}
}

func byName(r *Report) map[string]CheckResult {
	m := make(map[string]CheckResult, len(r.Results))
	for _, res := range r.Results {
		m[res.Name] = res
	}
	return m
}

func TestHealthyInstall(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	cfg := validConfig(t)
	fs, err := draft.NewFileStore(cfg.Draft.Dir)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	st := auth.Memory()
	require.NoError(t, st.Set(auth.Session{
		Access:   token(t, now.Add(5*time.Minute)),
		Refresh:  token(t, now.Add(7*24*time.Hour)),
		Role:     api.RoleProfessional,
		Username: "admin",
	}))

	c := NewChecker(Deps{
		Config:  cfg,
		Session: st,
		API:     api.New(api.Options{BaseURL: srv.URL, Metrics: api.NewMetrics(prometheus.NewRegistry())}, nil, nil),
		Drafts:  fs,
		Now:     func() time.Time { return now },
	})
	r := c.RunAll(context.Background())

	assert.True(t, r.Healthy, FormatReport(r))
	assert.Equal(t, len(c.Checks()), r.Total)
	assert.Zero(t, r.Warned)
	got := byName(r)
	assert.Equal(t, "admin (PROFESSIONAL)", got["session"].Message)
	assert.Equal(t, "pass", got["api-reachable"].State)
	assert.Equal(t, "no pending drafts", got["draft-store"].Message)
}

func TestFailuresAndWarnings(t *testing.T) {
	srv := apitest.New()
	url := srv.URL
	srv.Close()

	cfg := validConfig(t)
	cfg.Draft.Backend = "s3"
	now := time.Now()
	st := auth.Memory()
	require.NoError(t, st.Set(auth.Session{Access: "a", Refresh: token(t, now.Add(-time.Hour))}))

	r := NewChecker(Deps{
		Config:  cfg,
		Session: st,
		API:     api.New(api.Options{BaseURL: url, Timeout: time.Second, Metrics: api.NewMetrics(prometheus.NewRegistry())}, nil, nil),
	}).RunAll(context.Background())

	assert.False(t, r.Healthy)
	got := byName(r)
	assert.Equal(t, StatusFail, got["config-valid"].Status)
	assert.Contains(t, got["config-valid"].Message, "draft.backend")
	assert.Equal(t, StatusFail, got["refresh-token"].Status)
	assert.Equal(t, "unreachable", got["api-reachable"].Message)
	assert.Equal(t, StatusWarn, got["draft-store"].Status)
}

func TestRefreshNearExpiryWarns(t *testing.T) {
	now := time.Now()
	st := auth.Memory()
	require.NoError(t, st.Set(auth.Session{Refresh: token(t, now.Add(2*time.Hour))}))

	r := NewChecker(Deps{Session: st, Now: func() time.Time { return now }}).RunCategory(context.Background(), CategorySession)
	require.Equal(t, 2, r.Total)
	got := byName(r)
	assert.Equal(t, StatusWarn, got["refresh-token"].Status)
	assert.Contains(t, got["refresh-token"].Message, "expires in")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewChecker(Deps{}).RunAll(ctx)
	assert.Equal(t, r.Total, r.Failed)
	for _, res := range r.Results {
		assert.Equal(t, "context cancelled", res.Message)
	}
}
