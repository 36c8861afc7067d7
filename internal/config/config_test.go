package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, body string) *Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := viper.New()
	if body != "" {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFrom(t, "")

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10.0, cfg.API.RateLimit)
	assert.Equal(t, 5, cfg.API.Burst)
	assert.True(t, cfg.Auth.Persistent)
	assert.Equal(t, BackendFile, cfg.Draft.Backend)
	assert.Equal(t, time.Second, cfg.Draft.Debounce)
	assert.True(t, cfg.Wizard.FreeNavigation)
	assert.False(t, cfg.Features.PatientPortal)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), AppName, "session.json"), cfg.Auth.SessionFile)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), AppName, "drafts"), cfg.Draft.Dir)
	assert.Empty(t, Validate(cfg))
	assert.Same(t, cfg, Get())
}

func TestLoadFile(t *testing.T) {
	cfg := loadFrom(t, `{
		"api": {"base_url": "https://rastreia.example.org", "timeout": "30s"},
		"active_profile": "homolog",
		"profiles": {"homolog": {"base_url": "https://homolog.example.org", "display_name": "Homologação"}},
		"draft": {"backend": "redis", "redis_addr": "cache:6379", "debounce": "500ms"},
		"features": {"patient_portal": true}
	}`)

	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "https://homolog.example.org", cfg.BaseURL())
	assert.Equal(t, BackendRedis, cfg.Draft.Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Draft.Debounce)
	assert.True(t, cfg.Features.PatientPortal)
	assert.Empty(t, Validate(cfg))

	cfg.ActiveProfile = ""
	assert.Equal(t, "https://rastreia.example.org", cfg.BaseURL())
}

func TestValidateReportsEverything(t *testing.T) {
	cfg := loadFrom(t, "")
	cfg.API.BaseURL = "ftp://x"
	cfg.API.Timeout = 0
	cfg.API.Burst = 0
	cfg.ActiveProfile = "missing"
	cfg.Draft.Backend = "s3"
	cfg.Draft.Debounce = 2 * time.Minute
	cfg.Log.Level = "trace"
	cfg.Log.Format = "xml"

	fields := map[string]bool{}
	for _, e := range Validate(cfg) {
		fields[e.Field] = true
	}
	for _, f := range []string{
		"api.base_url", "api.timeout", "api.burst", "active_profile",
		"draft.backend", "draft.debounce", "log.level", "log.format",
	} {
		assert.True(t, fields[f], "expected error for %s", f)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := loadFrom(t, "")
	cfg.Profiles = map[string]Profile{"prod": {BaseURL: "https://api.example.org"}}
	require.NoError(t, SwitchProfile(cfg, "prod"))
	assert.Error(t, SwitchProfile(cfg, "nope"))

	v := viper.New()
	v.SetConfigFile(File())
	require.NoError(t, v.ReadInConfig())
	back, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "prod", back.ActiveProfile)
	assert.Equal(t, "https://api.example.org", back.BaseURL())
	assert.Equal(t, 15*time.Second, back.API.Timeout)
	assert.True(t, back.Auth.Persistent)

	refs := ListProfiles(back)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Active)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := loadFrom(t, "")
	require.NoError(t, EnsureDirectories(cfg))
	info, err := os.Stat(cfg.Draft.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
