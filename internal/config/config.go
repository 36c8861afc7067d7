package config

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config represents the config.json schema for the rastreia client.
type Config struct {
	API           APIConfig          `json:"api" mapstructure:"api"`
	ActiveProfile string             `json:"active_profile" mapstructure:"active_profile"`
	Profiles      map[string]Profile `json:"profiles" mapstructure:"profiles"`
	Auth          AuthConfig         `json:"auth" mapstructure:"auth"`
	Draft         DraftConfig        `json:"draft" mapstructure:"draft"`
	Log           LogConfig          `json:"log" mapstructure:"log"`
	Wizard        WizardConfig       `json:"wizard" mapstructure:"wizard"`
	Features      FeaturesConfig     `json:"features" mapstructure:"features"`
	Metrics       MetricsConfig      `json:"metrics" mapstructure:"metrics"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL   string        `json:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	RateLimit float64       `json:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst     int           `json:"burst" mapstructure:"burst"`
}

// Profile is a named backend environment (local, homologação, produção).
type Profile struct {
	BaseURL     string `json:"base_url" mapstructure:"base_url"`
	DisplayName string `json:"display_name" mapstructure:"display_name"`
}

// AuthConfig controls where the session lives.
type AuthConfig struct {
	SessionFile string `json:"session_file" mapstructure:"session_file"`
	Persistent  bool   `json:"persistent" mapstructure:"persistent"`
}

// DraftConfig selects and tunes the draft store.
type DraftConfig struct {
	Backend   string        `json:"backend" mapstructure:"backend"` // file or redis
	Dir       string        `json:"dir" mapstructure:"dir"`
	Debounce  time.Duration `json:"debounce" mapstructure:"debounce"`
	RedisAddr string        `json:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int           `json:"redis_db" mapstructure:"redis_db"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file" mapstructure:"file"`
}

// WizardConfig tunes the registration wizard.
type WizardConfig struct {
	FreeNavigation bool `json:"free_navigation" mapstructure:"free_navigation"`
}

// FeaturesConfig holds feature toggles.
type FeaturesConfig struct {
	PatientPortal bool `json:"patient_portal" mapstructure:"patient_portal"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// Draft backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("auth.persistent", true)
	v.SetDefault("draft.backend", BackendFile)
	v.SetDefault("draft.debounce", time.Second)
	v.SetDefault("draft.redis_addr", "localhost:6379")
	v.SetDefault("draft.ttl", 7*24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("wizard.free_navigation", true)
	v.SetDefault("features.patient_portal", false)
}

// singleton holds the global loaded config and the file it came from.
var (
	globalCfg  *Config
	globalPath string
	mu         sync.RWMutex
)

// Load unmarshals v into a Config, fills path defaults and caches the result
// so that subsequent calls to Get() return immediately.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.SessionFile == "" {
		cfg.Auth.SessionFile = paths.Session
	}
	if cfg.Draft.Dir == "" {
		cfg.Draft.Dir = paths.Drafts
	}
	cfg.Auth.SessionFile = expandHome(cfg.Auth.SessionFile)
	cfg.Draft.Dir = expandHome(cfg.Draft.Dir)
	cfg.Log.File = expandHome(cfg.Log.File)

	file := v.ConfigFileUsed()
	if file == "" {
		file = paths.Config
	}

	mu.Lock()
	globalCfg = &cfg
	globalPath = file
	mu.Unlock()

	return &cfg, nil
}

// Get returns the cached global config. It panics if Load has not been called.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()

	if globalCfg == nil {
		panic("config.Get() called before config.Load()")
	}
	return globalCfg
}

// File returns the config file path set during Load.
func File() string {
	mu.RLock()
	defer mu.RUnlock()
	return globalPath
}

// BaseURL resolves the backend address: the active profile wins over
// api.base_url.
func (c *Config) BaseURL() string {
	if c.ActiveProfile != "" {
		if p, ok := c.Profiles[c.ActiveProfile]; ok && p.BaseURL != "" {
			return p.BaseURL
		}
	}
	return c.API.BaseURL
}

// Setting is one flattened key of the config, as shown by `config show` and
// accepted by `config set`.
type Setting struct {
	Key   string
	Value string
}

// Settings flattens the config into dotted keys in a stable order.
func (c *Config) Settings() []Setting {
	s := []Setting{
		{"api.base_url", c.API.BaseURL},
		{"api.timeout", c.API.Timeout.String()},
		{"api.rate_limit", strconv.FormatFloat(c.API.RateLimit, 'f', -1, 64)},
		{"api.burst", strconv.Itoa(c.API.Burst)},
		{"active_profile", c.ActiveProfile},
		{"auth.session_file", c.Auth.SessionFile},
		{"auth.persistent", strconv.FormatBool(c.Auth.Persistent)},
		{"draft.backend", c.Draft.Backend},
		{"draft.dir", c.Draft.Dir},
		{"draft.debounce", c.Draft.Debounce.String()},
		{"draft.redis_addr", c.Draft.RedisAddr},
		{"draft.redis_db", strconv.Itoa(c.Draft.RedisDB)},
		{"draft.ttl", c.Draft.TTL.String()},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
		{"log.file", c.Log.File},
		{"wizard.free_navigation", strconv.FormatBool(c.Wizard.FreeNavigation)},
		{"features.patient_portal", strconv.FormatBool(c.Features.PatientPortal)},
		{"metrics.addr", c.Metrics.Addr},
	}
	for _, name := range sortedProfileNames(c.Profiles) {
		p := c.Profiles[name]
		s = append(s,
			Setting{"profiles." + name + ".base_url", p.BaseURL},
			Setting{"profiles." + name + ".display_name", p.DisplayName},
		)
	}
	return s
}

// Save writes the provided config to the file it was loaded from (or the
// default location) and replaces the cached copy.
func Save(cfg *Config) error {
	mu.RLock()
	path := globalPath
	mu.RUnlock()

	if path == "" {
		return fmt.Errorf("cannot save: config path not set (call Load first)")
	}
	if err := ensureParent(path); err != nil {
		return err
	}

	out := viper.New()
	out.SetConfigType("json")
	for _, s := range cfg.Settings() {
		if s.Value == "" {
			continue
		}
		out.Set(s.Key, s.Value)
	}
	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	mu.Lock()
	globalCfg = cfg
	mu.Unlock()

	return nil
}
