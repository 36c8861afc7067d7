package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user config directory.
const AppName = "rastreia"

// Paths holds the resolved per-user filesystem locations.
type Paths struct {
	Dir     string
	Config  string
	Session string
	Drafts  string
}

// DefaultPaths resolves the locations under the user config directory
// ($XDG_CONFIG_HOME/rastreia on Linux).
func DefaultPaths() (*Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, AppName)
	return &Paths{
		Dir:     dir,
		Config:  filepath.Join(dir, "config.json"),
		Session: filepath.Join(dir, "session.json"),
		Drafts:  filepath.Join(dir, "drafts"),
	}, nil
}

// EnsureDirectories creates the config and draft directories with
// owner-only permissions. Returns the first error encountered, if any.
func EnsureDirectories(cfg *Config) error {
	dirs := []string{
		filepath.Dir(cfg.Auth.SessionFile),
	}
	if cfg.Draft.Backend != BackendRedis {
		dirs = append(dirs, cfg.Draft.Dir)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
