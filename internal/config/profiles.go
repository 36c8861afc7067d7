package config

import (
	"fmt"
	"sort"
)

// ProfileRef is a named profile, as listed by `config profiles`.
type ProfileRef struct {
	Name string
	Profile
	Active bool
}

// ListProfiles returns the configured backend profiles sorted by name.
func ListProfiles(cfg *Config) []ProfileRef {
	names := sortedProfileNames(cfg.Profiles)
	refs := make([]ProfileRef, 0, len(names))
	for _, n := range names {
		refs = append(refs, ProfileRef{
			Name:    n,
			Profile: cfg.Profiles[n],
			Active:  n == cfg.ActiveProfile,
		})
	}
	return refs
}

// SwitchProfile makes name the active backend profile and saves the config.
// An empty name falls back to api.base_url.
func SwitchProfile(cfg *Config, name string) error {
	if name != "" {
		if _, ok := cfg.Profiles[name]; !ok {
			return fmt.Errorf("profile %q not found; available: %v", name, sortedProfileNames(cfg.Profiles))
		}
	}
	cfg.ActiveProfile = name
	return Save(cfg)
}

func sortedProfileNames(m map[string]Profile) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
