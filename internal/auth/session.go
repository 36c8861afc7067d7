// Package auth keeps the logged-in session, decodes token claims and
// decides which commands a role may run.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rastreiamais/rastreia/internal/api"
)

// Session is what a successful login leaves behind.
type Session struct {
	Access   string   `json:"access"`
	Refresh  string   `json:"refresh"`
	Role     api.Role `json:"role,omitempty"`
	Username string   `json:"username,omitempty"`
	UserID   int      `json:"user_id,omitempty"`
}

// Store holds the current session. A persistent store mirrors every change
// to a 0600 JSON file; otherwise tokens live only as long as the process.
type Store struct {
	mu      sync.RWMutex
	path    string
	persist bool
	s       Session
}

// Open loads the session at path. A missing file yields an empty session.
func Open(path string, persistent bool) (*Store, error) {
	st := &Store{path: path, persist: persistent && path != ""}
	if !st.persist {
		return st, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if err := json.Unmarshal(data, &st.s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return st, nil
}

// Memory returns a store that never touches disk.
func Memory() *Store { return &Store{} }

// Path returns the backing file, empty for memory stores.
func (st *Store) Path() string {
	if !st.persist {
		return ""
	}
	return st.path
}

// Session returns a copy of the current session.
func (st *Store) Session() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// LoggedIn reports whether a refresh token is held.
func (st *Store) LoggedIn() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Refresh != ""
}

// Set replaces the whole session.
func (st *Store) Set(s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = s
	return st.flush()
}

// AccessToken implements api.TokenSource.
func (st *Store) AccessToken() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Access
}

// RefreshToken implements api.TokenSource.
func (st *Store) RefreshToken() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Refresh
}

// Update implements api.TokenSource. The refresh token is kept when the
// backend did not rotate it.
func (st *Store) Update(access, refresh string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Access = access
	if refresh != "" {
		st.s.Refresh = refresh
	}
	return st.flush()
}

// Clear implements api.TokenSource. It forgets tokens and role and removes
// the session file.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = Session{}
	if !st.persist {
		return nil
	}
	if err := os.Remove(st.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// flush writes the session atomically. Callers hold mu.
func (st *Store) flush() error {
	if !st.persist {
		return nil
	}
	data, err := json.MarshalIndent(st.s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-session-*")
	if err != nil {
		return fmt.Errorf("creating temp session: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing session: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

var _ api.TokenSource = (*Store)(nil)
