package apitest

import "sync"

// Tokens is an in-memory api.TokenSource.
type Tokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	cleared int
}

// NewTokens returns a source holding the given pair.
func NewTokens(access, refresh string) *Tokens {
	return &Tokens{access: access, refresh: refresh}
}

// LoggedIn returns a source holding the server's current tokens.
func (s *Server) LoggedIn() *Tokens {
	a, r := s.Tokens()
	return NewTokens(a, r)
}

func (t *Tokens) AccessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.access
}

func (t *Tokens) RefreshToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refresh
}

func (t *Tokens) Update(access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access = access
	if refresh != "" {
		t.refresh = refresh
	}
	return nil
}

func (t *Tokens) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.access, t.refresh = "", ""
	t.cleared++
	return nil
}

// Cleared counts Clear calls.
func (t *Tokens) Cleared() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cleared
}
