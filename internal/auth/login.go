package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/apperr"
)

// Backend is the part of the API client the login flow needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.TokenPair, error)
	Me(ctx context.Context) (api.Me, error)
	Logout(ctx context.Context, refresh string) error
}

// Login exchanges credentials for tokens, asks the backend for the account
// roles and stores the session. When want is set and the account lacks it,
// nothing is kept and an ErrForbidden is returned.
func Login(ctx context.Context, b Backend, st *Store, username, password string, want api.Role, log *zap.Logger) (Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pair, err := b.Login(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	if err := st.Set(Session{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
		return Session{}, err
	}

	me, err := b.Me(ctx)
	if err != nil {
		_ = st.Clear()
		return Session{}, fmt.Errorf("loading account: %w", err)
	}
	role := PickRole(me.Roles)
	if want != "" {
		if !hasRole(me.Roles, want) {
			_ = st.Clear()
			return Session{}, apperr.Forbidden(fmt.Sprintf("Esta conta não possui o papel necessário (%s).", want))
		}
		role = want
	}
	if role == "" {
		_ = st.Clear()
		return Session{}, apperr.Forbidden("Esta conta não possui nenhum papel de acesso.")
	}

	s := st.Session()
	s.Role = role
	s.Username = me.User.Username
	s.UserID = me.User.ID
	if err := st.Set(s); err != nil {
		return Session{}, err
	}
	log.Info("logged in", zap.String("username", s.Username), zap.String("role", string(role)))
	return s, nil
}

// Logout blacklists the refresh token and clears the session. A backend
// failure is logged; the local session is cleared regardless.
func Logout(ctx context.Context, b Backend, st *Store, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if refresh := st.RefreshToken(); refresh != "" {
		if err := b.Logout(ctx, refresh); err != nil && !errors.Is(err, apperr.ErrUnauthorized) {
			log.Warn("logout request failed", zap.Error(err))
		}
	}
	return st.Clear()
}

func hasRole(roles []api.Role, want api.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
