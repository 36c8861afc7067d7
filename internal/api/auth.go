package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rastreiamais/rastreia/internal/apperr"
)

// Auth endpoints.
const (
	PathToken         = "/api/token/"
	PathTokenRefresh  = "/api/token/refresh/"
	PathMe            = "/api/auth/me"
	PathLogout        = "/api/auth/logout"
	PathResetRequest  = "/api/password-reset/request/"
	PathResetValidate = "/api/password-reset/validate/"
	PathResetConfirm  = "/api/password-reset/confirm/"
)

// DefaultLoginError is shown when the backend gives no usable reason.
const DefaultLoginError = "Credenciais inválidas."

// Login exchanges credentials for a token pair. The username may be the
// account username, an e-mail or a CPF, as the backend accepts.
func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	pair, err := c.postTokens(ctx, PathToken, map[string]string{
		"username": username,
		"password": password,
	})
	if err == nil {
		return pair, nil
	}
	var apiErr *apperr.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return pair, &apperr.AppError{
			Err:     fmt.Errorf("%w: %w", apperr.ErrUnauthorized, apiErr),
			Message: loginMessage(apiErr.Body),
			Code:    "INVALID_CREDENTIALS",
		}
	}
	return pair, err
}

// loginMessage uses "detail" when present, raw text for non-JSON bodies
// and DefaultLoginError otherwise.
func loginMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if d, ok := obj["detail"].(string); ok && d != "" {
			return d
		}
		return DefaultLoginError
	}
	if t := strings.TrimSpace(string(body)); t != "" {
		return t
	}
	return DefaultLoginError
}

// Refresh exchanges a refresh token for a new access token without touching
// the token source.
func (c *Client) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	return c.postTokens(ctx, PathTokenRefresh, map[string]string{"refresh": refresh})
}

// Me returns the logged-in account and its roles.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var me Me
	err := c.Get(ctx, PathMe, nil, &me)
	return me, err
}

// Logout blacklists the refresh token on the server.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	return c.Post(ctx, PathLogout, map[string]string{"refresh": refresh}, nil)
}

// RequestPasswordReset asks the backend to send a reset link for an
// username, e-mail or CPF.
func (c *Client) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	var out messageResponse
	err := c.Post(ctx, PathResetRequest, map[string]string{"identifier": identifier}, &out)
	return out.Message, err
}

// ValidateResetToken checks a reset token.
func (c *Client) ValidateResetToken(ctx context.Context, token string) (ResetValidation, error) {
	var out ResetValidation
	err := c.Post(ctx, PathResetValidate, map[string]string{"token": token}, &out)
	return out, err
}

// ConfirmPasswordReset sets the new password.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) (string, error) {
	var out messageResponse
	err := c.Post(ctx, PathResetConfirm, map[string]string{
		"token":            token,
		"password":         password,
		"password_confirm": confirm,
	}, &out)
	return out.Message, err
}
