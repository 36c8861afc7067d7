package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the client reads from an access token. The token
// is decoded without verifying its signature: the backend is the only
// authority, the client only needs ids for scoping drafts and appointments.
type Claims struct {
	UserID         string
	Subject        string
	Username       string
	ProfessionalID int
	ExpiresAt      time.Time
}

// ParseClaims decodes an access token.
func ParseClaims(token string) (Claims, error) {
	var c Claims
	if token == "" {
		return c, fmt.Errorf("parsing token: empty")
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return c, fmt.Errorf("parsing token: %w", err)
	}
	c.UserID = claimString(mc["user_id"])
	c.Subject = claimString(mc["sub"])
	c.Username = claimString(mc["username"])
	if id, err := strconv.Atoi(claimString(mc["professional_id"])); err == nil {
		c.ProfessionalID = id
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the token expires at or before now. Tokens
// without exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// UserIDInt returns the numeric user id, or 0.
func (c Claims) UserIDInt() int {
	id, _ := strconv.Atoi(c.UserID)
	return id
}

// DraftUID picks the identifier that scopes the local draft key.
func DraftUID(c Claims) string {
	for _, v := range []string{c.UserID, c.Subject, c.Username} {
		if v != "" {
			return v
		}
	}
	return "anon"
}

// DraftUIDFromToken is DraftUID for a raw token; undecodable tokens are
// treated as anonymous.
func DraftUIDFromToken(token string) string {
	c, err := ParseClaims(token)
	if err != nil {
		return "anon"
	}
	return DraftUID(c)
}

func claimString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
