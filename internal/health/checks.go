package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
)

// tokenExpiryWarn is how close to expiry a refresh token starts to warn.
const tokenExpiryWarn = 24 * time.Hour

func (c *Checker) registerChecks() {
	c.add("config-valid", CategoryConfig, c.checkConfigValid)
	c.add("active-profile", CategoryConfig, c.checkActiveProfile)

	c.add("session", CategorySession, c.checkSession)
	c.add("refresh-token", CategorySession, c.checkRefreshToken)

	c.add("api-reachable", CategoryBackend, c.checkAPI)

	c.add("draft-store", CategoryDrafts, c.checkDraftStore)
	c.add("draft-dir", CategoryDrafts, c.checkDraftDir)
}

func skipped(what string) CheckResult {
	return CheckResult{Status: StatusWarn, Message: what + " not configured"}
}

// ---------------------------------------------------------------------------
// Config checks
// ---------------------------------------------------------------------------

func (c *Checker) checkConfigValid(context.Context) CheckResult {
	if c.deps.Config == nil {
		return skipped("config")
	}
	errs := config.Validate(c.deps.Config)
	if len(errs) == 0 {
		return CheckResult{Status: StatusPass, Message: "valid"}
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return CheckResult{Status: StatusFail, Message: fmt.Sprintf("%d issue(s): %s", len(errs), strings.Join(fields, ", "))}
}

func (c *Checker) checkActiveProfile(context.Context) CheckResult {
	cfg := c.deps.Config
	if cfg == nil {
		return skipped("config")
	}
	if cfg.ActiveProfile == "" {
		return CheckResult{Status: StatusPass, Message: "default (" + cfg.BaseURL() + ")"}
	}
	p, ok := cfg.Profiles[cfg.ActiveProfile]
	if !ok {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("profile %q not defined", cfg.ActiveProfile)}
	}
	name := p.DisplayName
	if name == "" {
		name = cfg.ActiveProfile
	}
	return CheckResult{Status: StatusPass, Message: name}
}

// ---------------------------------------------------------------------------
// Session checks
// ---------------------------------------------------------------------------

func (c *Checker) checkSession(context.Context) CheckResult {
	if c.deps.Session == nil {
		return skipped("session store")
	}
	s := c.deps.Session.Session()
	if s.Refresh == "" {
		return CheckResult{Status: StatusWarn, Message: "not logged in"}
	}
	who := s.Username
	if who == "" {
		who = "unknown user"
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s (%s)", who, s.Role)}
}

func (c *Checker) checkRefreshToken(context.Context) CheckResult {
	if c.deps.Session == nil {
		return skipped("session store")
	}
	refresh := c.deps.Session.RefreshToken()
	if refresh == "" {
		return CheckResult{Status: StatusWarn, Message: "no refresh token"}
	}
	claims, err := auth.ParseClaims(refresh)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: "unreadable token: " + err.Error()}
	}
	if claims.ExpiresAt.IsZero() {
		return CheckResult{Status: StatusPass, Message: "no expiry"}
	}
	now := c.deps.Now()
	left := claims.ExpiresAt.Sub(now)
	switch {
	case claims.Expired(now):
		return CheckResult{Status: StatusFail, Message: "expired, log in again"}
	case left < tokenExpiryWarn:
		return CheckResult{Status: StatusWarn, Message: "expires in " + left.Round(time.Minute).String()}
	}
	return CheckResult{Status: StatusPass, Message: "valid until " + claims.ExpiresAt.Local().Format("2006-01-02 15:04")}
}

// ---------------------------------------------------------------------------
// Backend checks
// ---------------------------------------------------------------------------

func (c *Checker) checkAPI(ctx context.Context) CheckResult {
	if c.deps.API == nil {
		return skipped("api client")
	}
	status, err := c.deps.API.Ping(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNetwork) {
			return CheckResult{Status: StatusFail, Message: "unreachable"}
		}
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	if status >= 500 {
		return CheckResult{Status: StatusWarn, Message: fmt.Sprintf("answered HTTP %d", status)}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("HTTP %d", status)}
}

// ---------------------------------------------------------------------------
// Draft checks
// ---------------------------------------------------------------------------

type pinger interface {
	Ping(ctx context.Context) error
}

func (c *Checker) checkDraftStore(ctx context.Context) CheckResult {
	if c.deps.Drafts == nil {
		return skipped("draft store")
	}
	if p, ok := c.deps.Drafts.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return CheckResult{Status: StatusFail, Message: "redis: " + err.Error()}
		}
	}
	drafts, err := c.deps.Drafts.List(ctx)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	if len(drafts) == 0 {
		return CheckResult{Status: StatusPass, Message: "no pending drafts"}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%d pending draft(s), newest %s", len(drafts), drafts[0].Title())}
}

func (c *Checker) checkDraftDir(context.Context) CheckResult {
	fs, ok := c.deps.Drafts.(*draft.FileStore)
	if !ok {
		return CheckResult{Status: StatusPass, Message: "not using the file backend"}
	}
	probe, err := os.CreateTemp(fs.Dir(), ".tmp-health-*")
	if err != nil {
		return CheckResult{Status: StatusFail, Message: "not writable: " + err.Error()}
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return CheckResult{Status: StatusPass, Message: filepath.Clean(fs.Dir())}
}
