// Package health runs local diagnostics for the CLI: configuration, the
// stored session, backend reachability and the draft store.
package health

import (
	"context"
	"time"

	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
)

// Status represents the result of a single health check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// String returns the lowercase text representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Check categories, in display order.
const (
	CategoryConfig  = "config"
	CategorySession = "session"
	CategoryBackend = "backend"
	CategoryDrafts  = "drafts"
)

// CheckResult holds the result of a single check.
type CheckResult struct {
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Status   Status        `json:"-"`
	State    string        `json:"status"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration_ns"`
}

// Report holds results of all checks.
type Report struct {
	Results  []CheckResult `json:"results"`
	Passed   int           `json:"passed"`
	Warned   int           `json:"warned"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration_ns"`
	Healthy  bool          `json:"healthy"`
}

// Pinger is the part of the API client the backend check needs.
type Pinger interface {
	Ping(ctx context.Context) (int, error)
}

// Deps are the components under inspection. Nil members make their checks
// report a warning instead of running.
type Deps struct {
	Config  *config.Config
	Session *auth.Store
	API     Pinger
	Drafts  draft.Store
	Now     func() time.Time
}

// Check is a named, categorized health check function.
type Check struct {
	Name     string
	Category string
	Fn       func(ctx context.Context) CheckResult
}

// Checker runs the registered checks.
type Checker struct {
	checks []Check
	deps   Deps
}

// NewChecker creates a checker over deps.
func NewChecker(deps Deps) *Checker {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := &Checker{deps: deps}
	c.registerChecks()
	return c
}

func (c *Checker) add(name, category string, fn func(ctx context.Context) CheckResult) {
	c.checks = append(c.checks, Check{Name: name, Category: category, Fn: fn})
}

// Checks returns the registered checks in run order.
func (c *Checker) Checks() []Check {
	return append([]Check(nil), c.checks...)
}

// RunAll runs every registered check and returns a report.
func (c *Checker) RunAll(ctx context.Context) *Report {
	return c.run(ctx, func(Check) bool { return true })
}

// RunCategory runs only the checks matching the given category.
func (c *Checker) RunCategory(ctx context.Context, category string) *Report {
	return c.run(ctx, func(ch Check) bool { return ch.Category == category })
}

func (c *Checker) run(ctx context.Context, keep func(Check) bool) *Report {
	start := time.Now()
	var results []CheckResult

	for _, ch := range c.checks {
		if !keep(ch) {
			continue
		}
		var r CheckResult
		if ctx.Err() != nil {
			r = CheckResult{Status: StatusFail, Message: "context cancelled"}
		} else {
			t := time.Now()
			r = ch.Fn(ctx)
			r.Duration = time.Since(t)
		}
		r.Name = ch.Name
		r.Category = ch.Category
		r.State = r.Status.String()
		results = append(results, r)
	}

	return buildReport(results, time.Since(start))
}

func buildReport(results []CheckResult, dur time.Duration) *Report {
	r := &Report{
		Results:  results,
		Total:    len(results),
		Duration: dur,
	}
	for _, res := range results {
		switch res.Status {
		case StatusPass:
			r.Passed++
		case StatusWarn:
			r.Warned++
		case StatusFail:
			r.Failed++
		}
	}
	r.Healthy = r.Failed == 0
	return r
}
