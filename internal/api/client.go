// Package api is the REST client for the Rastreia+ backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rastreiamais/rastreia/internal/apperr"
)

// TokenSource supplies and stores the JWT pair. The auth session store
// implements it.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	// Update stores a refreshed access token. refresh is empty when the
	// backend did not rotate it.
	Update(access, refresh string) error
	Clear() error
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables the limiter
	Burst     int
	UserAgent string
	Metrics   *Metrics // nil uses DefaultMetrics
}

// Client talks to the Rastreia+ REST API.
type Client struct {
	rc      *resty.Client
	tokens  TokenSource
	log     *zap.Logger
	limiter *rate.Limiter
	metrics *Metrics
	refresh singleflight.Group
}

// New creates a client. tokens may be nil for unauthenticated use (login,
// password reset).
func New(opts Options, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "rastreia-cli"
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent)

	c := &Client{
		rc:      rc,
		tokens:  tokens,
		log:     log.Named("api"),
		metrics: opts.Metrics,
	}
	if c.metrics == nil {
		c.metrics = DefaultMetrics()
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.rc.BaseURL }

// Ping sends an unauthenticated GET to the API root and returns the HTTP
// status. Any status means the backend answered; only transport failures
// are errors.
func (c *Client) Ping(ctx context.Context) (int, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/", nil, nil, "")
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

// isAuthPath reports whether a 401 on path must not trigger a refresh.
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/api/token") || strings.HasPrefix(path, "/api/auth/login")
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch sends a partial update.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do sends one request. A 401 on a non-auth path triggers a single refresh
// and a single retry; when that fails the stored tokens are cleared and the
// 401 is returned.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body, c.accessToken())
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusUnauthorized && !isAuthPath(path) && c.tokens != nil {
		access, rerr := c.refreshAccess(ctx)
		if rerr != nil {
			c.log.Warn("token refresh failed", zap.String("path", path), zap.Error(rerr))
			return apperr.NewAPIError(resp.StatusCode(), method, path, resp.Body())
		}
		resp, err = c.send(ctx, method, path, query, body, access)
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusUnauthorized {
			c.clearTokens()
		}
	}

	if resp.IsError() {
		apiErr := apperr.NewAPIError(resp.StatusCode(), method, path, resp.Body())
		c.log.Debug("api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	return decode(resp, out)
}

func decode(resp *resty.Response, out any) error {
	if out == nil || resp.StatusCode() == http.StatusNoContent || resp.StatusCode() == http.StatusResetContent {
		return nil
	}
	raw := resp.Body()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if rawOut, ok := out.(*json.RawMessage); ok {
		*rawOut = append((*rawOut)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", resp.Request.Method, resp.Request.URL, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, access string) (*resty.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqID := uuid.NewString()
	req := c.rc.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)
	if access != "" {
		req.SetAuthToken(access)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.metrics.observe(method, path, "error", elapsed)
		c.log.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, apperr.Network(fmt.Errorf("%s %s: %w", method, path, err))
	}

	c.metrics.observe(method, path, strconv.Itoa(resp.StatusCode()), elapsed)
	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.String("request_id", reqID),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

func (c *Client) accessToken() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func (c *Client) clearTokens() {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.Clear(); err != nil {
		c.log.Warn("clearing tokens", zap.Error(err))
	}
}

// refreshAccess exchanges the refresh token for a new access token.
// Concurrent callers share one in-flight refresh.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refresh := c.tokens.RefreshToken()
		if refresh == "" {
			return "", apperr.Unauthorized("Sua sessão expirou. Faça login novamente.")
		}
		pair, err := c.postTokens(ctx, "/api/token/refresh/", map[string]string{"refresh": refresh})
		if err != nil {
			return "", err
		}
		if err := c.tokens.Update(pair.Access, pair.Refresh); err != nil {
			c.log.Warn("storing refreshed token", zap.Error(err))
		}
		return pair.Access, nil
	})
	c.metrics.refreshed(err == nil)
	if err != nil {
		c.clearTokens()
		return "", err
	}
	return v.(string), nil
}

// TokenPair is the SimpleJWT token response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (c *Client) postTokens(ctx context.Context, path string, body any) (TokenPair, error) {
	var pair TokenPair
	resp, err := c.send(ctx, http.MethodPost, path, nil, body, "")
	if err != nil {
		return pair, err
	}
	if resp.IsError() {
		return pair, apperr.NewAPIError(resp.StatusCode(), http.MethodPost, path, resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), &pair); err != nil {
		return pair, fmt.Errorf("decoding token response: %w", err)
	}
	if pair.Access == "" {
		return pair, errors.New("token response without access token")
	}
	return pair, nil
}
