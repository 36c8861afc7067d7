package cmd

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/logging"
	"github.com/rastreiamais/rastreia/internal/tui/components"
)

// env is what a command needs to talk to the backend: the loaded config, a
// logger, the stored session and an API client bound to that session.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	session *auth.Store
	client  *api.Client
}

// loadEnv loads the config and builds the logger, session store and client.
func loadEnv() (*env, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDirectories(cfg); err != nil {
		log.Warn("preparing directories", zap.Error(err))
	}
	st, err := auth.Open(cfg.Auth.SessionFile, cfg.Auth.Persistent)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log, session: st}
	e.client = api.New(api.Options{
		BaseURL:   e.baseURL(),
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		UserAgent: "rastreia-cli/" + Version,
	}, st, log)
	return e, nil
}

func (e *env) baseURL() string {
	if apiURL != "" {
		return apiURL
	}
	return e.cfg.BaseURL()
}

func (e *env) features() auth.Features {
	return auth.Features{PatientPortal: e.cfg.Features.PatientPortal}
}

// require refuses the command unless the session role may open route.
func (e *env) require(route auth.Route) error {
	return auth.Require(route, e.session.Session().Role, e.features())
}

func (e *env) claims() auth.Claims {
	c, err := auth.ParseClaims(e.session.AccessToken())
	if err != nil {
		e.log.Debug("access token without readable claims", zap.Error(err))
	}
	return c
}

func (e *env) header(title string, width int) components.Header {
	s := e.session.Session()
	profile := e.cfg.ActiveProfile
	if p, ok := e.cfg.Profiles[profile]; ok && p.DisplayName != "" {
		profile = p.DisplayName
	}
	return components.Header{
		Title:   title,
		User:    s.Username,
		Role:    string(s.Role),
		Profile: profile,
		Width:   width,
	}
}

func (e *env) close() {
	_ = e.log.Sync()
}

func (e *env) openDrafts() (draft.Store, error) {
	return draft.Open(e.cfg.Draft)
}

// draftMetrics registers the draft collectors once on the default registry.
var draftMetrics = sync.OnceValue(func() *draft.Metrics {
	return draft.NewMetrics(prometheus.DefaultRegisterer)
})

// commandContext returns a context bounded by the configured API timeout
// times n, for commands that make several calls.
func (e *env) commandContext(n int) (context.Context, context.CancelFunc) {
	if n < 1 {
		n = 1
	}
	return context.WithTimeout(context.Background(), time.Duration(n)*e.cfg.API.Timeout)
}

// serveMetrics exposes /metrics and /healthz on addr until ctx is done. An
// empty addr disables it.
func serveMetrics(ctx context.Context, addr string, log *zap.Logger) {
	if addr == "" {
		return
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
