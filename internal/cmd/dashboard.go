package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/models"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
	"github.com/rastreiamais/rastreia/internal/tui/views"
)

var (
	dashOnce        bool
	dashJSON        bool
	dashRefresh     time.Duration
	dashDays        int
	dashMetricsAddr string
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"gestor"},
	Short:   "Manager dashboard",
	Long: `Launch the manager dashboard TUI.

Shows the KPIs (total patients, appointments at risk, appointments and
critical alerts), the patient risk distribution, the appointment agenda
and a live activity log with new alerts and draft saves.

Flags:
  --once   print a single snapshot and exit (no TUI)
  --json   output the KPIs as JSON (implies --once)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dashJSON || !isatty.IsTerminal(os.Stdout.Fd()) {
			dashOnce = true
		}

		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RouteGestor); err != nil {
			return err
		}
		load := dashboardLoader(e)

		if dashOnce {
			ctx, cancel := e.commandContext(4)
			defer cancel()
			data, err := load(ctx)
			if err != nil {
				return err
			}
			stats := roster.Summarize(data.Roster, data.Alerts, time.Now(), dashDays)
			if dashJSON {
				return printJSON(stats)
			}
			fmt.Println(styles.Title.Render("Painel do gestor") + "  " + views.RenderCompactStatus(stats))
			fmt.Println(views.RenderDashboardOnce(stats, 100))
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		addr := dashMetricsAddr
		if addr == "" {
			addr = e.cfg.Metrics.Addr
		}
		serveMetrics(ctx, addr, e.log)

		opts := models.DashboardOptions{
			Load:    load,
			Refresh: dashRefresh,
			Header:  e.header("Painel do gestor", 0),
			Days:    dashDays,
		}
		if e.cfg.Draft.Backend != config.BackendRedis {
			w, err := draft.NewWatcher(e.cfg.Draft.Dir, 0, e.log, draftMetrics())
			if err != nil {
				e.log.Warn("draft watcher unavailable", zap.Error(err))
			} else {
				defer w.Close()
				opts.Drafts = w.Watch(ctx)
			}
		}
		return views.RunDashboard(opts)
	},
}

// dashboardLoader fetches the roster and the alerts in parallel.
func dashboardLoader(e *env) models.DashboardLoader {
	return func(ctx context.Context) (models.DashboardData, error) {
		var data models.DashboardData
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			r, err := roster.Load(gctx, e.client, "", time.Now())
			data.Roster = r
			return err
		})
		g.Go(func() error {
			alerts, err := e.client.ListAlerts(gctx)
			if err != nil {
				return fmt.Errorf("listing alerts: %w", err)
			}
			data.Alerts = alerts
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.DashboardData{}, err
		}
		return data, nil
	}
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashOnce, "once", false, "print a single snapshot and exit")
	dashboardCmd.Flags().BoolVar(&dashJSON, "json", false, "output KPIs as JSON (implies --once)")
	dashboardCmd.Flags().DurationVar(&dashRefresh, "refresh", 30*time.Second, "refresh interval")
	dashboardCmd.Flags().IntVar(&dashDays, "days", 14, "days shown in the agenda")
	dashboardCmd.Flags().StringVar(&dashMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default metrics.addr)")
	rootCmd.AddCommand(dashboardCmd)
}
