package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/health"
)

var (
	healthCategory string
	healthJSON     bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run client and backend health checks",
	Long: `Run diagnostic checks against the local setup and the backend.

Checks are grouped into categories:
  config    - configuration file and active profile
  session   - stored login and refresh token expiry
  backend   - API reachability
  drafts    - draft store and draft directory

Use --category to run only one group.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		deps := health.Deps{Config: e.cfg, Session: e.session, API: e.client}
		if store, err := e.openDrafts(); err == nil {
			deps.Drafts = store
			if rs, ok := store.(*draft.RedisStore); ok {
				defer rs.Close()
			}
		} else {
			e.log.Warn("opening draft store", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		checker := health.NewChecker(deps)
		var report *health.Report
		if healthCategory != "" {
			report = checker.RunCategory(ctx, healthCategory)
		} else {
			report = checker.RunAll(ctx)
		}

		if healthJSON {
			if err := printJSON(report); err != nil {
				return err
			}
		} else {
			fmt.Print(health.FormatReport(report))
		}
		if !report.Healthy {
			return fmt.Errorf("%d check(s) failed", report.Failed)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthCategory, "category", "", "run checks in a category: config, session, backend or drafts")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(healthCmd)
}
