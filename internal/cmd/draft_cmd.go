package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/tui/fields"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
	"github.com/rastreiamais/rastreia/internal/wizard"
)

var (
	draftJSON        bool
	draftYes         bool
	draftMetricsAddr string
)

var draftCmd = &cobra.Command{
	Use:     "draft",
	Aliases: []string{"rascunho"},
	Short:   "Inspect and manage registration drafts",
	Long: `Registration drafts are saved while the wizard is open and removed
after the patient is created.

Subcommands:
  list     List saved drafts
  show     Print a draft (default: yours)
  delete   Delete a draft (default: yours)
  watch    Follow draft changes in the draft directory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return draftListCmd.RunE(cmd, args)
	},
}

// openDraftStore opens the configured store and returns a release func.
func openDraftStore(e *env) (draft.Store, func(), error) {
	store, err := e.openDrafts()
	if err != nil {
		return nil, nil, fmt.Errorf("opening draft store: %w", err)
	}
	release := func() {}
	if rs, ok := store.(*draft.RedisStore); ok {
		release = func() { _ = rs.Close() }
	}
	return store, release, nil
}

// draftUID resolves the uid argument, defaulting to the signed-in user.
func draftUID(e *env, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return auth.DraftUID(e.claims())
}

// --- draft list ---

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved drafts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		store, release, err := openDraftStore(e)
		if err != nil {
			return err
		}
		defer release()

		ctx, cancel := e.commandContext(1)
		defer cancel()
		drafts, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("listing drafts: %w", err)
		}
		if draftJSON {
			return printJSON(drafts)
		}
		if len(drafts) == 0 {
			fmt.Println(styles.Dim("Nenhum rascunho."))
			return nil
		}

		mine := auth.DraftUID(e.claims())
		fmt.Printf("  %s  %s  %s  %s\n",
			styles.TableHeader.Width(20).Render("UID"),
			styles.TableHeader.Width(28).Render("PACIENTE"),
			styles.TableHeader.Width(18).Render("ETAPA"),
			styles.TableHeader.Width(16).Render("SALVO EM"),
		)
		fmt.Println(styles.Divider(88))
		for i, d := range drafts {
			row := styles.TableRow(i%2 == 0)
			marker := " "
			if d.UID == mine {
				marker = styles.Cyan("*")
			}
			fmt.Printf("%s %s  %s  %s  %s\n",
				marker,
				row.Width(20).Render(styles.TruncateWithEllipsis(d.UID, 20)),
				row.Width(28).Render(styles.TruncateWithEllipsis(d.Title(), 28)),
				styles.Dim(fmt.Sprintf("%-18s", wizard.Step(d.Step).String())),
				styles.Dim(d.SavedAt.Local().Format("02/01/2006 15:04")),
			)
		}
		fmt.Println()
		fmt.Println(styles.Dim("  * = your draft"))
		return nil
	},
}

// --- draft show ---

var draftShowCmd = &cobra.Command{
	Use:   "show [uid]",
	Short: "Print a draft",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		store, release, err := openDraftStore(e)
		if err != nil {
			return err
		}
		defer release()

		uid := draftUID(e, args)
		ctx, cancel := e.commandContext(1)
		defer cancel()
		d, err := store.Load(ctx, uid)
		if errors.Is(err, draft.ErrNoDraft) {
			fmt.Println(styles.Dim("Nenhum rascunho para " + uid + "."))
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading draft: %w", err)
		}
		if draftJSON {
			return printJSON(d)
		}

		fmt.Println(styles.Title.Render("Rascunho: "+d.Title()) + "  " + styles.Dim(d.SavedAt.Local().Format("02/01/2006 15:04")))
		for _, step := range wizard.Steps() {
			var lines []string
			for _, fd := range fields.For(step, &d.Form) {
				v := fd.Display(&d.Form)
				if v == "" || v == "-" {
					continue
				}
				lines = append(lines, styles.Label.Width(34).Render(fd.Label)+" "+v)
			}
			if len(lines) == 0 {
				continue
			}
			fmt.Println()
			fmt.Println(styles.Subtitle.Render(step.String()))
			for _, l := range lines {
				fmt.Println("  " + l)
			}
		}
		return nil
	},
}

// --- draft delete ---

var draftDeleteCmd = &cobra.Command{
	Use:   "delete [uid]",
	Short: "Delete a draft",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		store, release, err := openDraftStore(e)
		if err != nil {
			return err
		}
		defer release()

		uid := draftUID(e, args)
		if !draftYes && !confirm("Excluir o rascunho de "+uid+"?") {
			fmt.Println(styles.Dim("Cancelado."))
			return nil
		}
		ctx, cancel := e.commandContext(1)
		defer cancel()
		if err := store.Delete(ctx, uid); err != nil {
			return fmt.Errorf("deleting draft: %w", err)
		}
		fmt.Println(styles.Green("✔") + " Rascunho excluído")
		return nil
	},
}

// --- draft watch ---

var draftWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow draft changes",
	Long: `Print a line whenever a draft file is saved or removed. Only the file
backend can be watched. --metrics-addr exposes Prometheus metrics while
watching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if e.cfg.Draft.Backend == config.BackendRedis {
			return errors.New("draft watch needs the file backend")
		}

		w, err := draft.NewWatcher(e.cfg.Draft.Dir, 0, e.log, draftMetrics())
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := draftMetricsAddr
		if addr == "" {
			addr = e.cfg.Metrics.Addr
		}
		serveMetrics(ctx, addr, e.log)

		fmt.Println(styles.Dim("Acompanhando " + e.cfg.Draft.Dir + " (Ctrl+C para sair)"))
		for ev := range w.Watch(ctx) {
			if draftJSON {
				if err := printJSON(ev); err != nil {
					return err
				}
				continue
			}
			line := styles.Dim(ev.Time.Local().Format("15:04:05")) + "  "
			switch ev.Type {
			case draft.EventSaved:
				title := ev.UID
				if ev.Draft != nil {
					title = ev.Draft.Title()
				}
				line += styles.Green("salvo    ") + styles.Bold(title)
			case draft.EventRemoved:
				line += styles.Gold("removido ") + styles.Bold(ev.UID)
			}
			fmt.Println(line)
			e.log.Debug("draft event", zap.String("uid", ev.UID), zap.Stringer("type", ev.Type))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{draftCmd, draftListCmd, draftShowCmd, draftWatchCmd} {
		c.Flags().BoolVar(&draftJSON, "json", false, "output as JSON")
	}
	draftDeleteCmd.Flags().BoolVarP(&draftYes, "yes", "y", false, "do not ask for confirmation")
	draftWatchCmd.Flags().StringVar(&draftMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default metrics.addr)")

	draftCmd.AddCommand(draftListCmd)
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDeleteCmd)
	draftCmd.AddCommand(draftWatchCmd)
	rootCmd.AddCommand(draftCmd)
}
