package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/schema"
	"github.com/rastreiamais/rastreia/internal/submit"
	"github.com/rastreiamais/rastreia/internal/tui/models"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
	"github.com/rastreiamais/rastreia/internal/tui/views"
)

var (
	newResume bool
	newFresh  bool

	listSearch string
	listFilter string
	listJSON   bool
	listPlain  bool

	showJSON bool

	exportXLSX   string
	exportFilter string
	exportSearch string
)

// --- patients (parent) ---

var patientsCmd = &cobra.Command{
	Use:     "patients",
	Aliases: []string{"pacientes"},
	Short:   "Register, edit and browse patients",
	Long: `Patient registration and follow-up.

When run without subcommands, opens the patient browser.

Subcommands:
  new      Register a patient with the five-step wizard
  edit     Edit an existing patient
  list     Browse or print the patient roster
  show     Print one patient's record
  export   Export the roster to a spreadsheet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return patientsListCmd.RunE(cmd, args)
	},
}

// --- patients new ---

var patientsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Register a patient with the wizard",
	Long: `Open the registration wizard:

  1 Sociodemográfico   identification, contact and address
  2 Condições          HAS, DM and other conditions
  3 Clínica            HAS/DM clinical data (only with a condition)
  4 Multiprofissional  lifestyle and care team
  5 Plano              care plan and appointment dates

The form is saved as a local draft while you type. If a draft exists you
are asked whether to resume it; --resume and --fresh answer up front.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newResume && newFresh {
			return errors.New("--resume and --fresh are mutually exclusive")
		}
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RoutePacientes); err != nil {
			return err
		}
		return runNewPatient(e)
	},
}

func runNewPatient(e *env) error {
	store, err := e.openDrafts()
	if err != nil {
		return fmt.Errorf("opening draft store: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	uid := auth.DraftUID(e.claims())

	opts := models.WizardOptions{
		Mode:           schema.Create,
		FreeNavigation: e.cfg.Wizard.FreeNavigation,
		Form:           form.New(),
		Submitter:      newOrchestrator(e),
		Header:         e.header("Novo paciente", 0),
		Timeout:        4 * e.cfg.API.Timeout,
	}

	ctx, cancel := e.commandContext(1)
	d, err := store.Load(ctx, uid)
	cancel()
	switch {
	case errors.Is(err, draft.ErrNoDraft):
	case err != nil:
		e.log.Warn("loading draft", zap.String("uid", uid), zap.Error(err))
	default:
		resume, err := askResume(d)
		if err != nil {
			return err
		}
		if resume {
			opts.Form = d.Form
			opts.ResumedAt = d.SavedAt
		} else {
			ctx, cancel := e.commandContext(1)
			if err := store.Delete(ctx, uid); err != nil {
				e.log.Warn("discarding draft", zap.Error(err))
			}
			cancel()
		}
	}

	saver := draft.NewAutosaver(store, uid, e.cfg.Draft.Debounce, e.log, draft.WithMetrics(draftMetrics()))
	opts.Autosave = saver

	out, err := views.RunWizard(opts)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !out.Saved {
		if serr := saver.Stop(flushCtx); serr != nil {
			e.log.Warn("saving draft on exit", zap.Error(serr))
		} else if _, lerr := store.Load(flushCtx, uid); lerr == nil {
			fmt.Println(styles.Dim("Rascunho salvo. Continue com 'rastreia patients new --resume'."))
		}
	}
	if err != nil {
		return err
	}
	if out.Saved {
		printSaved(out.Result)
	}
	return nil
}

// askResume decides what to do with an existing draft.
func askResume(d *draft.Draft) (bool, error) {
	switch {
	case newResume:
		return true, nil
	case newFresh:
		return false, nil
	case !isatty.IsTerminal(os.Stdin.Fd()):
		return true, nil
	}
	resume := true
	err := huh.NewConfirm().
		Title("Retomar o rascunho " + strconv.Quote(d.Title()) + "?").
		Description("Salvo em " + d.SavedAt.Local().Format("02/01/2006 15:04")).
		Affirmative("Retomar").
		Negative("Descartar").
		Value(&resume).
		Run()
	if err != nil {
		return false, fmt.Errorf("asking about draft: %w", err)
	}
	return resume, nil
}

func newOrchestrator(e *env) *submit.Orchestrator {
	s := e.session.Session()
	c := e.claims()
	id := submit.Identity{
		ProfessionalID: c.ProfessionalID,
		UserID:         s.UserID,
		Username:       s.Username,
	}
	if id.UserID == 0 {
		id.UserID = c.UserIDInt()
	}
	if id.Username == "" {
		id.Username = c.Username
	}
	return submit.NewOrchestrator(e.client, id, e.log)
}

// printSaved repeats the outcome after the TUI closes. The generated
// password was shown once inside the wizard and is not printed again.
func printSaved(res submit.Result) {
	verb := "cadastrado"
	if res.Mode == schema.Edit {
		verb = "atualizado"
	}
	fmt.Println(styles.Green("✔") + fmt.Sprintf(" Paciente %s (id %d)", verb, res.PatientID))
	if len(res.AppointmentIDs) > 0 {
		fmt.Println(styles.Dim(fmt.Sprintf("  %d agendamento(s) criado(s)", len(res.AppointmentIDs))))
	}
	for _, w := range res.Warnings {
		fmt.Println(styles.Gold("  ! ") + w)
	}
}

// --- patients edit ---

var patientsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an existing patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RoutePacientes); err != nil {
			return err
		}
		return runEditPatient(e, id)
	},
}

func runEditPatient(e *env, id int) error {
	ctx, cancel := e.commandContext(3)
	loaded, err := submit.NewLoader(e.client, e.log).Load(ctx, id)
	cancel()
	if err != nil {
		return err
	}

	out, err := views.RunWizard(models.WizardOptions{
		Mode:           schema.Edit,
		FreeNavigation: e.cfg.Wizard.FreeNavigation,
		Form:           loaded.Form,
		Target:         loaded.Target,
		Submitter:      newOrchestrator(e),
		Header:         e.header("Editar paciente #"+strconv.Itoa(id), 0),
		Timeout:        4 * e.cfg.API.Timeout,
	})
	if err != nil {
		return err
	}
	if out.Saved {
		printSaved(out.Result)
	}
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// --- patients list ---

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Browse or print the patient roster",
	Long: `Open the interactive patient browser. With --json, --plain or when
stdout is not a terminal the roster is printed instead.

Filters: all, has, dm, critico, moderado, sem-agenda.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := roster.ParseFilter(listFilter)
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RoutePacientes); err != nil {
			return err
		}

		if listJSON || listPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
			ctx, cancel := e.commandContext(4)
			defer cancel()
			r, err := roster.Load(ctx, e.client, listSearch, time.Now())
			if err != nil {
				return err
			}
			rows := r.Select(filter, "")
			if listJSON {
				return printJSON(rows)
			}
			printRoster(rows)
			return nil
		}

		for {
			out, err := views.RunPatientBrowser(rosterLoader(e, listSearch), filter, "", e.header("Pacientes", 0))
			if err != nil {
				return err
			}
			switch {
			case out.EditID > 0:
				if err := runEditPatient(e, out.EditID); err != nil {
					return err
				}
			case out.New:
				if err := runNewPatient(e); err != nil {
					return err
				}
			default:
				return nil
			}
		}
	},
}

func rosterLoader(e *env, search string) models.RosterLoader {
	return func(ctx context.Context) (roster.Roster, error) {
		return roster.Load(ctx, e.client, search, time.Now())
	}
}

func printRoster(rows []roster.Row) {
	fmt.Printf("%s  %s  %s  %s  %s  %s\n",
		styles.TableHeader.Width(6).Render("ID"),
		styles.TableHeader.Width(28).Render("NOME"),
		styles.TableHeader.Width(14).Render("CPF"),
		styles.TableHeader.Width(8).Render("COND."),
		styles.TableHeader.Width(10).Render("RISCO"),
		styles.TableHeader.Width(12).Render("PRÓXIMA"),
	)
	fmt.Println(styles.Divider(88))
	for i, r := range rows {
		row := styles.TableRow(i%2 == 0)
		next := "-"
		if r.NextVisit != nil {
			next = r.NextVisit.Local().Format("02/01/2006")
		}
		risk := r.Risk
		if risk == "" {
			risk = "-"
		}
		fmt.Printf("%s  %s  %s  %s  %s  %s\n",
			row.Width(6).Render(strconv.Itoa(r.ID)),
			row.Width(28).Render(styles.TruncateWithEllipsis(r.Name, 28)),
			styles.Dim(fmt.Sprintf("%-14s", r.CPF)),
			fmt.Sprintf("%-8s", r.Conditions()),
			lipglossPad(styles.RiskBadge(r.Risk), risk, 10),
			styles.Dim(next),
		)
	}
	fmt.Println()
	fmt.Println(styles.Dim(fmt.Sprintf("%d paciente(s)", len(rows))))
}

// lipglossPad pads a styled string using the width of its plain text.
func lipglossPad(styled, plain string, width int) string {
	n := len([]rune(plain)) + 2
	if n >= width {
		return styled
	}
	return styled + strings.Repeat(" ", width-n)
}

// --- patients show ---

var patientsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one patient's record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RoutePacientes); err != nil {
			return err
		}

		ctx, cancel := e.commandContext(4)
		defer cancel()
		r, err := roster.Load(ctx, e.client, "", time.Now())
		if err != nil {
			return err
		}
		row, ok := r.Find(id)
		if !ok {
			return apperr.NotFound("Paciente", strconv.Itoa(id))
		}
		appts := r.AppointmentsOf(id)

		if showJSON {
			return printJSON(struct {
				roster.Row
				Appointments any `json:"appointments"`
			}{row, appts})
		}

		md := roster.Markdown(row, appts, time.Now())
		out, err := renderMarkdown(md, 100)
		if err != nil {
			fmt.Println(md)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// --- patients export ---

var patientsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the roster to an XLSX spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportXLSX == "" {
			return errors.New("--xlsx is required")
		}
		filter, err := roster.ParseFilter(exportFilter)
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RouteExportacoes); err != nil {
			return err
		}

		ctx, cancel := e.commandContext(4)
		defer cancel()
		r, err := roster.Load(ctx, e.client, exportSearch, time.Now())
		if err != nil {
			return err
		}
		rows := r.Select(filter, "")

		f, err := os.Create(exportXLSX)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportXLSX, err)
		}
		if err := roster.WriteXLSX(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", exportXLSX, err)
		}
		e.log.Info("roster exported", zap.String("file", exportXLSX), zap.Int("rows", len(rows)))
		fmt.Println(styles.Green("✔") + fmt.Sprintf(" %d paciente(s) exportado(s) para ", len(rows)) + styles.Value.Render(exportXLSX))
		return nil
	},
}

func init() {
	patientsNewCmd.Flags().BoolVar(&newResume, "resume", false, "resume the saved draft without asking")
	patientsNewCmd.Flags().BoolVar(&newFresh, "fresh", false, "discard the saved draft and start empty")

	for _, c := range []*cobra.Command{patientsCmd, patientsListCmd} {
		c.Flags().StringVarP(&listSearch, "search", "s", "", "server-side search (name or CPF)")
		c.Flags().StringVarP(&listFilter, "filter", "f", "all", "filter: all, has, dm, critico, moderado, sem-agenda")
		c.Flags().BoolVar(&listJSON, "json", false, "print the roster as JSON")
		c.Flags().BoolVar(&listPlain, "plain", false, "print a table instead of the browser")
	}

	patientsShowCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")

	patientsExportCmd.Flags().StringVar(&exportXLSX, "xlsx", "", "output .xlsx file")
	patientsExportCmd.Flags().StringVarP(&exportFilter, "filter", "f", "all", "filter: all, has, dm, critico, moderado, sem-agenda")
	patientsExportCmd.Flags().StringVarP(&exportSearch, "search", "s", "", "server-side search (name or CPF)")

	patientsCmd.AddCommand(patientsNewCmd)
	patientsCmd.AddCommand(patientsEditCmd)
	patientsCmd.AddCommand(patientsListCmd)
	patientsCmd.AddCommand(patientsShowCmd)
	patientsCmd.AddCommand(patientsExportCmd)
	rootCmd.AddCommand(patientsCmd)
}
