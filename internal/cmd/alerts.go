package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/schema"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

var (
	alertsJSON bool
	alertsAll  bool

	alertCPF         string
	alertTitle       string
	alertDescription string
	alertRisk        string

	alertYes bool
)

var alertsCmd = &cobra.Command{
	Use:     "alerts",
	Aliases: []string{"alertas"},
	Short:   "Patient alerts",
	Long: `List, create and remove patient alerts.

Subcommands:
  list     List active alerts
  create   Raise an alert for a patient by CPF
  delete   Remove an alert`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return alertsListCmd.RunE(cmd, args)
	},
}

// --- alerts list ---

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RouteAlertas); err != nil {
			return err
		}

		ctx, cancel := e.commandContext(2)
		defer cancel()
		all, err := e.client.ListAlerts(ctx)
		if err != nil {
			return fmt.Errorf("listing alerts: %w", err)
		}
		alerts := all[:0:0]
		for _, a := range all {
			if alertsAll || !a.IsDeleted {
				alerts = append(alerts, a)
			}
		}

		if alertsJSON {
			return printJSON(alerts)
		}
		if len(alerts) == 0 {
			fmt.Println(styles.Dim("Nenhum alerta."))
			return nil
		}
		for _, a := range alerts {
			risk := mapper.AlertRisk.FromAPI(a.RiskLevel)
			fmt.Printf("%s  %s  %s\n",
				styles.Dim(fmt.Sprintf("#%-5d", a.ID)),
				styles.Badge(alertRiskLabel(risk), alertRiskColor(risk)),
				styles.Bold(a.Title),
			)
			if a.Patient != nil {
				fmt.Println("        " + styles.Dim("paciente: "+alertPatient(a)))
			}
			if a.Description != "" {
				fmt.Println("        " + a.Description)
			}
			if a.IsDeleted {
				fmt.Println("        " + styles.Red("removido"))
			}
		}
		return nil
	},
}

func alertPatient(a mapper.AlertRecord) string {
	name := a.Patient.User.FullName()
	if name == "" {
		name = a.Patient.User.Username
	}
	return name
}

func alertRiskLabel(token string) string {
	switch token {
	case "seguro":
		return "Seguro"
	case "critico":
		return "Crítico"
	case "moderado":
		return "Moderado"
	}
	return token
}

func alertRiskColor(token string) lipgloss.Color {
	return styles.RiskColor(alertRiskLabel(token))
}

// validCPF applies the wizard's CPF rule: eleven digits, punctuation ignored.
func validCPF(s string) bool {
	return len(schema.OnlyDigits(s)) == 11
}

// --- alerts create ---

var alertsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Raise an alert for a patient",
	Long: `Raise an alert for the patient with the given CPF. Missing fields are
asked for interactively. Risk is seguro, moderado (default) or critico.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RouteAlertas); err != nil {
			return err
		}

		if alertRisk == "" {
			alertRisk = "moderado"
		}
		if alertCPF == "" || alertTitle == "" {
			if err := promptAlert(); err != nil {
				return err
			}
		}
		if !validCPF(alertCPF) {
			return fmt.Errorf("CPF inválido: %s", alertCPF)
		}

		p := mapper.AlertToAPI(alertCPF, alertTitle, alertDescription, alertRisk)
		ctx, cancel := e.commandContext(1)
		defer cancel()
		rec, err := e.client.CreateAlert(ctx, p)
		if err != nil {
			return fmt.Errorf("creating alert: %w", err)
		}
		e.log.Info("alert created", zap.Int("id", rec.ID), zap.String("risk", p.RiskLevel))
		fmt.Println(styles.Green("✔") + fmt.Sprintf(" Alerta #%d criado", rec.ID))
		return nil
	},
}

func promptAlert() error {
	required := func(what string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("informe " + what)
			}
			return nil
		}
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CPF do paciente").
				Value(&alertCPF).
				Validate(func(s string) error {
					if !validCPF(s) {
						return errors.New("CPF inválido")
					}
					return nil
				}),
			huh.NewInput().
				Title("Título").
				Value(&alertTitle).
				Validate(required("o título")),
			huh.NewText().
				Title("Descrição").
				Value(&alertDescription),
			huh.NewSelect[string]().
				Title("Risco").
				Options(
					huh.NewOption("Seguro", "seguro"),
					huh.NewOption("Moderado", "moderado"),
					huh.NewOption("Crítico", "critico"),
				).
				Value(&alertRisk),
		),
	).Run()
}

// --- alerts delete ---

var alertsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an alert",
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
		if err := withSession(e, auth.RouteAlertas); err != nil {
			return err
		}

		if !alertYes && !confirm("Remover o alerta #"+strconv.Itoa(id)+"?") {
			fmt.Println(styles.Dim("Cancelado."))
			return nil
		}

		ctx, cancel := e.commandContext(1)
		defer cancel()
		if err := e.client.DeleteAlert(ctx, id); err != nil {
			return fmt.Errorf("deleting alert %d: %w", id, err)
		}
		fmt.Println(styles.Green("✔") + fmt.Sprintf(" Alerta #%d removido", id))
		return nil
	},
}

func init() {
	alertsListCmd.Flags().BoolVar(&alertsJSON, "json", false, "output as JSON")
	alertsListCmd.Flags().BoolVar(&alertsAll, "all", false, "include removed alerts")

	alertsCreateCmd.Flags().StringVar(&alertCPF, "cpf", "", "patient CPF")
	alertsCreateCmd.Flags().StringVar(&alertTitle, "title", "", "alert title")
	alertsCreateCmd.Flags().StringVar(&alertDescription, "description", "", "alert description")
	alertsCreateCmd.Flags().StringVar(&alertRisk, "risk", "moderado", "seguro, moderado or critico")

	alertsDeleteCmd.Flags().BoolVarP(&alertYes, "yes", "y", false, "do not ask for confirmation")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsCreateCmd)
	alertsCmd.AddCommand(alertsDeleteCmd)
	rootCmd.AddCommand(alertsCmd)
}
