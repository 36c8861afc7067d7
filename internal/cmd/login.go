package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

var (
	loginUsername      string
	loginRole          string
	loginPasswordStdin bool
	whoamiJSON         bool
)

// --- login ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Rastreia+ backend",
	Long: `Sign in with a username, e-mail or CPF and a password.

Missing credentials are asked for interactively. Use --password-stdin to
read the password from standard input in scripts. --role restricts the
session to one of the account's roles (MANAGER, PROFESSIONAL, PATIENT).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		username := strings.TrimSpace(loginUsername)
		var password string
		if loginPasswordStdin {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if username == "" || password == "" {
			if err := promptCredentials(&username, &password); err != nil {
				return err
			}
		}

		want, err := parseRole(loginRole)
		if err != nil {
			return err
		}

		ctx, cancel := e.commandContext(2)
		defer cancel()
		s, err := auth.Login(ctx, e.client, e.session, username, password, want, e.log)
		if err != nil {
			return fmt.Errorf("signing in: %w", err)
		}

		fmt.Println(styles.Green("✔") + " Conectado como " + styles.Gold(s.Username) + styles.Dim(" ("+string(s.Role)+")"))
		fmt.Println(styles.Dim("  backend: " + e.baseURL()))
		if home := auth.Home(s.Role); home != "" {
			fmt.Println(styles.Dim("  área inicial: " + string(home) + " - " + homeHint(home)))
		}
		return nil
	},
}

func promptCredentials(username, password *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Usuário").
				Description("Nome de usuário, e-mail ou CPF").
				Value(username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("informe o usuário")
					}
					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Senha").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("informe a senha")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}
	*username = strings.TrimSpace(*username)
	return nil
}

func parseRole(s string) (api.Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "MANAGER", "GESTOR":
		return api.RoleManager, nil
	case "PROFESSIONAL", "PROFISSIONAL":
		return api.RoleProfessional, nil
	case "PATIENT", "PACIENTE":
		return api.RolePatient, nil
	}
	return "", fmt.Errorf("unknown role %q (use MANAGER, PROFESSIONAL or PATIENT)", s)
}

func homeHint(r auth.Route) string {
	switch r {
	case auth.RouteGestor:
		return "rastreia dashboard"
	case auth.RouteProfissional:
		return "rastreia patients list"
	case auth.RouteMe:
		return "rastreia whoami"
	}
	return ""
}

// --- logout ---

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		if !e.session.LoggedIn() {
			fmt.Println(styles.Dim("Nenhuma sessão ativa."))
			return nil
		}
		ctx, cancel := e.commandContext(1)
		defer cancel()
		if err := auth.Logout(ctx, e.client, e.session, e.log); err != nil {
			return fmt.Errorf("signing out: %w", err)
		}
		fmt.Println(styles.Green("✔") + " Sessão encerrada.")
		return nil
	},
}

// --- whoami ---

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		if !e.session.LoggedIn() {
			return apperr.Unauthorized("Faça login para continuar.")
		}
		s := e.session.Session()
		c := e.claims()

		ctx, cancel := e.commandContext(1)
		defer cancel()
		me, err := e.client.Me(ctx)
		if err != nil {
			return fmt.Errorf("loading account: %w", err)
		}

		if whoamiJSON {
			return printJSON(struct {
				api.Me
				ActiveRole     api.Role  `json:"active_role"`
				ProfessionalID int       `json:"professional_id,omitempty"`
				ExpiresAt      time.Time `json:"expires_at,omitempty"`
				Backend        string    `json:"backend"`
			}{me, s.Role, c.ProfessionalID, c.ExpiresAt, e.baseURL()})
		}

		name := strings.TrimSpace(me.User.FirstName + " " + me.User.LastName)
		printKV("USUÁRIO", me.User.Username)
		if name != "" {
			printKV("NOME", name)
		}
		if me.User.Email != "" {
			printKV("E-MAIL", me.User.Email)
		}
		roles := make([]string, len(me.Roles))
		for i, r := range me.Roles {
			roles[i] = string(r)
		}
		printKV("PAPÉIS", strings.Join(roles, ", "))
		printKV("PAPEL ATIVO", string(s.Role))
		if c.ProfessionalID > 0 {
			printKV("PROFISSIONAL", fmt.Sprint(c.ProfessionalID))
		}
		if !c.ExpiresAt.IsZero() {
			printKV("TOKEN EXPIRA", c.ExpiresAt.Local().Format("02/01/2006 15:04"))
		}
		printKV("BACKEND", e.baseURL())
		if home := auth.Home(s.Role); home != "" && auth.Allowed(home, s.Role, e.features()) {
			printKV("ÁREA", string(home))
		}
		return nil
	},
}

// withSession fails early when nobody is signed in.
func withSession(e *env, route auth.Route) error {
	if !e.session.LoggedIn() {
		return apperr.Unauthorized("Faça login para continuar.")
	}
	return e.require(route)
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username, e-mail or CPF")
	loginCmd.Flags().StringVar(&loginRole, "role", "", "required role: MANAGER, PROFESSIONAL or PATIENT")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
