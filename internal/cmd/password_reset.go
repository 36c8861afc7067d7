package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// minPasswordLength mirrors the backend's password policy.
const minPasswordLength = 8

var passwordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Reset a forgotten password",
	Long: `Reset a password in three steps:

  request <identifier>   ask the backend to e-mail a reset link
  validate <token>       check that the token from the link is still valid
  confirm <token>        choose the new password`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var passwordResetRequestCmd = &cobra.Command{
	Use:   "request <username|email|cpf>",
	Short: "Request a reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		ctx, cancel := e.commandContext(1)
		defer cancel()
		msg, err := e.client.RequestPasswordReset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("requesting reset: %w", err)
		}
		if msg == "" {
			msg = "Se a conta existir, um e-mail com instruções foi enviado."
		}
		fmt.Println(styles.Green("✔") + " " + msg)
		return nil
	},
}

var passwordResetValidateCmd = &cobra.Command{
	Use:   "validate <token>",
	Short: "Check a reset token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		ctx, cancel := e.commandContext(1)
		defer cancel()
		v, err := e.client.ValidateResetToken(ctx, args[0])
		if err != nil {
			return fmt.Errorf("validating token: %w", err)
		}
		if !v.Valid {
			msg := v.Message
			if msg == "" {
				msg = "Token inválido ou expirado."
			}
			return errors.New(msg)
		}
		fmt.Println(styles.Green("✔") + " Token válido")
		if v.Username != "" {
			printKV("USUÁRIO", v.Username)
		}
		if v.Email != "" {
			printKV("E-MAIL", v.Email)
		}
		return nil
	},
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "confirm <token>",
	Short: "Set the new password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()

		var password, confirm string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Nova senha").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(func(s string) error {
						if len([]rune(s)) < minPasswordLength {
							return fmt.Errorf("a senha deve ter pelo menos %d caracteres", minPasswordLength)
						}
						return nil
					}),
				huh.NewInput().
					Title("Confirme a senha").
					EchoMode(huh.EchoModePassword).
					Value(&confirm).
					Validate(func(s string) error {
						if s != password {
							return errors.New("as senhas não coincidem")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		ctx, cancel := e.commandContext(1)
		defer cancel()
		msg, err := e.client.ConfirmPasswordReset(ctx, args[0], password, confirm)
		if err != nil {
			return fmt.Errorf("resetting password: %w", err)
		}
		if msg == "" {
			msg = "Senha redefinida. Faça login com a nova senha."
		}
		fmt.Println(styles.Green("✔") + " " + msg)
		return nil
	},
}

func init() {
	passwordResetCmd.AddCommand(passwordResetRequestCmd)
	passwordResetCmd.AddCommand(passwordResetValidateCmd)
	passwordResetCmd.AddCommand(passwordResetConfirmCmd)
	rootCmd.AddCommand(passwordResetCmd)
}
