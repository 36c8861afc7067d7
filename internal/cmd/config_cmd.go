package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// --- config (parent) ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `View and manage the rastreia configuration.

When run without subcommands, displays the current configuration.

Subcommands:
  show       Print every setting
  path       Print the config file location
  set        Change one setting
  validate   Report configuration problems
  profiles   List backend profiles
  switch     Switch the active backend profile`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCmd.RunE(cmd, args)
	},
}

// --- config show ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println(styles.Title.Render("Configuração"))
		fmt.Println(styles.Dim(config.File()))
		fmt.Println()
		for _, s := range cfg.Settings() {
			val := s.Value
			if val == "" {
				val = styles.Dim("-")
			}
			fmt.Println(styles.Label.Width(32).Render(s.Key) + " " + styles.Value.Render(val))
		}
		fmt.Println()
		fmt.Println(styles.Label.Width(32).Render("effective base_url") + " " + styles.Cyan(cfg.BaseURL()))
		return nil
	},
}

// --- config path ---

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(viper.GetViper()); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		fmt.Println(config.File())
		return nil
	},
}

// --- config set ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Long: `Change one setting, for example:

  rastreia config set api.base_url https://rastreia.example.org
  rastreia config set profiles.homolog.base_url https://homolog.example.org
  rastreia config set draft.backend redis`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := strings.ToLower(args[0]), args[1]

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if !knownKey(cfg, key) {
			return fmt.Errorf("unknown setting %q (see 'rastreia config show')", key)
		}

		viper.Set(key, value)
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("applying %s: %w", key, err)
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				if e.Field == key {
					return fmt.Errorf("invalid value for %s: %s", key, e.Message)
				}
			}
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println(styles.Green("Saved") + " " + styles.Value.Render(key) + " = " + styles.Cyan(value))
		return nil
	},
}

// knownKey accepts the flattened settings plus new profile entries.
func knownKey(cfg *config.Config, key string) bool {
	for _, s := range cfg.Settings() {
		if s.Key == key {
			return true
		}
	}
	parts := strings.Split(key, ".")
	return len(parts) == 3 && parts[0] == "profiles" && parts[1] != "" &&
		(parts[2] == "base_url" || parts[2] == "display_name")
}

// --- config validate ---

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report configuration problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Println(styles.Green("✔") + " " + styles.Value.Render("configuration is valid"))
			return nil
		}
		for _, e := range errs {
			fmt.Println(styles.Red("✘") + " " + styles.Bold(e.Field) + "  " + styles.Dim(e.Message))
		}
		return fmt.Errorf("%d configuration problem(s)", len(errs))
	},
}

// --- config profiles ---

var configProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List backend profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println(styles.Title.Render("Backend Profiles"))
		fmt.Println()

		profiles := config.ListProfiles(cfg)
		if len(profiles) == 0 {
			fmt.Println(styles.Dim("  No profiles configured; using api.base_url = " + cfg.API.BaseURL))
			return nil
		}

		fmt.Printf("  %s  %s  %s\n",
			styles.TableHeader.Width(16).Render("NAME"),
			styles.TableHeader.Width(22).Render("DISPLAY NAME"),
			styles.TableHeader.Width(40).Render("BASE URL"),
		)
		fmt.Println(styles.Divider(82))

		for i, ref := range profiles {
			row := styles.TableRow(i%2 == 0)
			active := " "
			if ref.Active {
				active = styles.Cyan("*")
			}
			fmt.Printf("%s %s  %s  %s\n",
				active,
				row.Width(16).Render(ref.Name),
				styles.Dim(fmt.Sprintf("%-22s", ref.DisplayName)),
				styles.Dim(styles.TruncateWithEllipsis(ref.BaseURL, 40)),
			)
		}

		fmt.Println()
		fmt.Println(styles.Dim("  * = active profile"))
		return nil
	},
}

// --- config switch ---

var configSwitchCmd = &cobra.Command{
	Use:   "switch <profile>",
	Short: "Switch the active backend profile",
	Long: `Make a profile active. Its base_url then overrides api.base_url.
Pass "-" to go back to api.base_url.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if name == "-" {
			name = ""
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := config.SwitchProfile(cfg, name); err != nil {
			return fmt.Errorf("switching profile: %w", err)
		}

		if name == "" {
			fmt.Println(styles.Green("Using api.base_url") + " " + styles.Value.Render(cfg.API.BaseURL))
			return nil
		}
		fmt.Println(styles.Green("Switched active profile to") + " " + styles.Value.Render(name))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configProfilesCmd)
	configCmd.AddCommand(configSwitchCmd)
	rootCmd.AddCommand(configCmd)
}
