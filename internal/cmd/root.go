package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rastreiamais/rastreia/internal/config"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	apiURL  string
)

var rootCmd = &cobra.Command{
	Use:   "rastreia",
	Short: "Rastreia+ clinical data-entry client",
	Long: `Rastreia+ - cadastro e acompanhamento de pacientes com HAS e DM

Terminal client for the Rastreia+ backend: register and edit patients
through a five-step wizard, browse the patient roster, manage alerts and
follow the manager dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor || os.Getenv("NO_COLOR") != "" {
			styles.DisableColor()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(styles.Title.Render(styles.CompactLogo) + "  " + styles.Dim("v"+Version))
		fmt.Println("Run 'rastreia --help' for available commands")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/rastreia/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend address, overrides the active profile")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		if paths, err := config.DefaultPaths(); err == nil {
			viper.AddConfigPath(filepath.Dir(paths.Config))
		}
	}
	viper.SetEnvPrefix("RASTREIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
