package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(styles.Cyan(styles.CompactLogo) + "  " + styles.Value.Render("v"+Version))
		fmt.Println()
		printKV("VERSION", Version)
		printKV("COMMIT", GitCommit)
		printKV("BUILT", BuildDate)
		printKV("GO", runtime.Version())
		printKV("OS/ARCH", runtime.GOOS+"/"+runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
