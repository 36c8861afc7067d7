package main

import (
	"fmt"
	"os"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/cmd"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Red("Erro:")+" "+apperr.Message(err))
		os.Exit(1)
	}
}
