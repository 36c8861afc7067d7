package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// printJSON writes v as indented JSON on stdout.
func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printKV prints one aligned label/value line.
func printKV(label, value string) {
	fmt.Println(styles.Label.Width(14).Render(label) + styles.Value.Render(value))
}

// confirm asks a yes/no question and defaults to no. A failed prompt (no
// terminal, Ctrl+C) counts as no.
func confirm(title string) bool {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Sim").
		Negative("Não").
		Value(&ok).
		Run()
	return err == nil && ok
}
