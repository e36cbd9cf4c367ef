package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "jqlite",
	Short: "A jq-compatible JSON filter engine",
	Long: `jqlite is a Go implementation of a jq-compatible filter language:
lex -> parse -> evaluate a '.'-style query against a stream of JSON
documents, producing zero or more JSON outputs per document.

This is a filter engine, not a general-purpose scripting language:
there are no statements, no classes, no static types -- every
expression is a filter from one input value to zero or more outputs.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
