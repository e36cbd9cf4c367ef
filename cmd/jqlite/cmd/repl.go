package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:    "repl",
	Short:  "Interactive filter REPL (not yet implemented)",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("repl: not implemented; use 'jqlite run' for one-shot queries")
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
