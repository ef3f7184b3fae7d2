// Package cmd wires the CLI surface: serve starts the HTTP API, ask runs
// a one-shot query, version prints build information.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stockchat",
	Short: "Stockchat - natural-language assistant for your inventory",
	Long: `Stockchat interprets plain-language questions about sales, stock levels
and metrics, answers them from your inventory backend, and can register
stock movements on your behalf.

Run "stockchat serve" to expose the assistant over HTTP, or
"stockchat ask" for a one-shot question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
