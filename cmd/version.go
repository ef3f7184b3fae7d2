package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stockchat/stockchat/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command) error {
	cmd.Printf("Stockchat %s\n", AppVersion)
	cmd.Printf("Build Time: %s\n", BuildTime)
	cmd.Printf("Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version output stays useful even with a broken environment.
		cmd.Printf("\nConfiguration: unavailable (%v)\n", err)
		return nil
	}

	cmd.Println()
	cmd.Println("Configuration:")
	cmd.Printf("  Model: %s\n", cfg.ModelName)
	cmd.Printf("  Ollama: %s\n", cfg.OllamaHost)
	cmd.Printf("  Inventory: %s\n", cfg.InventoryURL)
	cmd.Printf("  Temperature: %.2f\n", cfg.Temperature)

	return nil
}
