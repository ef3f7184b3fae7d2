package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stockchat/stockchat/api"
	"github.com/stockchat/stockchat/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve exposes the assistant over HTTP.

Endpoints:
  POST /api/query   interpret a natural-language query
  GET  /health      liveness probe
  GET  /ready       readiness probe (checks the language model)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runServe(args)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides configuration")
	rootCmd.AddCommand(serveCmd)
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Precedence: positional argument, --addr flag, configuration.
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if len(args) > 0 {
		addr = args[0]
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)
	logger.Info("starting stockchat", "version", AppVersion, "model", cfg.ModelName)

	a, model := buildAgent(cfg, logger)

	srv := api.NewServer(api.ServerConfig{
		Agent:     a,
		Readiness: model,
		Logger:    logger.With("component", "api"),
		RateBurst: cfg.RateBurst,
	})

	// The model is optional at startup; the agent degrades to keyword
	// classification when it is missing. Warn rather than fail.
	if err := model.Probe(ctx); err != nil {
		logger.Warn("language model unavailable, keyword fallback active",
			"model", cfg.ModelName, "error", err)
	}

	return srv.Run(ctx, addr)
}
