package cmd

import (
	"github.com/stockchat/stockchat/internal/agent"
	"github.com/stockchat/stockchat/internal/config"
	"github.com/stockchat/stockchat/internal/inventory"
	"github.com/stockchat/stockchat/internal/log"
	"github.com/stockchat/stockchat/internal/ollama"
)

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
}

// buildAgent wires the model client, the inventory client and the agent
// from the loaded configuration. The model client is returned separately
// so callers can use it for readiness probing.
func buildAgent(cfg *config.Config, logger log.Logger) (*agent.Agent, *ollama.Client) {
	model := ollama.New(ollama.Config{
		Host:             cfg.OllamaHost,
		Model:            cfg.ModelName,
		Temperature:      cfg.Temperature,
		AllowTagFallback: cfg.AllowTagFallback,
	}, logger.With("component", "ollama"))

	inv := inventory.New(cfg.InventoryURL, nil, logger.With("component", "inventory"))

	return agent.New(model, inv, logger.With("component", "agent")), model
}
