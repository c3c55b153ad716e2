// Package commands implements the steward CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/stewardai/steward/config"
	"github.com/stewardai/steward/logging"
)

const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "steward",
	Short:   "Steward - a supervisor agent for data-query sub-agents",
	Long:    `Steward serves an LLM supervisor agent that delegates data questions to natural-language-to-SQL spaces, served sub-agents and registered analytic functions, exposed over a Responses-style protocol.`,
	Version: Version,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

// loadConfig loads the configuration and builds the process logger from it.
func loadConfig() (config.Config, logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}

	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return cfg, nil, fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return cfg, logging.NewSlogAdapter(slog.New(handler)), nil
}
