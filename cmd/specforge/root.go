package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "specforge",
	Short: "Spec generation gateway",
	Long: `specforge turns product ideas into AI-agent-ready technical specs.

Commands:
  specforge serve              Run the HTTP API (default)
  specforge seed [file]        Upsert prompt fragments into the store
  specforge validate <file>    Check a spec against the output contract`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a JSON config file (overrides SPECFORGE_CONFIG_PATH)")
}

// loadConfig honours --config and builds the logger for the configured env.
func loadConfig() (*config.Config, *logger.Logger, error) {
	if configPath != "" {
		if err := os.Setenv("SPECFORGE_CONFIG_PATH", configPath); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
