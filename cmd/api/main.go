// Command api runs the skill-sharing marketplace backend.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillshare/backend/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Neighborhood skill-sharing marketplace API",
	Long: `api serves the marketplace HTTP API and runs its background jobs.
Without a subcommand it behaves like "api serve". Configuration comes from
the environment (DATABASE_URL, PORT, JWT_SECRET, RABBIT_URL, ...).`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the JSON logger as the default.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
