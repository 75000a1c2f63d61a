package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	"github.com/oshokin/alarm-orchestrator/internal/service/server"
	"github.com/oshokin/alarm-orchestrator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// ledgerFile path where trigger events are persisted.
	ledgerFile string

	// rootCmd represents the base command for running the HTTP server.
	rootCmd = &cobra.Command{
		Use:   "alarm-orchestrator [listen-address]",
		Short: "Run the alarm orchestrator HTTP server.",
		Long: `Starts the alarm orchestrator that manages arming state, records trigger
events and fans out audit-log writes and notifications.

The server listens on the specified address or uses settings from configuration file.
Only the port from ServerAddress config is used for listening (e.g., :8080).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).
Trigger events are persisted to a JSON ledger file for recovery across restarts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				LedgerFile:    ledgerFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-orchestrator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&ledgerFile, "ledger-file", "l", config.DefaultLedgerFilename, "path to persist trigger events")
}
