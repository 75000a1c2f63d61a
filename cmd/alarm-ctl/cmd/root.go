package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	"github.com/oshokin/alarm-orchestrator/internal/service/client"
	"github.com/oshokin/alarm-orchestrator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the orchestrator address from config.
	serverAddress string
	// token is the bearer credential presented to the orchestrator.
	token string

	// rootCmd represents the base command for operator tooling.
	rootCmd = &cobra.Command{
		Use:   "alarm-ctl",
		Short: "Operate alarms through the orchestrator API.",
		Long: `Command line client for the alarm orchestrator.

Arms and disarms alarms, queries arming state, records and resolves trigger
events and reports trigger statistics. All commands except trigger require
a bearer token obtained from the identity provider.`,
	}
)

// commandContext returns a context canceled on SIGTERM or SIGINT.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// options assembles the shared client options from global flags.
func options() *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Token:         token,
	}
}

var armCmd = &cobra.Command{
	Use:   "arm <alarm-id>",
	Short: "Arm an alarm so sensor triggers are accepted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		return client.RunArm(ctx, options(), args[0])
	},
}

var disarmCmd = &cobra.Command{
	Use:   "disarm <alarm-id>",
	Short: "Disarm an alarm so sensor triggers are rejected.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		return client.RunDisarm(ctx, options(), args[0])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [alarm-id]",
	Short: "Show the arming state of one alarm, or of every alarm.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		var alarmID string
		if len(args) > 0 {
			alarmID = args[0]
		}

		return client.RunStatus(ctx, options(), alarmID)
	},
}

var (
	// triggerKind overrides the default trigger kind.
	triggerKind string
	// triggerPointID identifies the monitoring point.
	triggerPointID string
	// triggerPointName names the monitoring point.
	triggerPointName string
	// triggerDetails carries free-form context.
	triggerDetails string

	triggerCmd = &cobra.Command{
		Use:   "trigger <alarm-id>",
		Short: "Record a trigger event against an armed alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			return client.RunTrigger(ctx, options(), client.TriggerInput{
				AlarmID:   args[0],
				PointID:   triggerPointID,
				PointName: triggerPointName,
				Kind:      triggerKind,
				Details:   triggerDetails,
			})
		},
	}
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <event-id>",
	Short: "Mark a trigger event as handled.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := commandContext()
		defer stop()

		eventID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}

		return client.RunResolve(ctx, options(), eventID)
	},
}

var (
	// listActiveOnly restricts listing to unresolved events.
	listActiveOnly bool
	// listLimit caps the number of listed events.
	listLimit int
	// listOffset skips events in cross-alarm listings.
	listOffset int

	listCmd = &cobra.Command{
		Use:   "list [alarm-id]",
		Short: "List trigger events for one alarm, or across every alarm.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			var alarmID string
			if len(args) > 0 {
				alarmID = args[0]
			}

			return client.RunList(ctx, options(), alarmID, listActiveOnly, listLimit, listOffset)
		},
	}
)

var (
	// statsPeriodDays is the day window for statistics.
	statsPeriodDays int

	statsCmd = &cobra.Command{
		Use:   "stats <alarm-id>",
		Short: "Show trigger statistics for an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := commandContext()
			defer stop()

			return client.RunStats(ctx, options(), args[0], statsPeriodDays)
		},
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "orchestrator address override (e.g., http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token for authenticated operations")

	triggerCmd.Flags().StringVar(&triggerKind, "kind", "", "trigger kind (defaults to movement)")
	triggerCmd.Flags().StringVar(&triggerPointID, "point-id", "", "monitoring point identifier")
	triggerCmd.Flags().StringVar(&triggerPointName, "point-name", "", "monitoring point name")
	triggerCmd.Flags().StringVar(&triggerDetails, "details", "", "free-form event details")

	listCmd.Flags().BoolVar(&listActiveOnly, "active", false, "show unresolved events only")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of events to show")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "events to skip in cross-alarm listings")

	statsCmd.Flags().IntVar(&statsPeriodDays, "period-days", 0, "day window for statistics (defaults to 30)")

	rootCmd.AddCommand(armCmd, disarmCmd, statusCmd, triggerCmd, resolveCmd, listCmd, statsCmd)
}
