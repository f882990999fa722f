// Isoft-bridge polls a Judo i-soft water softener and republishes its
// measurements.
//
// Every poll cycle reads each configured measurement once and hands the
// snapshot to the enabled outputs: retained MQTT state topics (with command
// topics for remote control), a Prometheus /metrics endpoint and a WebSocket
// live feed. All settings come from the config file.
//
// Usage:
//
//	isoft-bridge run [flags]
//
// See 'isoft-bridge run --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "isoft-bridge",
	Short: "i-soft water softener bridge",
	Long: `A long-running bridge between a Judo i-soft water softener and a home
automation platform.

The bridge polls the softener on a fixed interval and publishes every
measurement over MQTT, as Prometheus metrics and on a WebSocket feed.
Commands received on the MQTT command topics are forwarded to the device.

Note: For one-off reads and commands, use the separate 'isoft' utility.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "isoft-bridge %s\n", version.Full())
	},
}
