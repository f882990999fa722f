// Isoft reads and controls Judo i-soft water softeners.
//
// It talks to the softener's connectivity module over its local REST API:
// measurements (hardness, salt, water volumes, operating time, consumption
// statistics), device information and the four control commands.
//
// Usage:
//
//	isoft [command] [flags]
//
// Connection settings come from the config file (see 'isoft config init'),
// overridden by flags. See 'isoft --help' for available commands.
package main

import (
	"context"
	"errors"
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
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "isoft",
	Short: "Judo i-soft water softener utility",
	Long: `A command line client for Judo i-soft water softeners.

Reads measurements and device information from the softener's connectivity
module and sends control commands (hardness setpoint, leak protection,
vacation mode, regeneration) over the module's local REST API.

The device address and credentials are read from the config file and can be
overridden with flags. The module's factory credentials are used when no
password is configured.`,
	Version:           version.Full(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "isoft %s (commit: %s, %s, %s)\n",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
