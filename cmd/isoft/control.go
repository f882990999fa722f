package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/register"
	"github.com/muurk/isoft/internal/ui"
)

var verifyHardness bool

func init() {
	setCmd.AddCommand(setHardnessCmd)
	setHardnessCmd.Flags().BoolVar(&verifyHardness, "verify", false, "Read the hardness back until the device reports the new value")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(leakProtectionCmd)
	rootCmd.AddCommand(vacationCmd)
	rootCmd.AddCommand(regenerateCmd)
}

// setCmd groups setpoint commands
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change a device setpoint",
}

var setHardnessCmd = &cobra.Command{
	Use:   "hardness <°dH>",
	Short: "Set the target hardness of the softened water",
	Long: fmt.Sprintf(`Set the water hardness the softener blends to, in degrees of German
hardness (°dH). The register holds one byte, so values 0-%d are accepted;
the useful range for drinking water is much narrower.`, register.MaxHardness),
	Example: `  isoft set hardness 8

  # Confirm the device applied the change
  isoft set hardness 8 --verify`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dH, err := device.ParseHardness(args[0])
		if err != nil {
			return err
		}
		if verifyHardness {
			return runVerifiedHardness(cmd, dH)
		}
		return runCommand(cmd, "Water hardness set", ui.Details{{Key: "Hardness", Value: strconv.Itoa(dH) + " °dH"}},
			func(ctx context.Context, c *device.Client) error { return c.SetWaterHardness(ctx, dH) })
	},
}

var leakProtectionCmd = &cobra.Command{
	Use:       "leak-protection <on|off>",
	Short:     "Switch leak protection on or off",
	Example:   `  isoft leak-protection on`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := device.ParseSwitch(args[0])
		if err != nil {
			return err
		}
		return runCommand(cmd, "Leak protection "+onOff(on), nil,
			func(ctx context.Context, c *device.Client) error { return c.SetLeakProtection(ctx, on) })
	},
}

var vacationCmd = &cobra.Command{
	Use:   "vacation <on|off>",
	Short: "Switch vacation mode on or off",
	Long: `Switch vacation mode on or off. In vacation mode the softener limits
water flow and skips regenerations while nobody is home.`,
	Example:   `  isoft vacation off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := device.ParseSwitch(args[0])
		if err != nil {
			return err
		}
		return runCommand(cmd, "Vacation mode "+onOff(on), nil,
			func(ctx context.Context, c *device.Client) error { return c.SetVacationMode(ctx, on) })
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Start a manual regeneration",
	Long: `Start a manual regeneration cycle. The softener uses salt and water to
recharge its resin; soft water is unavailable for the duration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "Regeneration started", nil,
			func(ctx context.Context, c *device.Client) error { return c.StartRegeneration(ctx) })
	},
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// runCommand connects, runs fn once and reports the outcome. Commands are
// never retried.
func runCommand(cmd *cobra.Command, title string, details ui.Details, fn func(context.Context, *device.Client) error) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := fn(cmd.Context(), client); err != nil {
		return reportFailure(cmd, "Command rejected", err)
	}

	printSuccess(cmd, title, append(ui.Details{{Key: "Device", Value: client.Host()}}, details...))
	return nil
}

func runVerifiedHardness(cmd *cobra.Command, dH int) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	result := client.SetWaterHardnessVerified(cmd.Context(), dH, device.DefaultVerificationOptions())
	if !result.Success {
		return reportFailure(cmd, "Hardness not confirmed", result.Err)
	}

	printSuccess(cmd, "Water hardness set and verified", ui.Details{
		{Key: "Device", Value: client.Host()},
		{Key: "Hardness", Value: strconv.Itoa(int(result.Actual)) + " °dH"},
		{Key: "Attempts", Value: strconv.Itoa(result.Attempts)},
	})
	return nil
}
