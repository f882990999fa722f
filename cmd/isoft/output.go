package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/ui"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// reportFailure renders err with troubleshooting hints on stderr and returns
// errReported so main exits non-zero without printing it again.
func reportFailure(cmd *cobra.Command, title string, err error) error {
	out := cmd.ErrOrStderr()
	if ui.IsTerminal() {
		fmt.Fprintln(out, ui.RenderFailure(title, err))
	} else {
		fmt.Fprintf(out, "Error: %s: %s\n", title, device.GetShortErrorMessage(err))
		fmt.Fprintf(out, "%s\n", err)
	}
	return errReported
}

func printHeader(cmd *cobra.Command, title string, client *device.Client) {
	if outputFormat == "json" || !ui.IsTerminal() {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.NewHeader(title, cmd.CommandPath(),
		ui.Details{{Key: "Device", Value: client.BaseURL()}}).Render())
}

func printSuccess(cmd *cobra.Command, title string, details ui.Details) {
	if ui.IsTerminal() {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(title, details))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), title)
	for _, d := range details {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", d.Key, d.Value)
	}
}
