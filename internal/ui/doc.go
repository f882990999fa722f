// Package ui renders the isoft CLI's terminal output.
//
// Commands run once and exit, so the package only formats strings with
// Lipgloss; nothing here reads input. Three components cover every command:
//
//   - Header: banner naming the command and the device it talks to
//   - Result: success, warning or failure box with ordered key/value details
//     and, for failures, troubleshooting tips taken from the device error
//   - Readings: measurement table for `isoft show`
//
// Example:
//
//	fmt.Println(ui.NewHeader("Water softener", "isoft show",
//	    ui.Details{{"Device", client.Host()}}).Render())
//	fmt.Println(ui.RenderReadings(snap))
//
// # Logging Integration
//
// Logging is controlled by ISOFT_LOG_LEVEL or --log-level. When neither is
// set zap stays silent so the rendered output is not interleaved with log
// lines.
package ui
