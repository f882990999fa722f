package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/poller"
	"github.com/muurk/isoft/internal/register"
	"github.com/muurk/isoft/internal/ui"
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(infoCmd)

	addFormatFlag(showCmd)
	addFormatFlag(getCmd)
	addFormatFlag(statsCmd)
	addFormatFlag(infoCmd)
}

// showCmd reads every measurement once
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all measurements",
	Long: `Read every measurement from the softener once and display them.

Each measurement is read independently. A measurement the device does not
answer is shown as missing; the command only fails when no measurement
could be read at all.`,
	Example: `  # Show measurements of the configured device
  isoft show

  # Show measurements of a specific device
  isoft show --host 192.168.1.40

  # JSON output for scripting
  isoft show --format json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	client, cfg, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	kinds, err := cfg.Kinds()
	if err != nil {
		return err
	}

	p, err := poller.New(poller.Config{
		Device:   client.Host(),
		Interval: cfg.Poll.Interval,
		Kinds:    kinds,
	}, client)
	if err != nil {
		return err
	}

	printHeader(cmd, "Water softener", client)
	snap := p.PollOnce(cmd.Context())

	if len(snap.Readings) == 0 && len(snap.Kinds) > 0 {
		return reportFailure(cmd, "No measurement could be read", snap.Failures[snap.Kinds[0]])
	}

	switch {
	case outputFormat == "json":
		return printJSON(cmd, snap.Doc())
	case ui.IsTerminal():
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderReadings(snap))
	default:
		fmt.Fprint(cmd.OutOrStdout(), ui.PlainReadings(snap))
	}
	return nil
}

// getCmd reads one measurement
var getCmd = &cobra.Command{
	Use:   "get <measurement>",
	Short: "Read one measurement",
	Long: `Read a single measurement from the softener.

Measurements:
  water_hardness       set water hardness (°dH)
  salt_level           remaining salt (g)
  total_water_volume   total water counter (m³)
  soft_water_volume    soft water counter (m³)
  operating_hours      operating time
  daily_statistics     consumption of the current day (L)
  weekly_statistics    consumption of the current ISO week (L)
  monthly_statistics   consumption of the current month (L)
  yearly_statistics    consumption of the current year (L)

Dashes may be used instead of underscores.`,
	Example: `  isoft get salt_level
  isoft get total-water-volume --format json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE:      runGet,
}

func kindNames() []string {
	names := make([]string, 0, len(device.Kinds))
	for _, k := range device.Kinds {
		names = append(names, k.String())
	}
	return names
}

func runGet(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	kind, err := device.ParseKind(args[0])
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(kindNames(), ", "))
	}

	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	reading, err := client.Measure(cmd.Context(), kind)
	if err != nil {
		return reportFailure(cmd, "Could not read "+kind.Title(), err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, poller.NewReadingDoc(reading))
	}
	fmt.Fprintln(cmd.OutOrStdout(), reading.String())
	return nil
}

var statsDate string

// statsCmd reads a statistics record for any date
var statsCmd = &cobra.Command{
	Use:   "stats <daily|weekly|monthly|yearly>",
	Short: "Read consumption statistics",
	Long: `Read a consumption statistics record with its individual values.

Without --date the period containing today is read. The record holds one
value per sub-period (for example per interval of the day, or per day of
the week), in liters.`,
	Example: `  # Today's consumption profile
  isoft stats daily

  # The week that contained 3 March 2025
  isoft stats weekly --date 2025-03-03`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daily", "weekly", "monthly", "yearly"},
	RunE:      runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Date inside the period (YYYY-MM-DD, default today)")
}

type statsDoc struct {
	Period string   `json:"period"`
	Date   string   `json:"date"`
	Total  uint64   `json:"total"`
	Values []uint32 `json:"values"`
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	period, err := register.ParsePeriod(args[0])
	if err != nil {
		return err
	}

	date := time.Now()
	if statsDate != "" {
		date, err = time.ParseInLocation(time.DateOnly, statsDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q (use YYYY-MM-DD): %w", statsDate, err)
		}
	}

	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	stats, err := client.Statistics(cmd.Context(), period, date)
	if err != nil {
		return reportFailure(cmd, "Could not read "+period.String()+" statistics", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, statsDoc{
			Period: period.String(),
			Date:   date.Format(time.DateOnly),
			Total:  stats.Total,
			Values: stats.Values,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s statistics for %s: %d L\n", period, date.Format(time.DateOnly), stats.Total)
	for i, v := range stats.Values {
		fmt.Fprintf(out, "  %2d  %d L\n", i+1, v)
	}
	return nil
}

// rawCmd reads any register verbatim
var rawCmd = &cobra.Command{
	Use:   "raw <register>",
	Short: "Read the raw hex payload of a register",
	Long: `Read a register and print its payload exactly as the device returns it.

Useful for inspecting registers this tool does not decode, or payloads from
firmware revisions with a different layout.`,
	Example: `  # Water hardness register
  isoft raw 5100

  # Daily statistics for 4 Feb 2025
  isoft raw FB040207E9`,
	Args: cobra.ExactArgs(1),
	RunE: runRaw,
}

func runRaw(cmd *cobra.Command, args []string) error {
	reg, err := register.ParseAddress(args[0])
	if err != nil {
		return err
	}

	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	payload, err := client.Read(cmd.Context(), reg)
	if err != nil {
		return reportFailure(cmd, "Could not read register "+string(reg), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), payload)
	return nil
}

// infoCmd reads device identification
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device type, firmware and serial number",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

type infoDoc struct {
	Type     string `json:"type"`
	TypeCode string `json:"type_code"`
	Firmware string `json:"firmware"`
	Serial   uint32 `json:"serial"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := checkFormat(); err != nil {
		return err
	}

	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	printHeader(cmd, "Device information", client)

	info, err := client.FetchInfo(cmd.Context())
	if err != nil {
		return reportFailure(cmd, "Could not read device information", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, infoDoc{
			Type:     info.Type.String(),
			TypeCode: fmt.Sprintf("0x%02X", uint8(info.Type)),
			Firmware: info.Firmware.String(),
			Serial:   info.Serial,
		})
	}

	printSuccess(cmd, "Device information", ui.Details{
		{Key: "Type", Value: info.Type.String()},
		{Key: "Firmware", Value: info.Firmware.String()},
		{Key: "Serial", Value: strconv.FormatUint(uint64(info.Serial), 10)},
	})
	return nil
}
