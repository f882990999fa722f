package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/isoft/internal/config"
	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/version"
)

// errReported signals that the failure was already rendered for the user
var errReported = errors.New("error already reported")

// Connection flags shared by every device command
var (
	configPath   string
	deviceHost   string
	username     string
	password     string
	useHTTPS     bool
	insecure     bool
	timeout      time.Duration
	logLevel     string
	outputFormat string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: platform config dir/isoft/config.yaml)")
	flags.StringVar(&deviceHost, "host", "", "Device address, e.g. 192.168.1.40 or https://isoft.local")
	flags.StringVar(&username, "username", "", "Device username (default: "+device.DefaultUsername+")")
	flags.StringVar(&password, "password", "", "Device password (or set "+config.PasswordEnvVar+")")
	flags.BoolVar(&useHTTPS, "https", false, "Use HTTPS")
	flags.BoolVar(&insecure, "insecure", false, "Accept self-signed device certificates")
	flags.DurationVar(&timeout, "timeout", device.DefaultTimeout, "Per-request timeout")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
}

// addFormatFlag registers --format on commands with machine-readable output
func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// loadConfig reads the config file and applies the connection flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Device.Host = deviceHost
	}
	if flags.Changed("username") {
		cfg.Device.Username = username
	}
	if flags.Changed("password") {
		cfg.Device.Password = password
	}
	if flags.Changed("https") {
		cfg.Device.Scheme = "http"
		if useHTTPS {
			cfg.Device.Scheme = "https"
		}
	}
	if flags.Changed("insecure") {
		cfg.Device.InsecureSkipVerify = insecure
	}
	if flags.Changed("timeout") {
		cfg.Device.Timeout = timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	} else if cfg.Log.Level != "" {
		if err := logging.Initialize(cfg.Log.Level); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	return cfg, nil
}

// newClient builds a device client from config and flags
func newClient(cmd *cobra.Command) (*device.Client, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Device.Host == "" {
		return nil, nil, errors.New("no device configured: pass --host or run 'isoft config init --host <address>'")
	}

	client, err := cfg.NewClient(device.WithUserAgent(version.UserAgent()))
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func checkFormat() error {
	switch outputFormat {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", outputFormat)
	}
}
