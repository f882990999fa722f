package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/isoft/internal/config"
)

var forceInit bool

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	Long: `Write a configuration file with every default filled in. Connection
flags given on the command line (--host, --username, --https, ...) are
stored in the file. Passwords are only stored when passed with --password.`,
	Example: `  isoft config init --host 192.168.1.40
  isoft config init --host isoft.local --config ./isoft.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot access config file: %w", err)
	}

	// Start from defaults, not from an existing file or the environment
	cfg := config.Default()
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
	if useHTTPS {
		cfg.Device.Scheme = "https"
	}
	cfg.Device.InsecureSkipVerify = insecure
	if flags.Changed("timeout") {
		cfg.Device.Timeout = timeout
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	if cfg.Device.Host == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "  Set device.host (or pass --host) before talking to the device.")
	}
	return nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file, environment
variables and flags have been applied. Passwords are masked. Validation
problems are listed on stderr.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nConfiguration problems:\n%v\n", err)
	}
	return nil
}
