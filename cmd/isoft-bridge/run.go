package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/isoft/internal/config"
	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/metrics"
	"github.com/muurk/isoft/internal/mqtt"
	"github.com/muurk/isoft/internal/poller"
	"github.com/muurk/isoft/internal/server"
	"github.com/muurk/isoft/internal/stream"
	"github.com/muurk/isoft/internal/version"
)

var (
	configPath string
	envFile    string
	logLevel   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the softener and publish measurements",
	Long: `Start the bridge and keep it running until interrupted (SIGINT/SIGTERM).

The first poll happens immediately, then every poll.interval. A measurement
the device does not answer is skipped for that cycle: its MQTT state keeps
the last good value and the failure is counted in
isoft_poll_failures_total.

Outputs are enabled in the config file:

  mqtt.enabled     retained state, availability and command topics
  metrics.enabled  Prometheus exposition on metrics.listen + metrics.path
  stream.enabled   WebSocket feed on metrics.listen + stream.path`,
	Example: `  # Run with the default config file
  isoft-bridge run

  # Run with a specific config and debug logging
  isoft-bridge run --config /etc/isoft/config.yaml --log-level debug

  # Keep passwords out of the config file
  isoft-bridge run --env-file /etc/isoft/isoft.env`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: platform config dir/isoft/config.yaml)")
	runCmd.Flags().StringVar(&envFile, "env-file", "", "Dotenv file with "+config.PasswordEnvVar+" / "+config.MQTTPasswordEnvVar)
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log.level")
}

func runBridge(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if err := logging.Initialize(cfg.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	return run(cmd.Context(), cfg)
}

// run wires the poller to every enabled output and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	kinds, err := cfg.Kinds()
	if err != nil {
		return err
	}

	client, err := cfg.NewClient(device.WithUserAgent(version.UserAgent()))
	if err != nil {
		return err
	}
	defer client.Close()

	p, err := poller.New(poller.Config{
		Device:   client.Host(),
		Interval: cfg.Poll.Interval,
		Kinds:    kinds,
	}, client)
	if err != nil {
		return err
	}

	logging.Info("Starting i-soft bridge",
		zap.String("version", version.Full()),
		zap.String("device", client.BaseURL()),
		zap.Duration("interval", cfg.Poll.Interval),
		zap.Int("measurements", len(kinds)),
	)

	g, ctx := errgroup.WithContext(ctx)
	var sinks []poller.Sink

	if cfg.MQTT.Enabled {
		bridge, closeMQTT, err := startMQTT(ctx, cfg, client)
		if err != nil {
			return err
		}
		defer closeMQTT()
		sinks = append(sinks, bridge)
	}

	if cfg.Metrics.Enabled || cfg.Stream.Enabled {
		srvCfg := &server.Config{Addr: cfg.Metrics.Listen}

		if cfg.Metrics.Enabled {
			exporter := metrics.New()
			srvCfg.MetricsPath = cfg.Metrics.Path
			srvCfg.MetricsHandler = exporter.Handler()
			sinks = append(sinks, exporter)
		}
		if cfg.Stream.Enabled {
			hub := stream.NewHub()
			defer hub.Close()
			srvCfg.StreamPath = cfg.Stream.Path
			srvCfg.StreamHandler = hub
			sinks = append(sinks, hub)
		}

		srv, err := server.New(srvCfg)
		if err != nil {
			return err
		}
		if err := srv.Listen(); err != nil {
			return err
		}
		sinks = append(sinks, srv)

		g.Go(func() error { return srv.Start(ctx) })
	}

	if len(sinks) == 0 {
		logging.Warn("No outputs enabled; polling for log output only")
	}

	snapshots := make(chan poller.Snapshot)
	g.Go(func() error {
		p.Run(ctx, snapshots)
		close(snapshots)
		return nil
	})
	g.Go(func() error {
		poller.Dispatch(ctx, snapshots, sinks...)
		return nil
	})

	err = g.Wait()
	logging.Info("i-soft bridge stopped")
	return err
}

// startMQTT connects to the broker, subscribes to command topics and
// publishes device information once.
func startMQTT(ctx context.Context, cfg *config.Config, client *device.Client) (*mqtt.Bridge, func(), error) {
	deviceID := cfg.MQTT.DeviceID
	if deviceID == "" {
		deviceID = client.Host()
	}
	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix, deviceID)

	mc, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := mc.Close(); err != nil {
			logging.Warn("MQTT close failed", zap.Error(err))
		}
	}

	bridge := mqtt.NewBridge(mc, client, topics, byte(cfg.MQTT.QoS))
	if err := bridge.Start(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to subscribe to command topics: %w", err)
	}

	if info, ok := client.DeviceInfo(ctx); ok {
		if err := bridge.PublishInfo(info); err != nil {
			logging.Warn("Failed to publish device info", zap.Error(err))
		}
	}

	return bridge, closeFn, nil
}
