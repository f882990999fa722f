package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/isoft/internal/device"
)

// minPollInterval keeps the bridge from hammering the connectivity module
const minPollInterval = 5 * time.Second

// Validate checks the configuration and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Device.Host) == "" {
		errs = append(errs, errors.New("device.host is required"))
	}
	if c.Device.Scheme != "http" && c.Device.Scheme != "https" {
		errs = append(errs, fmt.Errorf("device.scheme must be http or https, got %q", c.Device.Scheme))
	}
	if c.Device.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("device.timeout must be positive, got %v", c.Device.Timeout))
	}
	if c.Device.ReadCache < 0 {
		errs = append(errs, fmt.Errorf("device.read_cache cannot be negative, got %v", c.Device.ReadCache))
	}

	if c.Poll.Interval < minPollInterval {
		errs = append(errs, fmt.Errorf("poll.interval must be at least %v, got %v", minPollInterval, c.Poll.Interval))
	}
	if c.Poll.Interval <= c.Device.Timeout && c.Poll.Interval >= minPollInterval {
		errs = append(errs, fmt.Errorf("poll.interval (%v) must be longer than device.timeout (%v)", c.Poll.Interval, c.Device.Timeout))
	}
	for _, name := range c.Poll.Measurements {
		if _, err := device.ParseKind(name); err != nil {
			errs = append(errs, fmt.Errorf("poll.measurements: %w", err))
		}
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, errors.New("mqtt.broker.host is required when mqtt is enabled"))
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, fmt.Errorf("mqtt.broker.port must be 1-65535, got %d", c.MQTT.Broker.Port))
		}
		if c.MQTT.Broker.ClientID == "" {
			errs = append(errs, errors.New("mqtt.broker.client_id is required"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
		if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "+#") {
			errs = append(errs, fmt.Errorf("mqtt.topic_prefix must be non-empty and free of wildcards, got %q", c.MQTT.TopicPrefix))
		}
		if strings.ContainsAny(c.MQTT.DeviceID, "+#/") {
			errs = append(errs, fmt.Errorf("mqtt.device_id must not contain +, # or /, got %q", c.MQTT.DeviceID))
		}
		if c.MQTT.Reconnect.InitialDelay < 1 || c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
			errs = append(errs, fmt.Errorf("mqtt.reconnect delays invalid: initial %d, max %d",
				c.MQTT.Reconnect.InitialDelay, c.MQTT.Reconnect.MaxDelay))
		}
	}

	if c.Metrics.Enabled || c.Stream.Enabled {
		if c.Metrics.Listen == "" {
			errs = append(errs, errors.New("metrics.listen is required when metrics or stream is enabled"))
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}
	if c.Stream.Enabled && !strings.HasPrefix(c.Stream.Path, "/") {
		errs = append(errs, fmt.Errorf("stream.path must start with /, got %q", c.Stream.Path))
	}
	if c.Metrics.Enabled && c.Stream.Enabled && c.Metrics.Path == c.Stream.Path {
		errs = append(errs, fmt.Errorf("metrics.path and stream.path must differ (both %q)", c.Stream.Path))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
