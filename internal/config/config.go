package config

import (
	"time"

	"github.com/muurk/isoft/internal/device"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version int           `yaml:"version"`
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Metrics MetricsConfig `yaml:"metrics"`
	Stream  StreamConfig  `yaml:"stream"`
	Log     LogConfig     `yaml:"log"`
}

// DeviceConfig describes how to reach the softener.
type DeviceConfig struct {
	Host               string        `yaml:"host"`
	Scheme             string        `yaml:"scheme"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password,omitempty"` // ISOFT_PASSWORD takes precedence
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify,omitempty"`
	Timeout            time.Duration `yaml:"timeout"`
	ReadCache          time.Duration `yaml:"read_cache,omitempty"` // 0 disables the read cache
}

// PollConfig controls the bridge poll loop.
type PollConfig struct {
	Interval     time.Duration `yaml:"interval"`
	Measurements []string      `yaml:"measurements,omitempty"` // empty means all
}

// MQTTConfig configures the MQTT bridge.
type MQTTConfig struct {
	Enabled     bool            `yaml:"enabled"`
	Broker      BrokerConfig    `yaml:"broker"`
	Auth        AuthConfig      `yaml:"auth,omitempty"`
	TopicPrefix string          `yaml:"topic_prefix"`
	DeviceID    string          `yaml:"device_id,omitempty"` // defaults to the device host
	QoS         int             `yaml:"qos"`
	Reconnect   ReconnectConfig `yaml:"reconnect"`
}

// BrokerConfig identifies the MQTT broker.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls,omitempty"`
	ClientID string `yaml:"client_id"`
}

// AuthConfig holds MQTT credentials.
type AuthConfig struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"` // ISOFT_MQTT_PASSWORD takes precedence
}

// ReconnectConfig bounds the MQTT reconnect backoff, in seconds.
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// StreamConfig configures the WebSocket live feed. It shares the metrics
// listener.
type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig sets the log level ("" keeps logging silent).
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Default polling and bridge settings
const (
	DefaultPollInterval = 40 * time.Second
	DefaultMQTTPort     = 1883
	DefaultTopicPrefix  = "isoft"
	DefaultClientID     = "isoft-bridge"
	DefaultMetricsAddr  = ":9120"
	DefaultMetricsPath  = "/metrics"
	DefaultStreamPath   = "/ws"
)

// Default returns a configuration with every default applied and no device
// host set.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Device: DeviceConfig{
			Scheme:   device.DefaultScheme,
			Username: device.DefaultUsername,
			Timeout:  device.DefaultTimeout,
		},
		Poll: PollConfig{
			Interval: DefaultPollInterval,
		},
		MQTT: MQTTConfig{
			Broker: BrokerConfig{
				Port:     DefaultMQTTPort,
				ClientID: DefaultClientID,
			},
			TopicPrefix: DefaultTopicPrefix,
			QoS:         1,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Metrics: MetricsConfig{
			Listen: DefaultMetricsAddr,
			Path:   DefaultMetricsPath,
		},
		Stream: StreamConfig{
			Path: DefaultStreamPath,
		},
	}
}

// ClientOptions translates the device section into device.Client options.
func (c *Config) ClientOptions() []device.Option {
	opts := []device.Option{
		device.WithScheme(c.Device.Scheme),
		device.WithTimeout(c.Device.Timeout),
		device.WithInsecureSkipVerify(c.Device.InsecureSkipVerify),
	}
	if c.Device.ReadCache > 0 {
		opts = append(opts, device.WithReadCache(c.Device.ReadCache))
	}
	return opts
}

// NewClient builds a device client from the device section. An empty
// password falls back to the factory default. extra options are applied
// after the configured ones.
func (c *Config) NewClient(extra ...device.Option) (*device.Client, error) {
	password := c.Device.Password
	if password == "" {
		password = device.DefaultPassword
	}
	opts := append(c.ClientOptions(), extra...)
	return device.NewClient(c.Device.Host, c.Device.Username, password, opts...)
}

// Kinds resolves poll.measurements; an empty list selects every measurement.
func (c *Config) Kinds() ([]device.Kind, error) {
	if len(c.Poll.Measurements) == 0 {
		return append([]device.Kind(nil), device.Kinds...), nil
	}
	kinds := make([]device.Kind, 0, len(c.Poll.Measurements))
	for _, name := range c.Poll.Measurements {
		k, err := device.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
