package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/isoft/internal/device"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "isoft") {
		t.Errorf("GetConfigDir() = %v, should contain 'isoft'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != "/tmp/xdg/isoft" {
		t.Errorf("GetConfigDir() = %s, want /tmp/xdg/isoft", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Poll.Interval != 40*time.Second {
		t.Errorf("Poll.Interval = %v, want 40s", cfg.Poll.Interval)
	}
	if cfg.Device.Timeout != 10*time.Second {
		t.Errorf("Device.Timeout = %v, want 10s", cfg.Device.Timeout)
	}
	if cfg.Device.Username != device.DefaultUsername {
		t.Errorf("Device.Username = %s, want %s", cfg.Device.Username, device.DefaultUsername)
	}
	if cfg.MQTT.TopicPrefix != "isoft" {
		t.Errorf("MQTT.TopicPrefix = %s, want isoft", cfg.MQTT.TopicPrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(PasswordEnvVar, "")
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Poll.Interval != DefaultPollInterval {
		t.Errorf("Poll.Interval = %v, want default", cfg.Poll.Interval)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(PasswordEnvVar, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
device:
  host: 192.168.1.40
  password: secret
  timeout: 5s
poll:
  interval: 1m
  measurements: [water_hardness, salt-level]
mqtt:
  enabled: true
  broker:
    host: mqtt.local
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Host != "192.168.1.40" {
		t.Errorf("Device.Host = %s", cfg.Device.Host)
	}
	if cfg.Device.Timeout != 5*time.Second {
		t.Errorf("Device.Timeout = %v, want 5s", cfg.Device.Timeout)
	}
	if cfg.Device.Username != device.DefaultUsername {
		t.Errorf("Device.Username = %s, want default", cfg.Device.Username)
	}
	if cfg.Poll.Interval != time.Minute {
		t.Errorf("Poll.Interval = %v, want 1m", cfg.Poll.Interval)
	}
	if cfg.MQTT.Broker.Port != DefaultMQTTPort {
		t.Errorf("MQTT.Broker.Port = %d, want %d", cfg.MQTT.Broker.Port, DefaultMQTTPort)
	}

	kinds, err := cfg.Kinds()
	if err != nil {
		t.Fatalf("Kinds() error = %v", err)
	}
	if len(kinds) != 2 || kinds[0] != device.KindWaterHardness || kinds[1] != device.KindSaltLevel {
		t.Errorf("Kinds() = %v", kinds)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_EnvOverridesPasswords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "device:\n  host: 10.0.0.5\n  password: from-file\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PasswordEnvVar, "from-env")
	t.Setenv(MQTTPasswordEnvVar, "mqtt-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Password != "from-env" {
		t.Errorf("Device.Password = %s, want from-env", cfg.Device.Password)
	}
	if cfg.MQTT.Auth.Password != "mqtt-env" {
		t.Errorf("MQTT.Auth.Password = %s, want mqtt-env", cfg.MQTT.Auth.Password)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(PasswordEnvVar, "")
	t.Setenv(MQTTPasswordEnvVar, "already-set")
	os.Unsetenv(PasswordEnvVar)

	envPath := filepath.Join(t.TempDir(), "isoft.env")
	data := PasswordEnvVar + "=from-dotenv\n" + MQTTPasswordEnvVar + "=ignored\n"
	if err := os.WriteFile(envPath, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Password != "from-dotenv" {
		t.Errorf("Device.Password = %s, want from-dotenv", cfg.Device.Password)
	}
	if cfg.MQTT.Auth.Password != "already-set" {
		t.Errorf("MQTT.Auth.Password = %s, want already-set", cfg.MQTT.Auth.Password)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("LoadEnvFile(missing) should fail")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "device:\n  hots: 10.0.0.5\n"},
		{"bad duration", "poll:\n  interval: soon\n"},
		{"future version", "version: 2\n"},
		{"not yaml", "device: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(PasswordEnvVar, "")
	t.Setenv(MQTTPasswordEnvVar, "")
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Device.Host = "192.168.1.40"
	cfg.Device.ReadCache = 5 * time.Second
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker.Host = "mqtt.local"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	raw, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(raw), "# i-soft configuration file") {
		t.Error("saved file should start with the header comment")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Device.Host != "192.168.1.40" {
		t.Errorf("Device.Host = %s", loaded.Device.Host)
	}
	if loaded.Device.ReadCache != 5*time.Second {
		t.Errorf("Device.ReadCache = %v, want 5s", loaded.Device.ReadCache)
	}
	if !loaded.MQTT.Enabled || loaded.MQTT.Broker.Host != "mqtt.local" {
		t.Errorf("MQTT = %+v", loaded.MQTT)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Device.Host = "192.168.1.40"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing host", func(c *Config) { c.Device.Host = "" }, "device.host"},
		{"bad scheme", func(c *Config) { c.Device.Scheme = "ftp" }, "device.scheme"},
		{"short interval", func(c *Config) { c.Poll.Interval = time.Second }, "poll.interval"},
		{"interval below timeout", func(c *Config) { c.Poll.Interval = 8 * time.Second }, "longer than device.timeout"},
		{"unknown measurement", func(c *Config) { c.Poll.Measurements = []string{"ph"} }, "poll.measurements"},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }, "mqtt.broker.host"},
		{"mqtt bad qos", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "m"; c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"mqtt wildcard prefix", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "m"; c.MQTT.TopicPrefix = "a/#" }, "topic_prefix"},
		{"same paths", func(c *Config) { c.Metrics.Enabled = true; c.Stream.Enabled = true; c.Stream.Path = "/metrics" }, "must differ"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Device.Scheme = "ftp"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"device.host", "device.scheme", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error should mention %s, got %v", want, err)
		}
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Device.Password = "secret"
	cfg.MQTT.Auth.Password = "mqtt"

	red := cfg.Redacted()
	if red.Device.Password == "secret" || red.MQTT.Auth.Password == "mqtt" {
		t.Error("Redacted() should mask passwords")
	}
	if cfg.Device.Password != "secret" {
		t.Error("Redacted() must not modify the original")
	}
}

func TestNewClient(t *testing.T) {
	cfg := Default()
	cfg.Device.Host = "192.168.1.40"
	cfg.Device.Scheme = "https"

	client, err := cfg.NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if client.BaseURL() != "https://192.168.1.40/api/rest" {
		t.Errorf("BaseURL = %s", client.BaseURL())
	}
}
