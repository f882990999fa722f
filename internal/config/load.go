package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the file
const (
	PasswordEnvVar     = "ISOFT_PASSWORD"
	MQTTPasswordEnvVar = "ISOFT_MQTT_PASSWORD"
)

// fileMutex serializes writes from this process
var fileMutex sync.Mutex

// Load reads the configuration at path. An empty path means GetConfigPath().
// A missing file yields Default(). Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		applyEnv(cfg)
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// Parse decodes YAML on top of cfg. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}
	return nil
}

// LoadEnvFile exports the KEY=value pairs of a dotenv file into the process
// environment so that a following Load picks up the secrets. Variables that
// are already set keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(PasswordEnvVar); v != "" {
		cfg.Device.Password = v
	}
	if v := os.Getenv(MQTTPasswordEnvVar); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// Save writes the configuration to path (GetConfigPath() when empty).
// Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# i-soft configuration file
#
# Passwords may be left out and supplied through ` + PasswordEnvVar + `
# and ` + MQTTPasswordEnvVar + ` instead.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with passwords masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Device.Password != "" {
		cp.Device.Password = "********"
	}
	if cp.MQTT.Auth.Password != "" {
		cp.MQTT.Auth.Password = "********"
	}
	cp.Poll.Measurements = append([]string(nil), c.Poll.Measurements...)
	return &cp
}
