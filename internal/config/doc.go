// Package config loads and saves the i-soft client and bridge configuration.
//
// The configuration lives in a YAML file in the platform's config directory:
//   - Linux: $XDG_CONFIG_HOME/isoft/config.yaml or ~/.config/isoft/config.yaml
//   - macOS: ~/.config/isoft/config.yaml
//   - Windows: %LOCALAPPDATA%\isoft\config.yaml
//
// A missing file is not an error: Load returns Default(). Fields left out of
// the file keep their default values.
//
// Secrets can be kept out of the file. ISOFT_PASSWORD overrides
// device.password and ISOFT_MQTT_PASSWORD overrides mqtt.auth.password.
//
// Example:
//
//	version: 1
//	device:
//	  host: 192.168.1.40
//	  username: admin
//	  timeout: 10s
//	poll:
//	  interval: 40s
//	mqtt:
//	  enabled: true
//	  broker:
//	    host: mqtt.local
//	    port: 1883
//	  topic_prefix: isoft
//	metrics:
//	  enabled: true
//	  listen: ":9120"
package config
