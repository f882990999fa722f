package mqtt

import (
	"fmt"
	"strings"

	"github.com/muurk/isoft/internal/device"
)

// Topics builds the topic tree for one device.
//
//	topics := mqtt.NewTopics("isoft", "192.168.1.40")
//	topics.State(device.KindSaltLevel)
//	// Returns: "isoft/192_168_1_40/state/salt_level"
type Topics struct {
	Prefix string
	Device string
}

// NewTopics returns a topic builder. The device id is sanitized so that it
// forms exactly one topic level.
func NewTopics(prefix, deviceID string) Topics {
	return Topics{
		Prefix: strings.Trim(prefix, "/"),
		Device: SanitizeLevel(deviceID),
	}
}

// SanitizeLevel makes s safe as a single topic level: wildcards, separators
// and dots become underscores.
func SanitizeLevel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', '.', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

func (t Topics) base() string {
	return t.Prefix + "/" + t.Device
}

// Status is the availability topic (LWT).
func (t Topics) Status() string {
	return t.base() + "/status"
}

// Info carries device identification.
func (t Topics) Info() string {
	return t.base() + "/info"
}

// State is the retained state topic for a measurement.
func (t Topics) State(k device.Kind) string {
	return fmt.Sprintf("%s/state/%s", t.base(), k)
}

// Command is the topic a command is received on.
func (t Topics) Command(cmd device.Command) string {
	return fmt.Sprintf("%s/command/%s", t.base(), cmd)
}

// CommandResult is where the outcome of a command is published.
func (t Topics) CommandResult(cmd device.Command) string {
	return t.Command(cmd) + "/result"
}

// AllCommands matches every command topic of the device.
func (t Topics) AllCommands() string {
	return t.base() + "/command/+"
}

// ParseCommand extracts the command from a command topic.
func (t Topics) ParseCommand(topic string) (device.Command, error) {
	prefix := t.base() + "/command/"
	name, ok := strings.CutPrefix(topic, prefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return 0, fmt.Errorf("%w: %q is not a command topic", ErrInvalidTopic, topic)
	}
	return device.ParseCommand(name)
}
