package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/isoft/internal/register"
)

// ParseHardness parses a hardness argument in °dH.
// Valid range is 0-255 (one register byte).
func ParseHardness(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, NewValidationError("hardness value is required")
	}
	dH, err := strconv.Atoi(arg)
	if err != nil {
		return 0, NewValidationError(fmt.Sprintf("hardness must be an integer, got %q", arg))
	}
	if dH < 0 || dH > register.MaxHardness {
		return 0, NewValidationError(fmt.Sprintf("hardness must be 0-%d °dH, got %d", register.MaxHardness, dH))
	}
	return dH, nil
}

// ParseSwitch parses an on/off argument.
// Accepts on/off, true/false, 1/0 and yes/no in any case.
func ParseSwitch(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, NewValidationError(fmt.Sprintf("expected on or off, got %q", arg))
	}
}
