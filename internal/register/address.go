package register

import (
	"fmt"
	"strings"
)

// Address is a register address on the device REST interface, rendered as
// upper-case hex (e.g. "5100").
type Address string

// Read registers
const (
	DeviceTypeRegister     Address = "FF00"
	FirmwareRegister       Address = "0100"
	SerialNumberRegister   Address = "0600"
	WaterHardnessRegister  Address = "5100"
	SaltLevelRegister      Address = "5600"
	TotalVolumeRegister    Address = "2800"
	SoftVolumeRegister     Address = "2900"
	OperatingHoursRegister Address = "2500"
)

// Command registers
const (
	SetHardnessRegister       Address = "3000"
	LeakProtectionOnRegister  Address = "3C00"
	LeakProtectionOffRegister Address = "3D00"
	VacationModeRegister      Address = "4100"
	StartRegenerationRegister Address = "350000"
)

// String returns the address as sent on the wire.
func (a Address) String() string {
	return string(a)
}

// ParseAddress validates a user-supplied register address. Addresses are
// normalized to upper case and must be a non-empty, even-length hex string.
func ParseAddress(s string) (Address, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: empty register address", ErrUnsupported)
	}
	if len(s)%2 != 0 {
		return "", fmt.Errorf("%w: register address %q has odd length", ErrUnsupported, s)
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return "", fmt.Errorf("%w: register address %q is not hex", ErrUnsupported, s)
		}
	}
	return Address(s), nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}
