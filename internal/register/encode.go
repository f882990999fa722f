package register

import "fmt"

// MaxHardness is the largest value the one-byte hardness register can hold.
const MaxHardness = 0xFF

// EncodeHardness encodes a hardness setpoint for register 3000 as one hex byte.
func EncodeHardness(dH int) (string, error) {
	if dH < 0 || dH > MaxHardness {
		return "", fmt.Errorf("%w: hardness %d outside 0-%d", ErrUnsupported, dH, MaxHardness)
	}
	return fmt.Sprintf("%02X", dH), nil
}

// EncodeBool encodes a mode flag ("01" on, "00" off).
func EncodeBool(on bool) string {
	if on {
		return "01"
	}
	return "00"
}
