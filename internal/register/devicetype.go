package register

import "fmt"

// DeviceType is the product code reported by register FF00.
type DeviceType uint8

// Known product codes
const (
	DeviceTypeISoftSafePlus DeviceType = 0x33
	DeviceTypeISoftPlus     DeviceType = 0x57
	DeviceTypeISoft         DeviceType = 0x67
)

var deviceTypeNames = map[DeviceType]string{
	DeviceTypeISoftSafePlus: "i-soft SAFE+",
	DeviceTypeISoftPlus:     "i-soft PLUS",
	DeviceTypeISoft:         "i-soft",
}

// String returns the product name, or the raw code for unknown products.
func (t DeviceType) String() string {
	if name, ok := deviceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%02X)", uint8(t))
}
