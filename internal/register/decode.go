package register

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Hardness is water hardness in degrees of German hardness (°dH).
type Hardness int

// Grams is a salt mass in grams.
type Grams int

// Volume is a water volume as counted by the device, in liters.
type Volume struct {
	Liters uint32
}

// CubicMeters converts the liter count to m³.
func (v Volume) CubicMeters() float64 {
	return float64(v.Liters) / 1000
}

// String renders the volume the way the device display does (two decimals, m³).
func (v Volume) String() string {
	return fmt.Sprintf("%.2f m³", v.CubicMeters())
}

// OperatingTime is the operating-hours counter record.
type OperatingTime struct {
	Minutes int
	Hours   int
	Days    int
}

// TotalMinutes flattens the record into minutes.
func (o OperatingTime) TotalMinutes() int64 {
	return int64(o.Days)*24*60 + int64(o.Hours)*60 + int64(o.Minutes)
}

// String renders the record as "Dd Hh Mm".
func (o OperatingTime) String() string {
	return fmt.Sprintf("%dd %dh %dm", o.Days, o.Hours, o.Minutes)
}

// Firmware is the device firmware version.
type Firmware struct {
	Major int
	Minor int
	Patch int
}

// String renders the version as major.minor.patch
func (f Firmware) String() string {
	return fmt.Sprintf("%d.%d.%d", f.Major, f.Minor, f.Patch)
}

// Payload lengths in bytes
const (
	hardnessLen   = 1
	saltLevelLen  = 2
	volumeLen     = 4
	serialLen     = 4
	firmwareLen   = 3
	deviceTypeLen = 1

	operatingTimeMinLen = 3
	operatingTimeMaxLen = 5

	statisticsChunkLen = 4
)

// decodeHex turns a payload into bytes, rejecting empty, odd-length and
// non-hex input.
func decodeHex(reg Address, payload string) ([]byte, error) {
	if payload == "" {
		return nil, malformed(reg, payload, "empty payload")
	}
	if len(payload)%2 != 0 {
		return nil, malformed(reg, payload, "odd number of hex digits (%d)", len(payload))
	}
	data, err := hex.DecodeString(payload)
	if err != nil {
		return nil, malformed(reg, payload, "invalid hex: %v", err)
	}
	return data, nil
}

// decodeExact decodes a payload that must be exactly n bytes long.
func decodeExact(reg Address, payload string, n int) ([]byte, error) {
	data, err := decodeHex(reg, payload)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, malformed(reg, payload, "expected %d bytes, got %d", n, len(data))
	}
	return data, nil
}

// DecodeHardness decodes register 5100: one byte, °dH.
func DecodeHardness(payload string) (Hardness, error) {
	data, err := decodeExact(WaterHardnessRegister, payload, hardnessLen)
	if err != nil {
		return 0, err
	}
	return Hardness(data[0]), nil
}

// DecodeSaltLevel decodes register 5600: 16-bit little-endian grams.
func DecodeSaltLevel(payload string) (Grams, error) {
	data, err := decodeExact(SaltLevelRegister, payload, saltLevelLen)
	if err != nil {
		return 0, err
	}
	return Grams(binary.LittleEndian.Uint16(data)), nil
}

// DecodeVolume decodes the total (2800) and soft (2900) water counters:
// 32-bit little-endian liters.
func DecodeVolume(payload string) (Volume, error) {
	data, err := decodeExact("", payload, volumeLen)
	if err != nil {
		return Volume{}, err
	}
	return Volume{Liters: binary.LittleEndian.Uint32(data)}, nil
}

// DecodeOperatingTime decodes register 2500.
//
// Layout: byte 0 minutes, byte 1 hours, bytes 2.. days as a little-endian
// integer of one to three bytes. Minutes must be < 60 and hours < 24.
func DecodeOperatingTime(payload string) (OperatingTime, error) {
	data, err := decodeHex(OperatingHoursRegister, payload)
	if err != nil {
		return OperatingTime{}, err
	}
	if len(data) < operatingTimeMinLen || len(data) > operatingTimeMaxLen {
		return OperatingTime{}, malformed(OperatingHoursRegister, payload,
			"expected %d-%d bytes, got %d", operatingTimeMinLen, operatingTimeMaxLen, len(data))
	}

	minutes := int(data[0])
	hours := int(data[1])
	if minutes >= 60 {
		return OperatingTime{}, malformed(OperatingHoursRegister, payload, "minutes out of range: %d", minutes)
	}
	if hours >= 24 {
		return OperatingTime{}, malformed(OperatingHoursRegister, payload, "hours out of range: %d", hours)
	}

	days := 0
	for i, b := range data[2:] {
		days |= int(b) << (8 * i)
	}

	return OperatingTime{Minutes: minutes, Hours: hours, Days: days}, nil
}

// DecodeSerialNumber decodes register 0600: 32-bit little-endian.
func DecodeSerialNumber(payload string) (uint32, error) {
	data, err := decodeExact(SerialNumberRegister, payload, serialLen)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// DecodeFirmware decodes register 0100. The three bytes are little-endian,
// so the major version is the last byte.
func DecodeFirmware(payload string) (Firmware, error) {
	data, err := decodeExact(FirmwareRegister, payload, firmwareLen)
	if err != nil {
		return Firmware{}, err
	}
	return Firmware{Major: int(data[2]), Minor: int(data[1]), Patch: int(data[0])}, nil
}

// DecodeDeviceType decodes register FF00: a single type code byte.
func DecodeDeviceType(payload string) (DeviceType, error) {
	data, err := decodeExact(DeviceTypeRegister, payload, deviceTypeLen)
	if err != nil {
		return 0, err
	}
	return DeviceType(data[0]), nil
}
