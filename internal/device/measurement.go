package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/register"
)

// Kind identifies one measurement the device exposes
type Kind int

const (
	KindWaterHardness Kind = iota
	KindSaltLevel
	KindTotalWaterVolume
	KindSoftWaterVolume
	KindOperatingHours
	KindDailyStatistics
	KindWeeklyStatistics
	KindMonthlyStatistics
	KindYearlyStatistics
)

// Kinds lists every measurement in display order
var Kinds = []Kind{
	KindWaterHardness,
	KindSaltLevel,
	KindTotalWaterVolume,
	KindSoftWaterVolume,
	KindOperatingHours,
	KindDailyStatistics,
	KindWeeklyStatistics,
	KindMonthlyStatistics,
	KindYearlyStatistics,
}

type kindInfo struct {
	slug  string
	title string
	unit  string
}

var kindInfos = map[Kind]kindInfo{
	KindWaterHardness:     {"water_hardness", "Water hardness", "°dH"},
	KindSaltLevel:         {"salt_level", "Salt level", "g"},
	KindTotalWaterVolume:  {"total_water_volume", "Total water volume", "m³"},
	KindSoftWaterVolume:   {"soft_water_volume", "Soft water volume", "m³"},
	KindOperatingHours:    {"operating_hours", "Operating hours", "min"},
	KindDailyStatistics:   {"daily_statistics", "Daily statistics", "L"},
	KindWeeklyStatistics:  {"weekly_statistics", "Weekly statistics", "L"},
	KindMonthlyStatistics: {"monthly_statistics", "Monthly statistics", "L"},
	KindYearlyStatistics:  {"yearly_statistics", "Yearly statistics", "L"},
}

// String returns the stable slug used in topics, metrics and CLI arguments
func (k Kind) String() string {
	if info, ok := kindInfos[k]; ok {
		return info.slug
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Title returns a human-readable name
func (k Kind) Title() string {
	if info, ok := kindInfos[k]; ok {
		return info.title
	}
	return k.String()
}

// Unit returns the unit of Reading.Numeric for this kind
func (k Kind) Unit() string {
	return kindInfos[k].unit
}

// ParseKind parses a measurement slug. Dashes are accepted in place of
// underscores.
func ParseKind(s string) (Kind, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range Kinds {
		if kindInfos[k].slug == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: measurement %q", register.ErrUnsupported, s)
}

// Reading is one decoded measurement.
//
// Value holds the typed codec value (register.Hardness, register.Grams,
// register.Volume, register.OperatingTime or register.Statistics). Numeric is
// the same value as a float in Kind.Unit(): volumes in m³, operating hours in
// minutes, statistics as their total in liters.
type Reading struct {
	Kind    Kind
	Value   any
	Numeric float64
	At      time.Time
}

// String renders the reading for display
func (r Reading) String() string {
	switch v := r.Value.(type) {
	case register.Volume:
		return v.String()
	case register.OperatingTime:
		return v.String()
	case register.Statistics:
		return fmt.Sprintf("%d L", v.Total)
	default:
		return fmt.Sprintf("%v %s", r.Value, r.Kind.Unit())
	}
}

type measureFunc func(ctx context.Context, c *Client, at time.Time) (any, float64, error)

var measurements = map[Kind]measureFunc{
	KindWaterHardness: func(ctx context.Context, c *Client, _ time.Time) (any, float64, error) {
		v, err := readDecoded(ctx, c, register.WaterHardnessRegister, register.DecodeHardness)
		return v, float64(v), err
	},
	KindSaltLevel: func(ctx context.Context, c *Client, _ time.Time) (any, float64, error) {
		v, err := readDecoded(ctx, c, register.SaltLevelRegister, register.DecodeSaltLevel)
		return v, float64(v), err
	},
	KindTotalWaterVolume: func(ctx context.Context, c *Client, _ time.Time) (any, float64, error) {
		v, err := readDecoded(ctx, c, register.TotalVolumeRegister, register.DecodeVolume)
		return v, v.CubicMeters(), err
	},
	KindSoftWaterVolume: func(ctx context.Context, c *Client, _ time.Time) (any, float64, error) {
		v, err := readDecoded(ctx, c, register.SoftVolumeRegister, register.DecodeVolume)
		return v, v.CubicMeters(), err
	},
	KindOperatingHours: func(ctx context.Context, c *Client, _ time.Time) (any, float64, error) {
		v, err := readDecoded(ctx, c, register.OperatingHoursRegister, register.DecodeOperatingTime)
		return v, float64(v.TotalMinutes()), err
	},
	KindDailyStatistics:   statisticsMeasure(register.PeriodDaily),
	KindWeeklyStatistics:  statisticsMeasure(register.PeriodWeekly),
	KindMonthlyStatistics: statisticsMeasure(register.PeriodMonthly),
	KindYearlyStatistics:  statisticsMeasure(register.PeriodYearly),
}

func statisticsMeasure(p register.Period) measureFunc {
	return func(ctx context.Context, c *Client, at time.Time) (any, float64, error) {
		v, err := c.Statistics(ctx, p, at)
		return v, float64(v.Total), err
	}
}

// Measure reads and decodes one measurement
func (c *Client) Measure(ctx context.Context, k Kind) (Reading, error) {
	measure, ok := measurements[k]
	if !ok {
		return Reading{}, fmt.Errorf("%w: measurement %v", register.ErrUnsupported, k)
	}

	at := c.now()
	value, numeric, err := measure(ctx, c, at)
	if err != nil {
		return Reading{}, err
	}

	return Reading{Kind: k, Value: value, Numeric: numeric, At: at}, nil
}

// Statistics reads the consumption statistics of the period containing date
func (c *Client) Statistics(ctx context.Context, p register.Period, date time.Time) (register.Statistics, error) {
	addr, err := register.StatisticsAddress(p, date)
	if err != nil {
		return register.Statistics{}, err
	}
	return readDecoded(ctx, c, addr, func(payload string) (register.Statistics, error) {
		return register.DecodeStatistics(p, payload)
	})
}

// readDecoded reads a register and runs its payload through a decoder.
// Decode errors are annotated with the register.
func readDecoded[T any](ctx context.Context, c *Client, reg register.Address, decode func(string) (T, error)) (T, error) {
	var zero T

	payload, err := c.Read(ctx, reg)
	if err != nil {
		return zero, err
	}
	logging.LogRawPayload(reg.String(), payload)

	v, err := decode(payload)
	if err != nil {
		return zero, fmt.Errorf("register %s: %w", reg, err)
	}
	return v, nil
}

// degrade logs a failed read and reports whether the value is usable
func degrade(k Kind, reg register.Address, err error) bool {
	if err != nil {
		logging.LogReadFailure(k.String(), reg.String(), err)
		return false
	}
	return true
}

// WaterHardness returns the current water hardness in °dH
func (c *Client) WaterHardness(ctx context.Context) (register.Hardness, bool) {
	v, err := readDecoded(ctx, c, register.WaterHardnessRegister, register.DecodeHardness)
	return v, degrade(KindWaterHardness, register.WaterHardnessRegister, err)
}

// SaltLevel returns the salt reserve in grams
func (c *Client) SaltLevel(ctx context.Context) (register.Grams, bool) {
	v, err := readDecoded(ctx, c, register.SaltLevelRegister, register.DecodeSaltLevel)
	return v, degrade(KindSaltLevel, register.SaltLevelRegister, err)
}

// TotalWaterVolume returns the total water counter
func (c *Client) TotalWaterVolume(ctx context.Context) (register.Volume, bool) {
	v, err := readDecoded(ctx, c, register.TotalVolumeRegister, register.DecodeVolume)
	return v, degrade(KindTotalWaterVolume, register.TotalVolumeRegister, err)
}

// SoftWaterVolume returns the soft water counter
func (c *Client) SoftWaterVolume(ctx context.Context) (register.Volume, bool) {
	v, err := readDecoded(ctx, c, register.SoftVolumeRegister, register.DecodeVolume)
	return v, degrade(KindSoftWaterVolume, register.SoftVolumeRegister, err)
}

// OperatingHours returns the operating time counter
func (c *Client) OperatingHours(ctx context.Context) (register.OperatingTime, bool) {
	v, err := readDecoded(ctx, c, register.OperatingHoursRegister, register.DecodeOperatingTime)
	return v, degrade(KindOperatingHours, register.OperatingHoursRegister, err)
}

// DailyStatistics returns today's consumption statistics
func (c *Client) DailyStatistics(ctx context.Context) (register.Statistics, bool) {
	return c.statisticsOK(ctx, KindDailyStatistics, register.PeriodDaily)
}

// WeeklyStatistics returns this ISO week's consumption statistics
func (c *Client) WeeklyStatistics(ctx context.Context) (register.Statistics, bool) {
	return c.statisticsOK(ctx, KindWeeklyStatistics, register.PeriodWeekly)
}

// MonthlyStatistics returns this month's consumption statistics
func (c *Client) MonthlyStatistics(ctx context.Context) (register.Statistics, bool) {
	return c.statisticsOK(ctx, KindMonthlyStatistics, register.PeriodMonthly)
}

// YearlyStatistics returns this year's consumption statistics
func (c *Client) YearlyStatistics(ctx context.Context) (register.Statistics, bool) {
	return c.statisticsOK(ctx, KindYearlyStatistics, register.PeriodYearly)
}

func (c *Client) statisticsOK(ctx context.Context, k Kind, p register.Period) (register.Statistics, bool) {
	date := c.now()
	v, err := c.Statistics(ctx, p, date)
	if err != nil {
		addr, _ := register.StatisticsAddress(p, date)
		return v, degrade(k, addr, err)
	}
	return v, true
}

// Info identifies the device
type Info struct {
	Type     register.DeviceType
	Firmware register.Firmware
	Serial   uint32
}

// FetchInfo reads device type, firmware version and serial number.
// It stops at the first failing register.
func (c *Client) FetchInfo(ctx context.Context) (Info, error) {
	var info Info
	var err error

	if info.Type, err = readDecoded(ctx, c, register.DeviceTypeRegister, register.DecodeDeviceType); err != nil {
		return Info{}, err
	}
	if info.Firmware, err = readDecoded(ctx, c, register.FirmwareRegister, register.DecodeFirmware); err != nil {
		return Info{}, err
	}
	if info.Serial, err = readDecoded(ctx, c, register.SerialNumberRegister, register.DecodeSerialNumber); err != nil {
		return Info{}, err
	}

	return info, nil
}

// DeviceInfo is the degrading form of FetchInfo
func (c *Client) DeviceInfo(ctx context.Context) (Info, bool) {
	info, err := c.FetchInfo(ctx)
	if err != nil {
		logging.LogReadFailure("device_info", "", err)
		return Info{}, false
	}
	return info, true
}
