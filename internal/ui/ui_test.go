package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/poller"
	"github.com/muurk/isoft/internal/register"
)

func TestSplitHint(t *testing.T) {
	timeout := &device.DeviceError{Type: device.ErrTypeTimeout, Message: "Request timed out"}

	summary, tips := splitHint(device.GetTroubleshootingHint(timeout))
	assert.Equal(t, "The device did not respond in time.", summary)
	assert.Len(t, tips, 3)
	for _, tip := range tips {
		assert.False(t, strings.HasPrefix(tip, "•"), "tip %q keeps its bullet", tip)
	}
}

func TestResult_DetailOrder(t *testing.T) {
	out := NewSuccessResult("Device info", nil).
		AddDetail("Type", "i-soft SAFE+").
		AddDetail("Firmware", "2.1.4").
		AddDetail("Serial", "305419896").
		SetWidth(80).
		Render()

	typeAt := strings.Index(out, "Type:")
	firmwareAt := strings.Index(out, "Firmware:")
	serialAt := strings.Index(out, "Serial:")
	assert.True(t, typeAt >= 0 && typeAt < firmwareAt && firmwareAt < serialAt, out)
	assert.Contains(t, out, "SUCCESS")
}

func TestFailureResult(t *testing.T) {
	out := NewFailureResult("Set hardness", device.NewAuthError("rejected")).SetWidth(80).Render()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "Troubleshooting:")
}

func TestReadings(t *testing.T) {
	at := time.Date(2025, time.February, 4, 13, 37, 0, 0, time.UTC)
	snap := poller.Snapshot{
		Device: "dev",
		At:     at,
		Kinds:  []device.Kind{device.KindWaterHardness, device.KindSaltLevel},
		Readings: map[device.Kind]device.Reading{
			device.KindWaterHardness: {Kind: device.KindWaterHardness, Value: register.Hardness(15), Numeric: 15, At: at},
		},
		Failures: map[device.Kind]error{
			device.KindSaltLevel: device.NewHTTPError(500, "HTTP 500"),
		},
	}

	rendered := renderReadings(snap, 80)
	assert.Contains(t, rendered, "Water hardness:")
	assert.Contains(t, rendered, "15 °dH")
	assert.Contains(t, rendered, "no value")

	assert.Equal(t, "water_hardness\t15 °dH\nsalt_level\t-\n", PlainReadings(snap))
}

func TestHeader(t *testing.T) {
	out := NewHeader("Water softener", "isoft show", Details{{"Device", "192.168.1.40"}}).SetWidth(70).Render()
	assert.Contains(t, out, "WATER SOFTENER")
	assert.Contains(t, out, "isoft show")
	assert.Contains(t, out, "192.168.1.40")
}
