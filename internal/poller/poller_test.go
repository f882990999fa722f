package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/register"
)

type fakeMeasurer struct {
	mu    sync.Mutex
	fail  map[device.Kind]error
	calls int
}

func (f *fakeMeasurer) Measure(_ context.Context, k device.Kind) (device.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[k]; ok {
		return device.Reading{}, err
	}
	return device.Reading{Kind: k, Value: register.Hardness(15), Numeric: 15, At: time.Unix(0, 0)}, nil
}

func (f *fakeMeasurer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNew_Validation(t *testing.T) {
	good := Config{Device: "d", Interval: time.Second, Kinds: []device.Kind{device.KindSaltLevel}}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no device", func(c *Config) { c.Device = "" }},
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"no kinds", func(c *Config) { c.Kinds = nil }},
	}

	for _, tt := range tests {
		cfg := good
		tt.mutate(&cfg)
		if _, err := New(cfg, &fakeMeasurer{}); err == nil {
			t.Errorf("%s: New() should fail", tt.name)
		}
	}

	if _, err := New(good, nil); err == nil {
		t.Error("New() with nil client should fail")
	}
}

func TestPollOnce_Success(t *testing.T) {
	p, err := New(Config{Device: "isoft", Interval: time.Second, Kinds: device.Kinds}, &fakeMeasurer{})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	snap := p.PollOnce(context.Background())
	if !snap.OK() {
		t.Fatalf("PollOnce failures=%v", snap.Failures)
	}
	if len(snap.Readings) != len(device.Kinds) {
		t.Fatalf("expected %d readings, got %d", len(device.Kinds), len(snap.Readings))
	}
	if snap.Device != "isoft" {
		t.Errorf("Device = %s, want isoft", snap.Device)
	}
}

func TestPollOnce_FailuresAreIndependent(t *testing.T) {
	boom := errors.New("HTTP 500")
	m := &fakeMeasurer{fail: map[device.Kind]error{device.KindSaltLevel: boom}}
	p, err := New(Config{
		Device:   "isoft",
		Interval: time.Second,
		Kinds:    []device.Kind{device.KindWaterHardness, device.KindSaltLevel, device.KindTotalWaterVolume},
	}, m)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	snap := p.PollOnce(context.Background())

	if snap.OK() {
		t.Fatal("snapshot should report a failure")
	}
	if _, ok := snap.Reading(device.KindSaltLevel); ok {
		t.Error("failed kind should have no reading")
	}
	if !errors.Is(snap.Failures[device.KindSaltLevel], boom) {
		t.Errorf("Failures[salt] = %v, want %v", snap.Failures[device.KindSaltLevel], boom)
	}
	if _, ok := snap.Reading(device.KindWaterHardness); !ok {
		t.Error("hardness should still be present")
	}
	if _, ok := snap.Reading(device.KindTotalWaterVolume); !ok {
		t.Error("volume should still be present after an earlier failure")
	}
}

func TestPollOnce_CanceledContext(t *testing.T) {
	m := &fakeMeasurer{}
	p, _ := New(Config{Device: "d", Interval: time.Second, Kinds: device.Kinds}, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := p.PollOnce(ctx)
	if len(snap.Failures) != len(device.Kinds) {
		t.Errorf("failures = %d, want %d", len(snap.Failures), len(device.Kinds))
	}
	if m.callCount() != 0 {
		t.Errorf("Measure called %d times after cancel", m.callCount())
	}
}

func TestRun_FirstPollIsImmediate(t *testing.T) {
	p, _ := New(Config{Device: "d", Interval: time.Hour, Kinds: []device.Kind{device.KindWaterHardness}}, &fakeMeasurer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Snapshot, 1)
	go p.Run(ctx, out)

	select {
	case snap := <-out:
		if !snap.OK() {
			t.Errorf("snapshot failures = %v", snap.Failures)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not emit the first snapshot immediately")
	}
}

func TestRun_TicksAndStops(t *testing.T) {
	m := &fakeMeasurer{}
	p, _ := New(Config{Device: "d", Interval: 10 * time.Millisecond, Kinds: []device.Kind{device.KindWaterHardness}}, m)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Snapshot)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-out:
		case <-time.After(2 * time.Second):
			t.Fatalf("snapshot %d not received", i)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
	err   error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Consume(_ context.Context, s Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return r.err
}

func TestDispatch(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	ok := &recordingSink{}

	in := make(chan Snapshot, 2)
	in <- Snapshot{Device: "a"}
	in <- Snapshot{Device: "b"}
	close(in)

	Dispatch(context.Background(), in, failing, ok)

	if len(ok.snaps) != 2 {
		t.Errorf("healthy sink got %d snapshots, want 2", len(ok.snaps))
	}
	if len(failing.snaps) != 2 {
		t.Errorf("failing sink got %d snapshots, want 2", len(failing.snaps))
	}
}

func TestSnapshotDoc(t *testing.T) {
	at := time.Date(2025, time.February, 4, 8, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Device: "isoft",
		At:     at,
		Kinds:  []device.Kind{device.KindTotalWaterVolume, device.KindDailyStatistics, device.KindSaltLevel},
		Readings: map[device.Kind]device.Reading{
			device.KindTotalWaterVolume: {Kind: device.KindTotalWaterVolume, Value: register.Volume{Liters: 1000}, Numeric: 1, At: at},
			device.KindDailyStatistics: {
				Kind:    device.KindDailyStatistics,
				Value:   register.Statistics{Period: register.PeriodDaily, Values: []uint32{1, 2, 3}, Total: 6},
				Numeric: 6,
				At:      at,
			},
		},
		Failures: map[device.Kind]error{device.KindSaltLevel: errors.New("boom")},
	}

	doc := snap.Doc()
	if len(doc.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(doc.Readings))
	}
	if doc.Readings[0].Measurement != "total_water_volume" || doc.Readings[0].Unit != "m³" {
		t.Errorf("first reading = %+v", doc.Readings[0])
	}
	if len(doc.Readings[1].Values) != 3 {
		t.Errorf("statistics values = %v", doc.Readings[1].Values)
	}
	if doc.Errors["salt_level"] != "boom" {
		t.Errorf("Errors = %v", doc.Errors)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back["device"] != "isoft" {
		t.Errorf("device = %v", back["device"])
	}
}
