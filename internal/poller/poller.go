package poller

import (
	"context"
	"errors"
	"time"

	"github.com/muurk/isoft/internal/device"
)

// Measurer is the slice of device.Client the poller needs.
type Measurer interface {
	Measure(ctx context.Context, k device.Kind) (device.Reading, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Device   string // label carried on every snapshot
	Interval time.Duration
	Kinds    []device.Kind
}

// Poller is a clock-driven reader. It never retries and never overlaps
// cycles; a slow device delays the next tick instead.
type Poller struct {
	cfg    Config
	client Measurer
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, client Measurer) (*Poller, error) {
	if cfg.Device == "" {
		return nil, errors.New("poller: device label required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Kinds) == 0 {
		return nil, errors.New("poller: at least one measurement required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	cfg.Kinds = append([]device.Kind(nil), cfg.Kinds...)
	return &Poller{cfg: cfg, client: client, now: time.Now}, nil
}

// Interval returns the configured poll interval
func (p *Poller) Interval() time.Duration {
	return p.cfg.Interval
}

// PollOnce performs exactly one poll cycle.
// Each measurement stands alone: a failure blanks only that measurement.
func (p *Poller) PollOnce(ctx context.Context) Snapshot {
	snap := Snapshot{
		Device:   p.cfg.Device,
		At:       p.now(),
		Readings: make(map[device.Kind]device.Reading, len(p.cfg.Kinds)),
		Failures: make(map[device.Kind]error),
	}

	for _, k := range p.cfg.Kinds {
		if ctx.Err() != nil {
			snap.Failures[k] = ctx.Err()
			continue
		}
		r, err := p.client.Measure(ctx, k)
		if err != nil {
			snap.Failures[k] = err
			continue
		}
		snap.Readings[k] = r
	}

	snap.Kinds = p.cfg.Kinds
	return snap
}
