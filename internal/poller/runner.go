package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/isoft/internal/logging"
)

// Run polls immediately, then on every tick, and emits each Snapshot on out.
// One goroutine per device. No overlap. No retries. Returns when ctx is done.
func (p *Poller) Run(ctx context.Context, out chan<- Snapshot) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		snap := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if !snap.OK() {
			logging.Debug("Poll cycle incomplete",
				zap.String("device", snap.Device),
				zap.Int("readings", len(snap.Readings)),
				zap.Int("failures", len(snap.Failures)),
			)
		}

		select {
		case <-ctx.Done():
			return
		case out <- snap:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sink consumes snapshots (MQTT, metrics, live feed).
type Sink interface {
	Name() string
	Consume(ctx context.Context, snap Snapshot) error
}

// Dispatch hands every snapshot from in to each sink in turn until in is
// closed or ctx is done. Sink errors are logged and do not stop dispatch.
func Dispatch(ctx context.Context, in <-chan Snapshot, sinks ...Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-in:
			if !ok {
				return
			}
			for _, s := range sinks {
				if err := s.Consume(ctx, snap); err != nil {
					logging.Error("Sink failed",
						zap.String("sink", s.Name()),
						zap.Error(err),
					)
				}
			}
		}
	}
}
