package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/poller"
)

// commandTimeout bounds a single device command triggered over MQTT
const commandTimeout = 15 * time.Second

// Publisher is the part of Client the bridge uses.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// Executor runs device commands (device.Client).
type Executor interface {
	Execute(ctx context.Context, cmd device.Command, arg string) error
}

// Bridge publishes snapshots as retained state and turns command messages
// into device commands.
type Bridge struct {
	pub    Publisher
	exec   Executor
	topics Topics
	qos    byte

	mu  sync.Mutex
	ctx context.Context
}

// NewBridge creates a bridge. exec may be nil for a read-only bridge.
func NewBridge(pub Publisher, exec Executor, topics Topics, qos byte) *Bridge {
	return &Bridge{
		pub:    pub,
		exec:   exec,
		topics: topics,
		qos:    qos,
		ctx:    context.Background(),
	}
}

// Name identifies the bridge as a poller sink
func (b *Bridge) Name() string {
	return "mqtt"
}

// Start subscribes to the device's command topics. Commands run under ctx.
func (b *Bridge) Start(ctx context.Context) error {
	if b.exec == nil {
		return nil
	}
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	return b.pub.Subscribe(b.topics.AllCommands(), b.qos, b.HandleCommand)
}

// Consume implements poller.Sink
func (b *Bridge) Consume(_ context.Context, snap poller.Snapshot) error {
	return b.PublishSnapshot(snap)
}

// PublishSnapshot publishes every reading of the snapshot as retained state.
// Measurements that failed this cycle are skipped so the retained value
// stays at the last good reading.
func (b *Bridge) PublishSnapshot(snap poller.Snapshot) error {
	var errs []error
	for _, k := range snap.Kinds {
		r, ok := snap.Readings[k]
		if !ok {
			continue
		}
		payload, err := json.Marshal(poller.NewReadingDoc(r))
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", k, err))
			continue
		}
		if err := b.pub.Publish(b.topics.State(k), payload, b.qos, true); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

type infoDoc struct {
	Type     string `json:"type"`
	TypeCode string `json:"type_code"`
	Firmware string `json:"firmware"`
	Serial   uint32 `json:"serial"`
}

// PublishInfo publishes device identification as retained JSON.
func (b *Bridge) PublishInfo(info device.Info) error {
	payload, err := json.Marshal(infoDoc{
		Type:     info.Type.String(),
		TypeCode: fmt.Sprintf("0x%02X", uint8(info.Type)),
		Firmware: info.Firmware.String(),
		Serial:   info.Serial,
	})
	if err != nil {
		return err
	}
	return b.pub.Publish(b.topics.Info(), payload, b.qos, true)
}

type resultDoc struct {
	Command string    `json:"command"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// HandleCommand executes the command named by topic with the payload as its
// argument, then publishes the outcome on the command's result topic.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	cmd, err := b.topics.ParseCommand(topic)
	if err != nil {
		return err
	}
	if b.exec == nil {
		return fmt.Errorf("bridge is read-only, ignoring %s", cmd)
	}

	b.mu.Lock()
	parent := b.ctx
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	arg := strings.TrimSpace(string(payload))
	logging.Info("MQTT command received", zap.String("command", cmd.String()), zap.String("arg", arg))

	execErr := b.exec.Execute(ctx, cmd, arg)

	res := resultDoc{Command: cmd.String(), OK: execErr == nil, At: time.Now().UTC()}
	if execErr != nil {
		res.Error = device.GetShortErrorMessage(execErr)
	}
	out, err := json.Marshal(res)
	if err != nil {
		return errors.Join(execErr, err)
	}
	if err := b.pub.Publish(b.topics.CommandResult(cmd), out, b.qos, false); err != nil {
		return errors.Join(execErr, err)
	}

	return execErr
}
