package trigger

import (
	"context"

	"github.com/nerrad567/bitswitch-core/internal/session"
)

// Logger defines the logging interface used by the trigger package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher pushes trigger payloads to an out-of-band channel such as an
// MQTT broker, for devices that subscribe instead of holding a WebSocket.
type Publisher interface {
	PublishTrigger(ctx context.Context, deviceID string, payload []byte) error
}

// Recorder receives delivery metrics. Implementations must not block.
type Recorder interface {
	RecordTrigger(deviceID string, pin int, reached int, amountMsat int64)
}

// SettlementRecorder receives settlement metrics once a feed event has
// been resolved to a device and pin. Implementations must not block.
type SettlementRecorder interface {
	RecordSettlement(deviceID string, pin int, amountMsat int64, assetID string)
}

// Dispatcher renders trigger events to wire JSON and fans them out to
// the device's live sessions. Delivery is best effort: a device with no
// session misses the trigger, and nothing is queued or redelivered.
type Dispatcher struct {
	sessions  *session.Registry
	publisher Publisher // optional
	recorder  Recorder  // optional
	logger    Logger
}

// NewDispatcher creates a dispatcher. publisher and recorder may be nil.
func NewDispatcher(sessions *session.Registry, publisher Publisher, recorder Recorder) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		publisher: publisher,
		recorder:  recorder,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch delivers the event and returns how many sessions it reached.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	payload, err := ev.Marshal()
	if err != nil {
		d.logger.Error("trigger event marshal failed", "device_id", ev.DeviceID, "pin", ev.Pin, "error", err)
		return 0
	}

	reached := d.sessions.Broadcast(ev.DeviceID, payload)
	if reached == 0 {
		d.logger.Warn("trigger delivery miss, no live sessions",
			"device_id", ev.DeviceID, "pin", ev.Pin, "duration_ms", ev.DurationMs)
	} else {
		d.logger.Info("trigger dispatched",
			"device_id", ev.DeviceID, "pin", ev.Pin, "duration_ms", ev.DurationMs, "sessions", reached)
	}

	if d.publisher != nil {
		if err := d.publisher.PublishTrigger(ctx, ev.DeviceID, payload); err != nil {
			d.logger.Warn("trigger publish failed", "device_id", ev.DeviceID, "error", err)
		}
	}
	if d.recorder != nil {
		d.recorder.RecordTrigger(ev.DeviceID, ev.Pin, reached, ev.AmountMsat)
	}

	return reached
}
