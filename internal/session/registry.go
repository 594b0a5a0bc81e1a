package session

import (
	"sync"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Registry.
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

// Session is one live real-time connection attached to a device id.
// The transport layer drains Send(); the registry owns the channel and
// closes it on detach.
type Session struct {
	ID       string
	DeviceID string

	registry *Registry
	send     chan []byte
	closed   sync.Once
}

// Send returns the channel the transport layer drains for outbound messages.
// The channel is closed when the session is detached.
func (s *Session) Send() <-chan []byte {
	return s.send
}

// trySend queues data without blocking. Slow clients drop messages rather
// than stalling a broadcast; detached sessions absorb the send silently.
func (s *Session) trySend(data []byte) bool {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel during detach race
	}()

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// deviceSessions is the per-device connection set with its own lock, so
// traffic on one device never contends with another.
type deviceSessions struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}

	// lastSent is the most recent payload broadcast to this device,
	// retained for operator diagnostics only. Never redelivered.
	lastSent []byte
}

// Registry tracks live device connections and fans trigger messages out
// to them. Sessions are purely in-memory, process-lifetime state.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*deviceSessions
	buffer  int
	logger  Logger
}

// NewRegistry creates a session registry. buffer is the per-session
// outbound queue size.
func NewRegistry(buffer int) *Registry {
	if buffer < 1 {
		buffer = 1
	}
	return &Registry{
		devices: make(map[string]*deviceSessions),
		buffer:  buffer,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Attach registers a new session for the device id and returns its handle.
func (r *Registry) Attach(deviceID string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		registry: r,
		send:     make(chan []byte, r.buffer),
	}

	ds := r.deviceSet(deviceID, true)
	ds.mu.Lock()
	ds.sessions[s] = struct{}{}
	count := len(ds.sessions)
	ds.mu.Unlock()

	r.logger.Debug("session attached", "device_id", deviceID, "session_id", s.ID, "sessions", count)
	return s
}

// Detach removes a session and closes its send channel.
//
// Detach is idempotent: a second call for the same session (half-closed
// connection torn down from both pumps) is a no-op. Only the caller that
// removes the session from the set closes the channel.
func (r *Registry) Detach(s *Session) {
	if s == nil {
		return
	}

	ds := r.deviceSet(s.DeviceID, false)
	if ds == nil {
		return
	}

	ds.mu.Lock()
	_, existed := ds.sessions[s]
	delete(ds.sessions, s)
	count := len(ds.sessions)
	ds.mu.Unlock()

	if existed {
		s.closed.Do(func() { close(s.send) })
		r.logger.Debug("session detached", "device_id", s.DeviceID, "session_id", s.ID, "sessions", count)
	}
}

// Broadcast queues data to every live session for the device id and
// returns the number of sessions reached. Zero sessions is a no-op, not
// an error.
func (r *Registry) Broadcast(deviceID string, data []byte) int {
	ds := r.deviceSet(deviceID, false)
	if ds == nil {
		return 0
	}

	// Snapshot under the read lock, then send outside it so a slow
	// session never holds up attach/detach.
	ds.mu.RLock()
	sessions := make([]*Session, 0, len(ds.sessions))
	for s := range ds.sessions {
		sessions = append(sessions, s)
	}
	ds.mu.RUnlock()

	reached := 0
	for _, s := range sessions {
		if s.trySend(data) {
			reached++
		}
	}

	ds.mu.Lock()
	ds.lastSent = data
	ds.mu.Unlock()

	return reached
}

// Count returns the number of live sessions for a device id.
func (r *Registry) Count(deviceID string) int {
	ds := r.deviceSet(deviceID, false)
	if ds == nil {
		return 0
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.sessions)
}

// LastSent returns the most recent payload broadcast to the device, or
// nil. Diagnostic only; delivery is never retried from this.
func (r *Registry) LastSent(deviceID string) []byte {
	ds := r.deviceSet(deviceID, false)
	if ds == nil {
		return nil
	}
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.lastSent
}

// CloseAll detaches every session. Called on shutdown so transport pumps
// can exit cleanly.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	sets := make([]*deviceSessions, 0, len(r.devices))
	for _, ds := range r.devices {
		sets = append(sets, ds)
	}
	r.mu.RUnlock()

	for _, ds := range sets {
		ds.mu.Lock()
		for s := range ds.sessions {
			delete(ds.sessions, s)
			s.closed.Do(func() { close(s.send) })
		}
		ds.mu.Unlock()
	}
}

// deviceSet returns the per-device session set, creating it when create
// is true. Empty sets are kept around; the map is bounded by the number
// of device ids that ever connect.
func (r *Registry) deviceSet(deviceID string, create bool) *deviceSessions {
	r.mu.RLock()
	ds, ok := r.devices[deviceID]
	r.mu.RUnlock()
	if ok || !create {
		return ds
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ds, ok = r.devices[deviceID]; ok {
		return ds
	}
	ds = &deviceSessions{sessions: make(map[*Session]struct{})}
	r.devices[deviceID] = ds
	return ds
}
