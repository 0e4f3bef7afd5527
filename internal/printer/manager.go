// internal/printer/manager.go
package printer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/model"
	"print-service/internal/protocol"
	"print-service/internal/session"
)

// DialFunc builds a device protocol from a connection type and parameter
// map. Injectable so tests can supply a fake device.
type DialFunc func(connectionType model.ConnectionType, params map[string]interface{}, logger *zap.Logger) (protocol.DeviceProtocol, error)

// StateListener is notified after every state transition, outside the
// manager's locks.
type StateListener func(state model.ConnectionState, message string)

// Manager owns the single printer connection. All state transitions go
// through it; there is exactly one device handle per process.
type Manager struct {
	cfg    config.PrinterConfig
	store  *session.Store
	dial   DialFunc
	logger *zap.Logger

	mu            sync.RWMutex
	state         model.ConnectionState
	statusMessage string
	proto         protocol.DeviceProtocol
	inFlight      bool

	// writeMu serializes device writes. Submit uses TryLock so a busy
	// printer is reported instead of queued.
	writeMu sync.Mutex

	listener StateListener

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewManager creates a connection manager. dial may be nil, in which
// case the protocol factory is used.
func NewManager(cfg config.PrinterConfig, store *session.Store, logger *zap.Logger, dial DialFunc) *Manager {
	if dial == nil {
		dial = protocol.CreateProtocol
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		dial:          dial,
		logger:        logger.With(zap.String("component", "printer_manager")),
		state:         model.StateDisconnected,
		statusMessage: "Not connected",
	}
}

// SetStateListener registers the transition callback. Call before Start.
func (m *Manager) SetStateListener(l StateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// State returns the current connection state
func (m *Manager) State() model.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// StatusMessage returns the current human-readable status line
func (m *Manager) StatusMessage() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusMessage
}

// IsConnected reports whether a live session exists
func (m *Manager) IsConnected() bool {
	return m.State() == model.StateConnected
}

// HasPersistentSession reports whether a session marker is on disk
func (m *Manager) HasPersistentSession() bool {
	return m.store.Exists()
}

// Stats returns the channel counters of the current device handle. The
// second return is false when no handle exists.
func (m *Manager) Stats() (protocol.ProtocolStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.proto == nil {
		return protocol.ProtocolStats{}, false
	}
	return m.proto.Stats(), true
}

// Connect performs a fresh handshake from configuration. Any cached
// negotiation state is discarded first. A second call while an attempt
// is in flight is rejected, not coalesced.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrConnectInFlight
	}
	m.inFlight = true

	// Fresh connect: drop the old handle and cached params
	if m.proto != nil {
		m.proto.Close()
		m.proto = nil
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Failed to clear session marker", zap.Error(err))
	}

	connType := model.ConnectionType(m.cfg.ConnectionType)
	params := m.cfg.ConnectionParams()
	m.setStateLocked(model.StateConnecting, "Connecting to printer...")
	m.mu.Unlock()

	proto, err := m.handshake(ctx, connType, params)

	m.mu.Lock()
	m.inFlight = false
	if err != nil {
		m.setStateLocked(model.StateDisconnected, fmt.Sprintf("Connection failed: %v", err))
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	m.proto = proto
	m.setStateLocked(model.StateConnected, fmt.Sprintf("Connected (%s)", proto.Describe()))
	m.mu.Unlock()

	// Persist the negotiated session for quick reconnects
	if err := m.store.Save(&session.Session{
		ConnectionType: connType,
		Params:         params,
		ConnectedAt:    time.Now(),
	}); err != nil {
		m.logger.Warn("Failed to persist session marker", zap.Error(err))
	}

	m.logger.Info("Printer connected", zap.String("endpoint", proto.Describe()))
	return nil
}

// QuickReconnect dials with the cached parameters from the session
// marker, skipping renegotiation.
func (m *Manager) QuickReconnect(ctx context.Context) error {
	sess, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrConnectInFlight
	}
	m.inFlight = true

	if m.proto != nil {
		m.proto.Close()
		m.proto = nil
	}

	m.setStateLocked(model.StateReconnecting, "Reconnecting to printer...")
	m.mu.Unlock()

	proto, err := m.handshake(ctx, sess.ConnectionType, sess.Params)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	if err != nil {
		m.setStateLocked(model.StateDisconnected, fmt.Sprintf("Reconnect failed: %v", err))
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	m.proto = proto
	m.setStateLocked(model.StateConnected, fmt.Sprintf("Connected (%s)", proto.Describe()))
	m.logger.Info("Printer reconnected", zap.String("endpoint", proto.Describe()))
	return nil
}

// Disconnect tears down the connection and forgets the persistent
// session. Disconnecting while already disconnected is a no-op.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proto != nil {
		if err := m.proto.Close(); err != nil {
			m.logger.Warn("Error closing printer connection", zap.Error(err))
		}
		m.proto = nil
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("Failed to clear session marker", zap.Error(err))
	}

	m.setStateLocked(model.StateDisconnected, "Disconnected")
	return nil
}

// Shutdown closes the device handle without touching the session
// marker, so the next process start can reconnect silently.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.proto != nil {
		if err := m.proto.Close(); err != nil {
			m.logger.Warn("Error closing printer connection", zap.Error(err))
		}
		m.proto = nil
	}
	m.setStateLocked(model.StateDisconnected, "Service stopped")
}

// Submit writes a device command stream over the live connection. The
// device is exclusive: a concurrent submit gets ErrPrinterBusy rather
// than queuing behind the current one.
func (m *Manager) Submit(ctx context.Context, data []byte) error {
	m.mu.RLock()
	proto := m.proto
	connected := m.state == model.StateConnected
	m.mu.RUnlock()

	if !connected || proto == nil {
		return ErrNotConnected
	}

	if !m.writeMu.TryLock() {
		return ErrPrinterBusy
	}
	defer m.writeMu.Unlock()

	if err := proto.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Start brings the manager up: a single silent reconnect attempt when a
// session marker exists, then the periodic liveness poll. Call once.
func (m *Manager) Start(ctx context.Context) {
	if m.store.Exists() && m.State() == model.StateDisconnected {
		timeout := m.cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		reconnectCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := m.QuickReconnect(reconnectCtx); err != nil {
			m.logger.Info("Startup reconnect did not succeed", zap.Error(err))
		}
		cancel()
	}

	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel
	m.pollDone = make(chan struct{})
	go m.pollLoop(pollCtx)
}

// Stop halts the liveness poll. It does not touch the connection.
func (m *Manager) Stop() {
	if m.pollCancel != nil {
		m.pollCancel()
		<-m.pollDone
	}
}

// pollLoop verifies the device is still reachable. It only observes:
// if a print is in progress the tick is skipped, and a vanished device
// flips state to DISCONNECTED without any reconnect attempt.
func (m *Manager) pollLoop(ctx context.Context) {
	defer close(m.pollDone)

	interval := m.cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkLiveness(ctx)
		}
	}
}

func (m *Manager) checkLiveness(ctx context.Context) {
	m.mu.RLock()
	proto := m.proto
	connected := m.state == model.StateConnected
	m.mu.RUnlock()

	if !connected || proto == nil {
		return
	}

	// Never contend with an active print
	if !m.writeMu.TryLock() {
		return
	}
	defer m.writeMu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if !proto.IsOpen() || proto.Ping(pingCtx) != nil {
		m.logger.Warn("Printer vanished, marking disconnected")
		m.mu.Lock()
		if m.state == model.StateConnected {
			if m.proto != nil {
				m.proto.Close()
				m.proto = nil
			}
			m.setStateLocked(model.StateDisconnected, "Connection lost")
		}
		m.mu.Unlock()
	}
}

// handshake dials and verifies the device end to end
func (m *Manager) handshake(ctx context.Context, connType model.ConnectionType, params map[string]interface{}) (protocol.DeviceProtocol, error) {
	if err := protocol.ValidateParams(connType, params); err != nil {
		return nil, err
	}

	proto, err := m.dial(connType, params, m.logger)
	if err != nil {
		return nil, err
	}

	openCtx := ctx
	if m.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()
	}

	if err := proto.Open(openCtx); err != nil {
		return nil, err
	}

	if err := proto.Ping(openCtx); err != nil {
		proto.Close()
		return nil, fmt.Errorf("device did not answer status request: %w", err)
	}

	return proto, nil
}

// setStateLocked updates state and status message; caller holds m.mu.
// The listener runs on its own goroutine so it can call back into the
// manager safely.
func (m *Manager) setStateLocked(state model.ConnectionState, message string) {
	m.state = state
	m.statusMessage = message
	if m.listener != nil {
		go m.listener(state, message)
	}
}
