package printer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-service/internal/config"
	"print-service/internal/model"
	"print-service/internal/protocol"
	"print-service/internal/session"
)

// fakeDevice is an in-memory DeviceProtocol for manager tests
type fakeDevice struct {
	mu     sync.Mutex
	open   bool
	writes [][]byte

	openErr  error
	pingErr  error
	writeErr error

	blockOpen    chan struct{}
	blockWrite   chan struct{}
	writeStarted chan struct{}
}

func (f *fakeDevice) Open(ctx context.Context) error {
	if f.blockOpen != nil {
		select {
		case <-f.blockOpen:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDevice) Close() error {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	return nil
}

func (f *fakeDevice) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeDevice) Write(ctx context.Context, data []byte) error {
	if f.writeStarted != nil {
		select {
		case f.writeStarted <- struct{}{}:
		default:
		}
	}
	if f.blockWrite != nil {
		select {
		case <-f.blockWrite:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	f.writes = append(f.writes, data)
	f.mu.Unlock()
	return nil
}

func (f *fakeDevice) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDevice) GetProtocolType() model.ConnectionType { return model.ConnectionTypeSerial }
func (f *fakeDevice) Describe() string                      { return "fake device" }

func (f *fakeDevice) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeDevice) Stats() protocol.ProtocolStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := protocol.ProtocolStats{
		OperationCount: int64(len(f.writes)),
		IsConnected:    f.open,
	}
	for _, w := range f.writes {
		stats.BytesWritten += int64(len(w))
	}
	return stats
}

type testRig struct {
	manager *Manager
	store   *session.Store
	device  *fakeDevice
	dials   *atomic.Int32
	params  chan map[string]interface{}
}

func newTestRig(t *testing.T, device *fakeDevice) *testRig {
	t.Helper()
	return newPollingRig(t, device, time.Hour)
}

func newPollingRig(t *testing.T, device *fakeDevice, pollInterval time.Duration) *testRig {
	t.Helper()

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	dials := &atomic.Int32{}
	params := make(chan map[string]interface{}, 8)

	cfg := config.PrinterConfig{
		ConnectionType: "SERIAL",
		Serial: config.SerialPortConfig{
			Port:     "/dev/ttyTEST",
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "none",
			Timeout:  time.Second,
		},
		ConnectTimeout: 5 * time.Second,
		PollInterval:   pollInterval,
	}

	dial := func(connType model.ConnectionType, p map[string]interface{}, _ *zap.Logger) (protocol.DeviceProtocol, error) {
		dials.Add(1)
		params <- p
		return device, nil
	}

	return &testRig{
		manager: NewManager(cfg, store, zap.NewNop(), dial),
		store:   store,
		device:  device,
		dials:   dials,
		params:  params,
	}
}

func TestConnectLifecycle(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	assert.Equal(t, model.StateDisconnected, rig.manager.State())
	assert.False(t, rig.manager.IsConnected())
	assert.False(t, rig.manager.HasPersistentSession())

	require.NoError(t, rig.manager.Connect(context.Background()))

	assert.Equal(t, model.StateConnected, rig.manager.State())
	assert.True(t, rig.manager.IsConnected())
	assert.True(t, rig.manager.HasPersistentSession())
	assert.Contains(t, rig.manager.StatusMessage(), "Connected")

	sess, err := rig.store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeSerial, sess.ConnectionType)
	assert.Equal(t, "/dev/ttyTEST", sess.Params["port"])
}

func TestConnectFailureEndsDisconnected(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{openErr: errors.New("port held by another process")})

	err := rig.manager.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)

	assert.Equal(t, model.StateDisconnected, rig.manager.State())
	assert.False(t, rig.manager.HasPersistentSession())
	assert.Contains(t, rig.manager.StatusMessage(), "failed")
}

func TestConnectRejectsConcurrentAttempt(t *testing.T) {
	device := &fakeDevice{blockOpen: make(chan struct{})}
	rig := newTestRig(t, device)

	firstDone := make(chan error, 1)
	go func() { firstDone <- rig.manager.Connect(context.Background()) }()

	// wait for the first attempt to enter CONNECTING
	require.Eventually(t, func() bool {
		return rig.manager.State() == model.StateConnecting
	}, time.Second, 5*time.Millisecond)

	err := rig.manager.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectInFlight)

	close(device.blockOpen)
	require.NoError(t, <-firstDone)
	assert.Equal(t, model.StateConnected, rig.manager.State())
}

func TestDisconnectIdempotent(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	require.NoError(t, rig.manager.Connect(context.Background()))
	require.NoError(t, rig.manager.Disconnect())

	assert.Equal(t, model.StateDisconnected, rig.manager.State())
	assert.False(t, rig.manager.HasPersistentSession())
	assert.False(t, rig.device.IsOpen())

	// disconnecting again must not error or change anything
	require.NoError(t, rig.manager.Disconnect())
	assert.Equal(t, model.StateDisconnected, rig.manager.State())
}

func TestQuickReconnectRequiresSession(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	err := rig.manager.QuickReconnect(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, model.StateDisconnected, rig.manager.State())
}

func TestQuickReconnectUsesCachedParams(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	require.NoError(t, rig.store.Save(&session.Session{
		ConnectionType: model.ConnectionTypeSerial,
		Params:         map[string]interface{}{"port": "/dev/ttyCACHED", "baud_rate": float64(19200)},
		ConnectedAt:    time.Now(),
	}))

	require.NoError(t, rig.manager.QuickReconnect(context.Background()))
	assert.Equal(t, model.StateConnected, rig.manager.State())

	dialed := <-rig.params
	assert.Equal(t, "/dev/ttyCACHED", dialed["port"])
}

func TestStartReconnectsExactlyOnce(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	require.NoError(t, rig.store.Save(&session.Session{
		ConnectionType: model.ConnectionTypeSerial,
		Params:         map[string]interface{}{"port": "/dev/ttyTEST"},
		ConnectedAt:    time.Now(),
	}))

	rig.manager.Start(context.Background())
	defer rig.manager.Stop()

	assert.Equal(t, model.StateConnected, rig.manager.State())
	assert.Equal(t, int32(1), rig.dials.Load())
}

func TestStartWithoutSessionStaysDisconnected(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	rig.manager.Start(context.Background())
	defer rig.manager.Stop()

	assert.Equal(t, model.StateDisconnected, rig.manager.State())
	assert.Equal(t, int32(0), rig.dials.Load())
}

func TestSubmitRequiresConnection(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	err := rig.manager.Submit(context.Background(), []byte{0x1B, 0x40})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSubmitReportsBusyPrinter(t *testing.T) {
	device := &fakeDevice{
		blockWrite:   make(chan struct{}),
		writeStarted: make(chan struct{}, 1),
	}
	rig := newTestRig(t, device)

	require.NoError(t, rig.manager.Connect(context.Background()))

	firstDone := make(chan error, 1)
	go func() { firstDone <- rig.manager.Submit(context.Background(), []byte("job-1")) }()

	// wait for the first submit to hold the device
	<-device.writeStarted

	err := rig.manager.Submit(context.Background(), []byte("job-2"))
	assert.ErrorIs(t, err, ErrPrinterBusy)

	close(device.blockWrite)
	require.NoError(t, <-firstDone)

	device.mu.Lock()
	defer device.mu.Unlock()
	require.Len(t, device.writes, 1)
	assert.Equal(t, []byte("job-1"), device.writes[0])
}

func TestPollDetectsVanishedDevice(t *testing.T) {
	device := &fakeDevice{}
	rig := newPollingRig(t, device, 10*time.Millisecond)

	require.NoError(t, rig.manager.Connect(context.Background()))
	rig.manager.Start(context.Background())
	defer rig.manager.Stop()

	// device disappears out-of-band
	device.Close()

	require.Eventually(t, func() bool {
		return rig.manager.State() == model.StateDisconnected
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Connection lost", rig.manager.StatusMessage())

	// the poll only observes: no reconnect attempt, marker untouched
	assert.Equal(t, int32(1), rig.dials.Load())
	assert.True(t, rig.manager.HasPersistentSession())
}

func TestPollSkipsTickDuringActivePrint(t *testing.T) {
	device := &fakeDevice{
		blockWrite:   make(chan struct{}),
		writeStarted: make(chan struct{}, 1),
	}
	rig := newPollingRig(t, device, 10*time.Millisecond)

	require.NoError(t, rig.manager.Connect(context.Background()))

	// any poll that does sample the device would see a failing ping
	device.pingErr = errors.New("no response")

	submitDone := make(chan error, 1)
	go func() { submitDone <- rig.manager.Submit(context.Background(), []byte("job")) }()

	// wait for the print to hold the device before the poll starts
	<-device.writeStarted

	rig.manager.Start(context.Background())
	defer rig.manager.Stop()

	// several poll intervals pass while the print holds the device
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, model.StateConnected, rig.manager.State())

	close(device.blockWrite)
	require.NoError(t, <-submitDone)

	// with the device idle again the failing ping is observed
	require.Eventually(t, func() bool {
		return rig.manager.State() == model.StateDisconnected
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), rig.dials.Load())
}

func TestStatsFollowDeviceActivity(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})

	_, ok := rig.manager.Stats()
	assert.False(t, ok, "no device handle before connect")

	require.NoError(t, rig.manager.Connect(context.Background()))
	require.NoError(t, rig.manager.Submit(context.Background(), []byte("label data")))

	stats, ok := rig.manager.Stats()
	require.True(t, ok)
	assert.True(t, stats.IsConnected)
	assert.Equal(t, int64(len("label data")), stats.BytesWritten)
	assert.Equal(t, int64(1), stats.OperationCount)

	require.NoError(t, rig.manager.Disconnect())
	_, ok = rig.manager.Stats()
	assert.False(t, ok, "handle dropped on disconnect")
}

func TestSubmitWrapsWriteFailure(t *testing.T) {
	rig := newTestRig(t, &fakeDevice{})
	require.NoError(t, rig.manager.Connect(context.Background()))

	rig.device.writeErr = errors.New("io timeout")
	err := rig.manager.Submit(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrWriteFailed)
}
