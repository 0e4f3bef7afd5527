package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/printer"
	"print-service/internal/render"
	"print-service/internal/transport"
)

type fakeGateway struct {
	mu        sync.Mutex
	connected bool
	writes    [][]byte
	failAfter int // fail the write once this many succeeded; 0 = never
}

func (g *fakeGateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGateway) Submit(ctx context.Context, data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAfter > 0 && len(g.writes) >= g.failAfter {
		return fmt.Errorf("%w: paper jam", printer.ErrWriteFailed)
	}
	g.writes = append(g.writes, data)
	return nil
}

func (g *fakeGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.writes)
}

type recordingBus struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBus) Publish(eventType string, data map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func newTestService(gateway *fakeGateway, direct bool, batchDelay time.Duration) (*PrintService, *recordingBus) {
	fixed := func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	bus := &recordingBus{}
	selector := transport.NewSelector(transport.StaticCapabilities{Direct: direct}, gateway)
	svc := NewPrintService(render.NewRenderer(32, fixed), gateway, selector, bus, batchDelay, zap.NewNop())
	return svc, bus
}

func labels(n int) []model.Document {
	docs := make([]model.Document, n)
	for i := range docs {
		docs[i] = model.BagLabel{
			ReferenceNo: fmt.Sprintf("REF-%d", i+1),
			Customer:    "Hotel Meridian",
			BagNumber:   i + 1,
			BagCount:    n,
			Quantity:    10,
		}
	}
	return docs
}

func TestPrintDirectWritesCommandStream(t *testing.T) {
	gateway := &fakeGateway{connected: true}
	svc, _ := newTestService(gateway, true, 0)

	result, err := svc.PrintBagLabel(context.Background(), model.BagLabel{ReferenceNo: "REF-9"}, model.TransportDirect)
	require.NoError(t, err)
	assert.Equal(t, model.TransportDirect, result.Transport)
	assert.Empty(t, result.Page)

	require.Equal(t, 1, gateway.writeCount())
	assert.Equal(t, []byte{0x1B, 0x40}, gateway.writes[0][:2])
}

func TestPrintVisualReturnsPage(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{}, false, 0)

	result, err := svc.PrintBagLabel(context.Background(), model.BagLabel{ReferenceNo: "REF-9"}, model.TransportVisual)
	require.NoError(t, err)
	assert.Contains(t, result.Page, "REF-9")
	assert.Empty(t, result.File)
}

func TestPrintDocumentReturnsFile(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{}, false, 0)

	result, err := svc.PrintOrderRecordReceipt(context.Background(), model.OrderRecordReceipt{RecordNo: "ORD-3"}, model.TransportDocument)
	require.NoError(t, err)
	assert.Contains(t, string(result.File), "ORD-3")
	assert.Equal(t, "order-record-receipt-ord-3.html", result.FileName)
	assert.Equal(t, "text/html; charset=utf-8", result.ContentType)
}

func TestDefaultTransportFollowsBest(t *testing.T) {
	gateway := &fakeGateway{connected: false}
	svc, _ := newTestService(gateway, true, 0)

	// disconnected: best is visual even with direct capability
	result, err := svc.PrintBagLabel(context.Background(), model.BagLabel{}, "")
	require.NoError(t, err)
	assert.Equal(t, model.TransportVisual, result.Transport)

	gateway.mu.Lock()
	gateway.connected = true
	gateway.mu.Unlock()

	result, err = svc.PrintBagLabel(context.Background(), model.BagLabel{}, "")
	require.NoError(t, err)
	assert.Equal(t, model.TransportDirect, result.Transport)
}

func TestExplicitUnsupportedTransportRejected(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{}, false, 0)

	_, err := svc.PrintBagLabel(context.Background(), model.BagLabel{}, model.TransportDirect)
	assert.ErrorIs(t, err, printer.ErrTransportUnavailable)
}

func TestBatchProgressAndDelays(t *testing.T) {
	gateway := &fakeGateway{connected: true}
	delay := 30 * time.Millisecond
	svc, _ := newTestService(gateway, true, delay)

	batch, err := svc.NewBatch(labels(3), model.TransportDirect, 0)
	require.NoError(t, err)
	require.Len(t, batch.Jobs, 3)
	assert.Equal(t, delay, batch.Delay)

	var calls [][2]int
	start := time.Now()
	results, err := svc.PrintBatch(context.Background(), batch, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, 3, gateway.writeCount())

	// exactly n progress calls, in order, 1-based
	require.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)

	// n-1 delays: two pauses, not three
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 3*delay)
}

func TestBatchFailsFastWhenDisconnected(t *testing.T) {
	gateway := &fakeGateway{connected: false}
	svc, bus := newTestService(gateway, true, time.Millisecond)

	batch, err := svc.NewBatch(labels(3), model.TransportVisual, 0)
	require.NoError(t, err)
	// force the device path to exercise the precondition
	for i := range batch.Jobs {
		batch.Jobs[i].Transport = model.TransportDirect
	}

	progressCalls := 0
	results, err := svc.PrintBatch(context.Background(), batch, func(int, int) { progressCalls++ })

	assert.ErrorIs(t, err, printer.ErrNotConnected)
	assert.Empty(t, results)
	assert.Zero(t, progressCalls)
	assert.Zero(t, gateway.writeCount())

	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.Contains(t, bus.events, "batch_failed")
}

func TestBatchAbortsOnFirstFailure(t *testing.T) {
	gateway := &fakeGateway{connected: true, failAfter: 2}
	svc, _ := newTestService(gateway, true, time.Millisecond)

	batch, err := svc.NewBatch(labels(4), model.TransportDirect, 0)
	require.NoError(t, err)

	progressCalls := 0
	results, err := svc.PrintBatch(context.Background(), batch, func(int, int) { progressCalls++ })

	require.Error(t, err)
	assert.ErrorIs(t, err, printer.ErrWriteFailed)

	// two jobs completed and stand; job three failed; job four never ran
	assert.Len(t, results, 2)
	assert.Equal(t, 2, gateway.writeCount())
	assert.Equal(t, 3, progressCalls)
}

func TestBatchPublishesProgressEvents(t *testing.T) {
	svc, bus := newTestService(&fakeGateway{}, false, time.Millisecond)

	batch, err := svc.NewBatch(labels(2), model.TransportVisual, 0)
	require.NoError(t, err)

	_, err = svc.PrintBatch(context.Background(), batch, nil)
	require.NoError(t, err)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	progress := 0
	for _, e := range bus.events {
		if e == "batch_progress" {
			progress++
		}
	}
	assert.Equal(t, 2, progress)
	assert.Contains(t, bus.events, "batch_completed")
}

func TestBatchRejectsMixedKinds(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{}, false, 0)

	_, err := svc.NewBatch([]model.Document{
		model.BagLabel{ReferenceNo: "R1"},
		model.AssignmentReceipt{TrackingNo: "T1"},
	}, model.TransportVisual, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one kind")
}

func TestEmptyBatchIsNoop(t *testing.T) {
	svc, _ := newTestService(&fakeGateway{}, false, 0)

	results, err := svc.PrintBatch(context.Background(), model.PrintBatch{}, func(int, int) {
		t.Fatal("progress must not fire for an empty batch")
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchStopsOnCancelledContext(t *testing.T) {
	gateway := &fakeGateway{connected: true}
	svc, _ := newTestService(gateway, true, 50*time.Millisecond)

	batch, err := svc.NewBatch(labels(3), model.TransportDirect, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	results, err := svc.PrintBatch(ctx, batch, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NotEmpty(t, results)
}
