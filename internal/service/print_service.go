// internal/service/print_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/printer"
	"print-service/internal/render"
	"print-service/internal/transport"
)

// DeviceGateway is the slice of the connection manager the print
// service needs
type DeviceGateway interface {
	IsConnected() bool
	Submit(ctx context.Context, data []byte) error
}

// EventPublisher receives progress and completion events for the
// websocket stream. May be nil.
type EventPublisher interface {
	Publish(eventType string, data map[string]interface{})
}

// PrintResult is what a single executed job hands back to the caller.
// DIRECT jobs carry nothing extra; VISUAL jobs carry page markup for
// the operator; DOCUMENT jobs carry the downloadable file.
type PrintResult struct {
	JobID       uuid.UUID               `json:"job_id"`
	Kind        model.DocumentKind      `json:"kind"`
	Transport   model.TransportStrategy `json:"transport"`
	Page        string                  `json:"page,omitempty"`
	File        []byte                  `json:"file,omitempty"`
	FileName    string                  `json:"file_name,omitempty"`
	ContentType string                  `json:"content_type,omitempty"`
}

// PrintService orchestrates single and batch printing across the
// resolved transport strategies.
type PrintService struct {
	renderer   *render.Renderer
	gateway    DeviceGateway
	selector   *transport.Selector
	events     EventPublisher
	batchDelay time.Duration
	logger     *zap.Logger
}

// NewPrintService creates the print orchestrator. batchDelay is the
// default pause between batch jobs.
func NewPrintService(renderer *render.Renderer, gateway DeviceGateway, selector *transport.Selector, events EventPublisher, batchDelay time.Duration, logger *zap.Logger) *PrintService {
	return &PrintService{
		renderer:   renderer,
		gateway:    gateway,
		selector:   selector,
		events:     events,
		batchDelay: batchDelay,
		logger:     logger.With(zap.String("component", "print_service")),
	}
}

// PrintBagLabel prints one bag label
func (s *PrintService) PrintBagLabel(ctx context.Context, label model.BagLabel, requested model.TransportStrategy) (*PrintResult, error) {
	return s.printOne(ctx, label, requested)
}

// PrintAssignmentReceipt prints one machine-assignment receipt
func (s *PrintService) PrintAssignmentReceipt(ctx context.Context, receipt model.AssignmentReceipt, requested model.TransportStrategy) (*PrintResult, error) {
	return s.printOne(ctx, receipt, requested)
}

// PrintOrderRecordReceipt prints one customer receipt
func (s *PrintService) PrintOrderRecordReceipt(ctx context.Context, receipt model.OrderRecordReceipt, requested model.TransportStrategy) (*PrintResult, error) {
	return s.printOne(ctx, receipt, requested)
}

// ResolveTransport turns an optional request into a concrete strategy.
// Empty means "pick the best"; an explicit request must be supported in
// this environment.
func (s *PrintService) ResolveTransport(requested model.TransportStrategy) (model.TransportStrategy, error) {
	if requested == "" {
		return s.selector.Best(), nil
	}
	if !s.selector.Supports(requested) {
		return "", fmt.Errorf("%w: %s", printer.ErrTransportUnavailable, requested)
	}
	return requested, nil
}

// NewBatch builds a batch of same-kind documents on one resolved
// transport. delay <= 0 uses the configured default.
func (s *PrintService) NewBatch(docs []model.Document, requested model.TransportStrategy, delay time.Duration) (model.PrintBatch, error) {
	strategy, err := s.ResolveTransport(requested)
	if err != nil {
		return model.PrintBatch{}, err
	}

	if delay <= 0 {
		delay = s.batchDelay
	}

	batch := model.PrintBatch{
		ID:    uuid.New(),
		Jobs:  make([]model.PrintJob, 0, len(docs)),
		Delay: delay,
	}
	for i, doc := range docs {
		if i == 0 {
			batch.Kind = doc.Kind()
		} else if doc.Kind() != batch.Kind {
			return model.PrintBatch{}, fmt.Errorf("batch documents must share one kind, got %s and %s", batch.Kind, doc.Kind())
		}
		batch.Jobs = append(batch.Jobs, model.NewPrintJob(doc, strategy))
	}
	return batch, nil
}

// PrintBatch runs a batch strictly in order. onProgress fires before
// each job (exactly n calls for n jobs); the configured delay runs
// after every job but the last; the first failure aborts the remainder
// while completed jobs stand. A batch that needs the device while
// disconnected fails before job one.
func (s *PrintService) PrintBatch(ctx context.Context, batch model.PrintBatch, onProgress model.ProgressFunc) ([]PrintResult, error) {
	total := len(batch.Jobs)
	if total == 0 {
		return nil, nil
	}

	for _, job := range batch.Jobs {
		if job.Transport == model.TransportDirect && !s.gateway.IsConnected() {
			s.publish("batch_failed", map[string]interface{}{
				"batch_id": batch.ID.String(),
				"reason":   printer.ErrNotConnected.Error(),
			})
			return nil, printer.ErrNotConnected
		}
	}

	s.logger.Info("Starting print batch",
		zap.String("batch_id", batch.ID.String()),
		zap.String("kind", string(batch.Kind)),
		zap.Int("jobs", total),
	)

	results := make([]PrintResult, 0, total)
	for i, job := range batch.Jobs {
		if onProgress != nil {
			onProgress(i+1, total)
		}
		s.publish("batch_progress", map[string]interface{}{
			"batch_id": batch.ID.String(),
			"current":  i + 1,
			"total":    total,
		})

		result, err := s.execute(ctx, job)
		if err != nil {
			s.logger.Error("Batch job failed, aborting remainder",
				zap.String("batch_id", batch.ID.String()),
				zap.Int("job", i+1),
				zap.Error(err),
			)
			s.publish("batch_failed", map[string]interface{}{
				"batch_id":  batch.ID.String(),
				"failed_at": i + 1,
				"reason":    err.Error(),
			})
			return results, fmt.Errorf("batch job %d/%d: %w", i+1, total, err)
		}
		results = append(results, *result)

		if i < total-1 {
			if err := sleepCtx(ctx, batch.Delay); err != nil {
				return results, err
			}
		}
	}

	s.publish("batch_completed", map[string]interface{}{
		"batch_id": batch.ID.String(),
		"total":    total,
	})
	return results, nil
}

func (s *PrintService) printOne(ctx context.Context, doc model.Document, requested model.TransportStrategy) (*PrintResult, error) {
	strategy, err := s.ResolveTransport(requested)
	if err != nil {
		return nil, err
	}

	job := model.NewPrintJob(doc, strategy)
	result, err := s.execute(ctx, job)
	if err != nil {
		return nil, err
	}

	s.publish("print_completed", map[string]interface{}{
		"job_id":    job.ID.String(),
		"kind":      string(job.Kind),
		"transport": string(strategy),
	})
	return result, nil
}

// execute runs one job over its resolved transport
func (s *PrintService) execute(ctx context.Context, job model.PrintJob) (*PrintResult, error) {
	result := &PrintResult{
		JobID:     job.ID,
		Kind:      job.Kind,
		Transport: job.Transport,
	}

	switch job.Transport {
	case model.TransportDirect:
		if !s.gateway.IsConnected() {
			return nil, printer.ErrNotConnected
		}
		data := s.renderer.EncodeESCPOS(s.renderer.Layout(job.Document))
		if err := s.gateway.Submit(ctx, data); err != nil {
			return nil, err
		}

	case model.TransportVisual:
		result.Page = s.renderer.Page(job.Document)

	case model.TransportDocument:
		result.File, result.FileName, result.ContentType = s.renderer.File(job.Document)

	default:
		return nil, fmt.Errorf("%w: %s", printer.ErrTransportUnavailable, job.Transport)
	}

	return result, nil
}

func (s *PrintService) publish(eventType string, data map[string]interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}

// sleepCtx waits for d unless the context ends first
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
