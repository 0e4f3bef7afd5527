// internal/handler/print_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/service"
	"print-service/internal/utils"
)

// PrintHandler exposes single and batch printing over HTTP
type PrintHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printService *service.PrintService, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers print routes
func (h *PrintHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/print")
	{
		group.POST("/bag-label", h.PrintBagLabel)
		group.POST("/assignment-receipt", h.PrintAssignmentReceipt)
		group.POST("/order-record-receipt", h.PrintOrderRecordReceipt)
		group.POST("/batch", h.PrintBatch)
	}
}

type printBagLabelRequest struct {
	Transport model.TransportStrategy `json:"transport"`
	Document  model.BagLabel          `json:"document" binding:"required"`
}

// PrintBagLabel prints a single bag label
func (h *PrintHandler) PrintBagLabel(c *gin.Context) {
	var req printBagLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.printService.PrintBagLabel(c.Request.Context(), req.Document, req.Transport)
	h.respond(c, result, err)
}

type printAssignmentRequest struct {
	Transport model.TransportStrategy `json:"transport"`
	Document  model.AssignmentReceipt `json:"document" binding:"required"`
}

// PrintAssignmentReceipt prints a single machine-assignment receipt
func (h *PrintHandler) PrintAssignmentReceipt(c *gin.Context) {
	var req printAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.printService.PrintAssignmentReceipt(c.Request.Context(), req.Document, req.Transport)
	h.respond(c, result, err)
}

type printOrderRecordRequest struct {
	Transport model.TransportStrategy  `json:"transport"`
	Document  model.OrderRecordReceipt `json:"document" binding:"required"`
}

// PrintOrderRecordReceipt prints a single customer receipt
func (h *PrintHandler) PrintOrderRecordReceipt(c *gin.Context) {
	var req printOrderRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.printService.PrintOrderRecordReceipt(c.Request.Context(), req.Document, req.Transport)
	h.respond(c, result, err)
}

type printBatchRequest struct {
	Kind      model.DocumentKind      `json:"kind" binding:"required"`
	Transport model.TransportStrategy `json:"transport"`
	DelayMs   int                     `json:"delay_ms"`
	Documents json.RawMessage         `json:"documents" binding:"required"`
}

// PrintBatch prints an ordered batch of same-kind documents
func (h *PrintHandler) PrintBatch(c *gin.Context) {
	var req printBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	docs, err := decodeDocuments(req.Kind, req.Documents)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid batch documents", err)
		return
	}

	batch, err := h.printService.NewBatch(docs, req.Transport, time.Duration(req.DelayMs)*time.Millisecond)
	if err != nil {
		utils.ErrorResponse(c, statusFromError(err), "Failed to build batch", err)
		return
	}

	results, err := h.printService.PrintBatch(c.Request.Context(), batch, nil)
	if err != nil {
		h.logger.Warn("Batch print failed",
			zap.String("batch_id", batch.ID.String()),
			zap.Int("completed", len(results)),
			zap.Error(err),
		)
		utils.ErrorResponse(c, statusFromError(err), "Batch print failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Batch printed", gin.H{
		"batch_id": batch.ID,
		"total":    len(batch.Jobs),
		"results":  results,
	})
}

// respond writes the single-print outcome. DOCUMENT results come back
// as a file download; everything else as JSON.
func (h *PrintHandler) respond(c *gin.Context, result *service.PrintResult, err error) {
	if err != nil {
		utils.ErrorResponse(c, statusFromError(err), "Print failed", err)
		return
	}

	if result.Transport == model.TransportDocument {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
		c.Data(http.StatusOK, result.ContentType, result.File)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printed", result)
}

// decodeDocuments decodes a raw JSON array into typed payloads for the
// given kind
func decodeDocuments(kind model.DocumentKind, raw json.RawMessage) ([]model.Document, error) {
	switch kind {
	case model.KindBagLabel:
		var labels []model.BagLabel
		if err := json.Unmarshal(raw, &labels); err != nil {
			return nil, err
		}
		docs := make([]model.Document, len(labels))
		for i, d := range labels {
			docs[i] = d
		}
		return docs, nil

	case model.KindAssignmentReceipt:
		var receipts []model.AssignmentReceipt
		if err := json.Unmarshal(raw, &receipts); err != nil {
			return nil, err
		}
		docs := make([]model.Document, len(receipts))
		for i, d := range receipts {
			docs[i] = d
		}
		return docs, nil

	case model.KindOrderRecordReceipt:
		var receipts []model.OrderRecordReceipt
		if err := json.Unmarshal(raw, &receipts); err != nil {
			return nil, err
		}
		docs := make([]model.Document, len(receipts))
		for i, d := range receipts {
			docs[i] = d
		}
		return docs, nil

	default:
		return nil, fmt.Errorf("unknown document kind: %s", kind)
	}
}
