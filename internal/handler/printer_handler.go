// internal/handler/printer_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"print-service/internal/printer"
	"print-service/internal/transport"
	"print-service/internal/utils"
)

// PrinterHandler exposes the connection manager over HTTP
type PrinterHandler struct {
	manager  *printer.Manager
	selector *transport.Selector
	logger   *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(manager *printer.Manager, selector *transport.Selector, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		manager:  manager,
		selector: selector,
		logger:   utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/printer")
	{
		group.GET("/status", h.GetStatus)
		group.POST("/connect", h.Connect)
		group.POST("/disconnect", h.Disconnect)
		group.POST("/reconnect", h.Reconnect)
		group.GET("/ports", h.ListPorts)
	}
}

// GetStatus reports connection state, transport availability and the
// channel counters of the current device handle
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	payload := gin.H{
		"state":                  h.manager.State(),
		"connected":              h.manager.IsConnected(),
		"status_message":         h.manager.StatusMessage(),
		"has_persistent_session": h.manager.HasPersistentSession(),
		"available_transports":   h.selector.Available(),
		"best_transport":         h.selector.Best(),
	}
	if stats, ok := h.manager.Stats(); ok {
		payload["channel_stats"] = stats
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer status", payload)
}

// Connect starts a fresh handshake with the configured printer
func (h *PrinterHandler) Connect(c *gin.Context) {
	if err := h.manager.Connect(c.Request.Context()); err != nil {
		h.logger.Warn("Printer connect failed", zap.Error(err))
		utils.ErrorResponse(c, statusFromError(err), "Failed to connect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer connected", gin.H{
		"state":          h.manager.State(),
		"status_message": h.manager.StatusMessage(),
	})
}

// Disconnect tears the connection down and forgets the session
func (h *PrinterHandler) Disconnect(c *gin.Context) {
	if err := h.manager.Disconnect(); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to disconnect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected", gin.H{
		"state": h.manager.State(),
	})
}

// Reconnect dials with the cached session parameters
func (h *PrinterHandler) Reconnect(c *gin.Context) {
	if err := h.manager.QuickReconnect(c.Request.Context()); err != nil {
		h.logger.Warn("Printer reconnect failed", zap.Error(err))
		utils.ErrorResponse(c, statusFromError(err), "Failed to reconnect printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer reconnected", gin.H{
		"state":          h.manager.State(),
		"status_message": h.manager.StatusMessage(),
	})
}

// ListPorts enumerates the host's serial ports
func (h *PrinterHandler) ListPorts(c *gin.Context) {
	ports, err := serial.GetPortsList()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list serial ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Serial ports", gin.H{
		"ports": ports,
	})
}

// statusFromError maps the print core's failure taxonomy to HTTP status
// codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, printer.ErrConnectInFlight), errors.Is(err, printer.ErrPrinterBusy):
		return http.StatusConflict
	case errors.Is(err, printer.ErrNotConnected), errors.Is(err, printer.ErrNoSession):
		return http.StatusPreconditionFailed
	case errors.Is(err, printer.ErrTransportUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, printer.ErrConnectionFailed), errors.Is(err, printer.ErrWriteFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
