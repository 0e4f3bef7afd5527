// internal/protocol/protocol.go
package protocol

import (
	"context"
	"time"

	"print-service/internal/model"
)

// DeviceProtocol represents a communication channel to the printer
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	GetProtocolType() model.ConnectionType
	Describe() string

	// Health and diagnostics
	Ping(ctx context.Context) error
	Stats() ProtocolStats
}

// statusRequest is the DLE EOT 1 real-time status query used as a ping
var statusRequest = []byte{0x10, 0x04, 0x01}

// ProtocolStats holds channel-level counters, exposed through the
// printer status endpoint
type ProtocolStats struct {
	BytesWritten   int64     `json:"bytes_written"`
	BytesRead      int64     `json:"bytes_read"`
	OperationCount int64     `json:"operation_count"`
	ErrorCount     int64     `json:"error_count"`
	LastActivity   time.Time `json:"last_activity"`
	IsConnected    bool      `json:"is_connected"`
}
