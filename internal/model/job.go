// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionState represents the current state of the printer connection
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateConnected    ConnectionState = "CONNECTED"
	StateReconnecting ConnectionState = "RECONNECTING"
)

// ConnectionType represents how the printer is attached
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// TransportStrategy represents how a rendered document reaches paper
type TransportStrategy string

const (
	// TransportDirect writes a device command stream straight to the
	// connected printer. Requires a live session.
	TransportDirect TransportStrategy = "DIRECT"
	// TransportVisual renders a page for an operator-triggered print
	// dialog. Always available.
	TransportVisual TransportStrategy = "VISUAL"
	// TransportDocument produces a downloadable, self-contained file.
	TransportDocument TransportStrategy = "DOCUMENT"
)

// PrintJob is a single document bound to a resolved transport.
// Jobs are immutable once constructed and hold no persistent identity;
// they either execute fully or fail.
type PrintJob struct {
	ID        uuid.UUID         `json:"id"`
	Kind      DocumentKind      `json:"kind"`
	Document  Document          `json:"document"`
	Transport TransportStrategy `json:"transport"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewPrintJob creates a print job for a document
func NewPrintJob(doc Document, transport TransportStrategy) PrintJob {
	return PrintJob{
		ID:        uuid.New(),
		Kind:      doc.Kind(),
		Document:  doc,
		Transport: transport,
		CreatedAt: time.Now(),
	}
}

// PrintBatch is an ordered sequence of jobs of the same kind, executed
// sequentially with a fixed inter-job delay so the operator can remove
// each printed item before the next starts.
type PrintBatch struct {
	ID    uuid.UUID     `json:"id"`
	Kind  DocumentKind  `json:"kind"`
	Jobs  []PrintJob    `json:"jobs"`
	Delay time.Duration `json:"delay"`
}

// ProgressFunc is invoked before each batch job starts. current is
// 1-based; a batch of n jobs produces exactly n calls in order.
type ProgressFunc func(current, total int)
