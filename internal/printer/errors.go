// internal/printer/errors.go
package printer

import "errors"

// Failure taxonomy for the print core. Callers branch on these with
// errors.Is; no automatic retries happen below this layer.
var (
	// ErrConnectInFlight is returned when a connect attempt is rejected
	// because another attempt has not finished yet.
	ErrConnectInFlight = errors.New("connection attempt already in progress")

	// ErrConnectionFailed wraps the underlying reason a handshake failed.
	ErrConnectionFailed = errors.New("printer connection failed")

	// ErrNotConnected is a precondition failure: the operation needs a
	// live session and there is none.
	ErrNotConnected = errors.New("printer not connected")

	// ErrPrinterBusy means another write holds the device right now.
	ErrPrinterBusy = errors.New("printer busy")

	// ErrWriteFailed wraps a transport execution failure mid-write.
	ErrWriteFailed = errors.New("printer write failed")

	// ErrTransportUnavailable means the requested transport strategy is
	// not supported in this environment.
	ErrTransportUnavailable = errors.New("transport not available")

	// ErrNoSession means a quick reconnect was requested without a
	// persistent session marker.
	ErrNoSession = errors.New("no persistent printer session")
)
