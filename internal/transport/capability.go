// internal/transport/capability.go
package transport

import (
	"runtime"

	"go.bug.st/serial"

	"print-service/internal/config"
)

// CapabilityProvider answers what the hosting environment can do.
// Answers are stable for the process lifetime.
type CapabilityProvider interface {
	// SupportsDirectTransport reports whether raw device I/O is possible
	SupportsDirectTransport() bool
	// IsMobile reports a mobile form factor (no device I/O from browsers)
	IsMobile() bool
	// IsHosted reports a hosted deployment with no local devices
	IsHosted() bool
}

// HostCapabilities detects capabilities from the host, with config
// overrides taking precedence. Detection runs once at construction.
type HostCapabilities struct {
	direct bool
	mobile bool
	hosted bool
}

// NewHostCapabilities builds the provider from config and host probes
func NewHostCapabilities(cfg config.CapabilityConfig) *HostCapabilities {
	h := &HostCapabilities{
		mobile: detectMobile(),
		hosted: cfg.Hosted,
	}

	if cfg.Mobile != nil {
		h.mobile = *cfg.Mobile
	}

	if cfg.DirectTransport != nil {
		h.direct = *cfg.DirectTransport
	} else {
		h.direct = !h.mobile && !h.hosted && detectDeviceIO()
	}

	return h
}

func (h *HostCapabilities) SupportsDirectTransport() bool { return h.direct }
func (h *HostCapabilities) IsMobile() bool                { return h.mobile }
func (h *HostCapabilities) IsHosted() bool                { return h.hosted }

// detectMobile keys off the platform; the service itself only runs on
// desktop and server OSes, so anything else counts as mobile.
func detectMobile() bool {
	switch runtime.GOOS {
	case "android", "ios":
		return true
	default:
		return false
	}
}

// detectDeviceIO probes for any serial port as a proxy for local
// device access
func detectDeviceIO() bool {
	ports, err := serial.GetPortsList()
	return err == nil && len(ports) > 0
}

// StaticCapabilities is a fixed-answer provider for tests
type StaticCapabilities struct {
	Direct bool
	Mobile bool
	Hosted bool
}

func (s StaticCapabilities) SupportsDirectTransport() bool { return s.Direct }
func (s StaticCapabilities) IsMobile() bool                { return s.Mobile }
func (s StaticCapabilities) IsHosted() bool                { return s.Hosted }
