// internal/transport/selector.go
package transport

import "print-service/internal/model"

// ConnectionChecker is the slice of the printer manager the selector
// needs
type ConnectionChecker interface {
	IsConnected() bool
}

// Selector resolves which transport strategies exist here and which one
// a job should take by default. Pure decision logic, no I/O.
type Selector struct {
	caps CapabilityProvider
	conn ConnectionChecker
}

// NewSelector creates a selector
func NewSelector(caps CapabilityProvider, conn ConnectionChecker) *Selector {
	return &Selector{caps: caps, conn: conn}
}

// Available lists the usable strategies in preference order. VISUAL and
// DOCUMENT are always usable; DIRECT needs device I/O and a non-mobile
// form factor.
func (s *Selector) Available() []model.TransportStrategy {
	out := make([]model.TransportStrategy, 0, 3)
	if s.caps.SupportsDirectTransport() && !s.caps.IsMobile() {
		out = append(out, model.TransportDirect)
	}
	return append(out, model.TransportVisual, model.TransportDocument)
}

// Supports reports whether a strategy is usable here
func (s *Selector) Supports(strategy model.TransportStrategy) bool {
	for _, available := range s.Available() {
		if available == strategy {
			return true
		}
	}
	return false
}

// Best picks the default strategy: DIRECT when it is available and the
// printer is connected right now, VISUAL otherwise.
func (s *Selector) Best() model.TransportStrategy {
	if s.Supports(model.TransportDirect) && s.conn.IsConnected() {
		return model.TransportDirect
	}
	return model.TransportVisual
}
