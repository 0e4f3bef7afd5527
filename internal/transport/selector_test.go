package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"print-service/internal/model"
)

type stubConn bool

func (s stubConn) IsConnected() bool { return bool(s) }

func TestAvailableTransports(t *testing.T) {
	tests := []struct {
		name string
		caps StaticCapabilities
		want []model.TransportStrategy
	}{
		{
			name: "desktop with device io",
			caps: StaticCapabilities{Direct: true},
			want: []model.TransportStrategy{model.TransportDirect, model.TransportVisual, model.TransportDocument},
		},
		{
			name: "no device io",
			caps: StaticCapabilities{Direct: false},
			want: []model.TransportStrategy{model.TransportVisual, model.TransportDocument},
		},
		{
			name: "mobile never gets direct even with device io",
			caps: StaticCapabilities{Direct: true, Mobile: true},
			want: []model.TransportStrategy{model.TransportVisual, model.TransportDocument},
		},
		{
			name: "hosted",
			caps: StaticCapabilities{Direct: false, Hosted: true},
			want: []model.TransportStrategy{model.TransportVisual, model.TransportDocument},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewSelector(tt.caps, stubConn(false))
			assert.Equal(t, tt.want, selector.Available())
		})
	}
}

func TestBestTransport(t *testing.T) {
	tests := []struct {
		name      string
		caps      StaticCapabilities
		connected bool
		want      model.TransportStrategy
	}{
		{"direct capable and connected", StaticCapabilities{Direct: true}, true, model.TransportDirect},
		{"direct capable but disconnected", StaticCapabilities{Direct: true}, false, model.TransportVisual},
		{"no direct capability while connected", StaticCapabilities{Direct: false}, true, model.TransportVisual},
		{"no direct capability and disconnected", StaticCapabilities{Direct: false}, false, model.TransportVisual},
		{"mobile while connected", StaticCapabilities{Direct: true, Mobile: true}, true, model.TransportVisual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewSelector(tt.caps, stubConn(tt.connected))
			assert.Equal(t, tt.want, selector.Best())
		})
	}
}

func TestSupports(t *testing.T) {
	selector := NewSelector(StaticCapabilities{Direct: false}, stubConn(false))

	assert.False(t, selector.Supports(model.TransportDirect))
	assert.True(t, selector.Supports(model.TransportVisual))
	assert.True(t, selector.Supports(model.TransportDocument))
}
