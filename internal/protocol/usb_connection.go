// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"print-service/internal/model"
)

// USBConnection implements DeviceProtocol for USB-attached printers
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	intfDone func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    *ProtocolStats
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) DeviceProtocol {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
		stats: &ProtocolStats{},
	}
}

// Open claims the USB device and its bulk endpoints
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Opening USB connection",
		zap.String("vendor_id", uc.config.VendorID),
		zap.String("product_id", uc.config.ProductID),
	)

	vendorID, err := parseHexID(uc.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}

	productID, err := parseHexID(uc.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	uc.ctx = gousb.NewContext()

	device, err := uc.findAndOpenDevice(vendorID, productID)
	if err != nil {
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(uc.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	inEndpt, err := intf.InEndpoint(uc.config.Endpoint)
	if err != nil {
		// Printers without a status endpoint are still usable for output
		uc.logger.Warn("No in endpoint found", zap.Error(err))
	}

	uc.device = device
	uc.intf = intf
	uc.intfDone = done
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.isOpen = true
	uc.stats.IsConnected = true
	uc.stats.LastActivity = time.Now()

	uc.logger.Info("USB connection opened successfully")
	return nil
}

// Close releases the USB device
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.intfDone != nil {
		uc.intfDone()
		uc.intfDone = nil
	}
	uc.intf = nil

	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}

	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.isOpen = false
	uc.stats.IsConnected = false

	uc.logger.Info("USB connection closed")
	return nil
}

// IsOpen returns whether the device is claimed
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes a command stream to the bulk out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return fmt.Errorf("USB connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n, err := uc.outEndpt.Write(data)
	if err != nil {
		uc.stats.ErrorCount++
		uc.logger.Error("USB write failed", zap.Error(err))
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.BytesWritten += int64(len(data))
	uc.stats.OperationCount++
	uc.stats.LastActivity = time.Now()

	uc.logger.Debug("USB write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads a printer response from the bulk in endpoint
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, fmt.Errorf("USB connection not open or no in endpoint")
	}

	buffer := make([]byte, maxBytes)

	done := make(chan struct {
		data []byte
		err  error
	}, 1)

	go func() {
		n, err := uc.inEndpt.Read(buffer)
		result := struct {
			data []byte
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from USB device: %w", err)
		} else {
			result.data = make([]byte, n)
			copy(result.data, buffer[:n])
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			uc.stats.ErrorCount++
			return nil, result.err
		}

		uc.stats.BytesRead += int64(len(result.data))
		uc.stats.OperationCount++
		uc.stats.LastActivity = time.Now()

		return result.data, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Describe returns a human-readable endpoint description
func (uc *USBConnection) Describe() string {
	return fmt.Sprintf("usb %s:%s", uc.config.VendorID, uc.config.ProductID)
}

// Stats returns a snapshot of the channel counters
func (uc *USBConnection) Stats() ProtocolStats {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return *uc.stats
}

// Ping tests the connection with a real-time status request
func (uc *USBConnection) Ping(ctx context.Context) error {
	if !uc.IsOpen() {
		return fmt.Errorf("USB connection not open")
	}
	return uc.Write(ctx, statusRequest)
}

// parseHexID parses a hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	if len(hexStr) > 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}

// findAndOpenDevice finds and opens the USB device by VID/PID
func (uc *USBConnection) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})

	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", vendorID, productID)
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}
