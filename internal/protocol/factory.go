// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"print-service/internal/model"
)

// CreateProtocol creates a protocol from a connection type and a parameter
// map. Params are kept as a map because they round-trip through the session
// file for quick reconnects.
func CreateProtocol(connectionType model.ConnectionType, params map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	switch connectionType {
	case model.ConnectionTypeSerial:
		return createSerialProtocol(params, logger)
	case model.ConnectionTypeUSB:
		return createUSBProtocol(params, logger)
	case model.ConnectionTypeTCP:
		return createTCPProtocol(params, logger)
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

func createSerialProtocol(params map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	serialConfig := &SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  5 * time.Second,
	}

	port, ok := params["port"].(string)
	if !ok || port == "" {
		return nil, fmt.Errorf("serial port is required")
	}
	serialConfig.Port = port

	if v, ok := intParam(params, "baud_rate"); ok {
		serialConfig.BaudRate = v
	}
	if v, ok := intParam(params, "data_bits"); ok {
		serialConfig.DataBits = v
	}
	if v, ok := intParam(params, "stop_bits"); ok {
		serialConfig.StopBits = v
	}
	if parity, ok := params["parity"].(string); ok {
		serialConfig.Parity = parity
	}
	if d, ok := durationParam(params, "timeout"); ok {
		serialConfig.Timeout = d
	}

	logger.Info("Creating serial protocol",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger), nil
}

func createUSBProtocol(params map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	usbConfig := &USBConfig{
		Endpoint: 1,
		Timeout:  5 * time.Second,
	}

	vendorID, ok := params["vendor_id"].(string)
	if !ok || vendorID == "" {
		return nil, fmt.Errorf("USB vendor_id is required")
	}
	usbConfig.VendorID = vendorID

	productID, ok := params["product_id"].(string)
	if !ok || productID == "" {
		return nil, fmt.Errorf("USB product_id is required")
	}
	usbConfig.ProductID = productID

	if v, ok := intParam(params, "endpoint"); ok {
		usbConfig.Endpoint = v
	}
	if d, ok := durationParam(params, "timeout"); ok {
		usbConfig.Timeout = d
	}

	logger.Info("Creating USB protocol",
		zap.String("vendor_id", usbConfig.VendorID),
		zap.String("product_id", usbConfig.ProductID),
	)

	return NewUSBConnection(usbConfig, logger), nil
}

func createTCPProtocol(params map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	tcpConfig := &TCPConfig{
		Port:         9100, // default raw printing port
		KeepAlive:    true,
		Timeout:      10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	host, ok := params["host"].(string)
	if !ok || host == "" {
		return nil, fmt.Errorf("TCP host is required")
	}
	tcpConfig.Host = host

	if v, ok := intParam(params, "port"); ok {
		tcpConfig.Port = v
	}
	if ssl, ok := params["ssl"].(bool); ok {
		tcpConfig.SSL = ssl
	}
	if keepAlive, ok := params["keep_alive"].(bool); ok {
		tcpConfig.KeepAlive = keepAlive
	}
	if d, ok := durationParam(params, "timeout"); ok {
		tcpConfig.Timeout = d
	}
	if d, ok := durationParam(params, "read_timeout"); ok {
		tcpConfig.ReadTimeout = d
	}
	if d, ok := durationParam(params, "write_timeout"); ok {
		tcpConfig.WriteTimeout = d
	}

	logger.Info("Creating TCP protocol",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
	)

	return NewTCPConnection(tcpConfig, logger), nil
}

// ValidateParams validates a parameter map for a connection type without
// opening anything
func ValidateParams(connectionType model.ConnectionType, params map[string]interface{}) error {
	switch connectionType {
	case model.ConnectionTypeSerial:
		if s, ok := params["port"].(string); !ok || s == "" {
			return fmt.Errorf("serial port is required")
		}
	case model.ConnectionTypeUSB:
		if s, ok := params["vendor_id"].(string); !ok || s == "" {
			return fmt.Errorf("USB vendor_id is required")
		}
		if s, ok := params["product_id"].(string); !ok || s == "" {
			return fmt.Errorf("USB product_id is required")
		}
	case model.ConnectionTypeTCP:
		if s, ok := params["host"].(string); !ok || s == "" {
			return fmt.Errorf("TCP host is required")
		}
		if port, ok := intParam(params, "port"); ok && (port < 1 || port > 65535) {
			return fmt.Errorf("invalid port number: %d", port)
		}
	default:
		return fmt.Errorf("unsupported connection type: %s", connectionType)
	}
	return nil
}

// intParam reads an int out of a JSON-decoded parameter map
func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// durationParam reads a duration string out of a parameter map
func durationParam(params map[string]interface{}, key string) (time.Duration, bool) {
	if s, ok := params[key].(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, true
		}
	}
	return 0, false
}
