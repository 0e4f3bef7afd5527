// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-service/internal/model"
)

// TCPConnection implements DeviceProtocol for network printers (raw port 9100)
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *ProtocolStats
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) DeviceProtocol {
	return &TCPConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
		stats: &ProtocolStats{},
	}
}

// Open dials the printer
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Info("Opening TCP connection",
		zap.String("host", tc.config.Host),
		zap.Int("port", tc.config.Port),
		zap.Bool("ssl", tc.config.SSL),
	)

	dialer := &net.Dialer{
		Timeout:   tc.config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	address := fmt.Sprintf("%s:%d", tc.config.Host, tc.config.Port)

	var conn net.Conn
	var err error

	if tc.config.SSL {
		tlsConfig := &tls.Config{
			ServerName: tc.config.Host,
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", address, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}

	if err != nil {
		tc.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok && tc.config.KeepAlive {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.IsConnected = true
	tc.stats.LastActivity = time.Now()

	tc.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	if err := tc.conn.Close(); err != nil {
		tc.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.conn = nil
	tc.isOpen = false
	tc.stats.IsConnected = false

	tc.logger.Info("TCP connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes a command stream to the printer
func (tc *TCPConnection) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return fmt.Errorf("TCP connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if tc.config.WriteTimeout > 0 {
		tc.conn.SetWriteDeadline(time.Now().Add(tc.config.WriteTimeout))
	}

	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.ErrorCount++
		tc.logger.Error("TCP write failed", zap.Error(err))
		return fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	tc.stats.BytesWritten += int64(len(data))
	tc.stats.OperationCount++
	tc.stats.LastActivity = time.Now()

	tc.logger.Debug("TCP write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads a printer response
func (tc *TCPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, fmt.Errorf("TCP connection not open")
	}

	if tc.config.ReadTimeout > 0 {
		tc.conn.SetReadDeadline(time.Now().Add(tc.config.ReadTimeout))
	}

	buffer := make([]byte, maxBytes)

	done := make(chan struct {
		data []byte
		err  error
	}, 1)

	go func() {
		n, err := tc.conn.Read(buffer)
		result := struct {
			data []byte
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from TCP connection: %w", err)
		} else {
			result.data = make([]byte, n)
			copy(result.data, buffer[:n])
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			tc.stats.ErrorCount++
			return nil, result.err
		}

		tc.stats.BytesRead += int64(len(result.data))
		tc.stats.OperationCount++
		tc.stats.LastActivity = time.Now()

		return result.data, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProtocolType returns the protocol type
func (tc *TCPConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Describe returns a human-readable endpoint description
func (tc *TCPConnection) Describe() string {
	return fmt.Sprintf("tcp %s:%d", tc.config.Host, tc.config.Port)
}

// Stats returns a snapshot of the channel counters
func (tc *TCPConnection) Stats() ProtocolStats {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return *tc.stats
}

// Ping tests the connection with a real-time status request
func (tc *TCPConnection) Ping(ctx context.Context) error {
	if !tc.IsOpen() {
		return fmt.Errorf("TCP connection not open")
	}
	return tc.Write(ctx, statusRequest)
}
