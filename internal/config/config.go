// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Printer    PrinterConfig    `mapstructure:"printer"`
	Capability CapabilityConfig `mapstructure:"capability"`
	Security   SecurityConfig   `mapstructure:"security"`
	App        AppConfig        `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig represents the physical printer configuration
type PrinterConfig struct {
	ConnectionType string           `mapstructure:"connection_type"`
	Serial         SerialPortConfig `mapstructure:"serial"`
	USB            USBPortConfig    `mapstructure:"usb"`
	TCP            TCPPortConfig    `mapstructure:"tcp"`
	ConnectTimeout time.Duration    `mapstructure:"connect_timeout"`
	PollInterval   time.Duration    `mapstructure:"poll_interval"`
	BatchDelay     time.Duration    `mapstructure:"batch_delay"`
	SessionPath    string           `mapstructure:"session_path"`
	PaperWidth     int              `mapstructure:"paper_width"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	Port     string        `mapstructure:"port"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	StopBits int           `mapstructure:"stop_bits"`
	Parity   string        `mapstructure:"parity"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// USBPortConfig represents USB configuration
type USBPortConfig struct {
	VendorID  string        `mapstructure:"vendor_id"`
	ProductID string        `mapstructure:"product_id"`
	Endpoint  int           `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// TCPPortConfig represents TCP configuration
type TCPPortConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	SSL          bool          `mapstructure:"ssl"`
	KeepAlive    bool          `mapstructure:"keep_alive"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CapabilityConfig represents environment capability overrides. Empty
// values mean "detect from the host".
type CapabilityConfig struct {
	DirectTransport *bool `mapstructure:"direct_transport"`
	Mobile          *bool `mapstructure:"mobile"`
	Hosted          bool  `mapstructure:"hosted"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.SetEnvPrefix("PRINT_SERVICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file; a missing file is fine, defaults apply
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8090")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Printer defaults
	viper.SetDefault("printer.connection_type", "SERIAL")
	viper.SetDefault("printer.connect_timeout", "15s")
	viper.SetDefault("printer.poll_interval", "5s")
	viper.SetDefault("printer.batch_delay", "5s")
	viper.SetDefault("printer.session_path", "./data/printer-session.json")
	viper.SetDefault("printer.paper_width", 32)

	viper.SetDefault("printer.serial.baud_rate", 9600)
	viper.SetDefault("printer.serial.data_bits", 8)
	viper.SetDefault("printer.serial.stop_bits", 1)
	viper.SetDefault("printer.serial.parity", "none")
	viper.SetDefault("printer.serial.timeout", "5s")

	viper.SetDefault("printer.usb.endpoint", 1)
	viper.SetDefault("printer.usb.timeout", "5s")

	viper.SetDefault("printer.tcp.port", 9100)
	viper.SetDefault("printer.tcp.keep_alive", true)
	viper.SetDefault("printer.tcp.timeout", "10s")
	viper.SetDefault("printer.tcp.read_timeout", "30s")
	viper.SetDefault("printer.tcp.write_timeout", "30s")

	// Capability defaults
	viper.SetDefault("capability.hosted", false)

	// App defaults
	viper.SetDefault("app.name", "print-service")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	validTypes := []string{"SERIAL", "USB", "TCP"}
	isValidType := false
	for _, t := range validTypes {
		if config.Printer.ConnectionType == t {
			isValidType = true
			break
		}
	}
	if !isValidType {
		return fmt.Errorf("printer.connection_type must be one of: %v", validTypes)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if config.Printer.BatchDelay < 0 {
		return fmt.Errorf("printer.batch_delay must not be negative")
	}

	return nil
}

// ConnectionParams returns the configured connection parameters for the
// active connection type, in the map form the protocol factory and the
// session file share.
func (p *PrinterConfig) ConnectionParams() map[string]interface{} {
	switch p.ConnectionType {
	case "USB":
		return map[string]interface{}{
			"vendor_id":  p.USB.VendorID,
			"product_id": p.USB.ProductID,
			"endpoint":   p.USB.Endpoint,
			"timeout":    p.USB.Timeout.String(),
		}
	case "TCP":
		return map[string]interface{}{
			"host":          p.TCP.Host,
			"port":          p.TCP.Port,
			"ssl":           p.TCP.SSL,
			"keep_alive":    p.TCP.KeepAlive,
			"timeout":       p.TCP.Timeout.String(),
			"read_timeout":  p.TCP.ReadTimeout.String(),
			"write_timeout": p.TCP.WriteTimeout.String(),
		}
	default:
		return map[string]interface{}{
			"port":      p.Serial.Port,
			"baud_rate": p.Serial.BaudRate,
			"data_bits": p.Serial.DataBits,
			"stop_bits": p.Serial.StopBits,
			"parity":    p.Serial.Parity,
			"timeout":   p.Serial.Timeout.String(),
		}
	}
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
