package config

import "time"

// Common constants shared between daemon and client
const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "chrolis"

	// DaemonConfigFilename is the base filename for daemon config
	DaemonConfigFilename = "chrolisd.yaml"

	// ClientConfigFilename is the base filename for client config
	ClientConfigFilename = "chrolisctl.yaml"

	// EnvPrefix prefixes environment overrides, e.g. CHROLIS_API_LISTEN_ADDRESS
	EnvPrefix = "CHROLIS"

	// DefaultAPIListenAddress is the default HTTP API listen address
	DefaultAPIListenAddress = "127.0.0.1:9124"

	// DefaultRateLimit is the default per-IP request budget per minute
	DefaultRateLimit = 120

	// ServiceType is the DNS-SD service type advertised by the daemon
	ServiceType = "_chrolisd._tcp"

	// ServiceDomain is the DNS-SD domain
	ServiceDomain = "local."
)

// Drivers
const (
	DriverSimulator = "simulator"
)

// MQTT defaults
const (
	DefaultMQTTBroker      = "tcp://127.0.0.1:1883"
	DefaultMQTTClientID    = "chrolisd"
	DefaultMQTTTopicPrefix = "chrolis"
)

// Default timeouts and intervals
const (
	// DefaultPollInterval is the default hub status polling interval
	DefaultPollInterval = 500 * time.Millisecond

	// MinPollInterval is the minimum allowed polling interval
	MinPollInterval = 50 * time.Millisecond

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultDiscoveryTimeout is how long the client browses for daemons
	DefaultDiscoveryTimeout = 3 * time.Second
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
