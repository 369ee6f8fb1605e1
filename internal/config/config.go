package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Device  DeviceConfig  `mapstructure:"device" yaml:"device"`
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	MQTT    MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Internal viper instance
	v *viper.Viper
}

// DeviceConfig selects and tunes the instrument driver
type DeviceConfig struct {
	Driver       string `mapstructure:"driver" yaml:"driver"`
	SerialNumber string `mapstructure:"serial_number" yaml:"serial_number"`
	PollInterval int    `mapstructure:"poll_interval" yaml:"poll_interval"` // milliseconds
}

// Poll returns the validated polling interval.
func (d DeviceConfig) Poll() time.Duration {
	return time.Duration(ValidatePollInterval(d.PollInterval)) * time.Millisecond
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"`
	RateLimit     int    `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute per IP
	Advertise     bool   `mapstructure:"advertise" yaml:"advertise"`
}

// MQTTConfig represents the MQTT bridge configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker      string `mapstructure:"broker" yaml:"broker"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	Username    string `mapstructure:"username" yaml:"username,omitempty"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`
	TopicPrefix string `mapstructure:"topic_prefix" yaml:"topic_prefix"`
	QoS         int    `mapstructure:"qos" yaml:"qos"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// FlagKeys maps daemon command-line flags to configuration keys.
var FlagKeys = map[string]string{
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"driver":        "device.driver",
	"serial":        "device.serial_number",
	"poll-interval": "device.poll_interval",
	"listen":        "api.listen_address",
	"advertise":     "api.advertise",
	"mqtt":          "mqtt.enabled",
	"mqtt-broker":   "mqtt.broker",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.driver", DriverSimulator)
	v.SetDefault("device.serial_number", "")
	v.SetDefault("device.poll_interval", int(DefaultPollInterval/time.Millisecond))
	v.SetDefault("api.listen_address", DefaultAPIListenAddress)
	v.SetDefault("api.rate_limit", DefaultRateLimit)
	v.SetDefault("api.advertise", false)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", DefaultMQTTBroker)
	v.SetDefault("mqtt.client_id", DefaultMQTTClientID)
	v.SetDefault("mqtt.topic_prefix", DefaultMQTTTopicPrefix)
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
}

// New wraps an existing viper instance, applying defaults.
func New(v *viper.Viper) *Config {
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		slog.Warn("config: decode failed, using defaults", "error", err)
		cfg = &Config{v: v}
	}
	return cfg
}

// Load loads configuration from a file and environment variables
func Load(configName, configFile string) (*Config, error) {
	return LoadWithFlags(configName, configFile, nil)
}

// LoadWithFlags is Load with command-line flags bound on top; a flag that
// was set takes precedence over the file and the environment.
func LoadWithFlags(configName, configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configPath := GetConfigPath(configName)
		v.SetConfigFile(configPath)

		if err := os.MkdirAll(GetConfigBaseDir(), 0755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	} else {
		slog.Info("Using config file", "path", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range FlagKeys {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", flag, err)
				}
			}
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Device.PollInterval = ValidatePollInterval(cfg.Device.PollInterval)
	return cfg, nil
}

// Path returns the config file backing this configuration.
func (c *Config) Path() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Save writes the configuration to its config file.
func (c *Config) Save() error {
	path := c.Path()
	if path == "" {
		path = GetDaemonConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	for key, value := range map[string]any{
		"device.driver":        c.Device.Driver,
		"device.serial_number": c.Device.SerialNumber,
		"device.poll_interval": c.Device.PollInterval,
		"api.listen_address":   c.API.ListenAddress,
		"api.rate_limit":       c.API.RateLimit,
		"api.advertise":        c.API.Advertise,
		"mqtt.enabled":         c.MQTT.Enabled,
		"mqtt.broker":          c.MQTT.Broker,
		"mqtt.client_id":       c.MQTT.ClientID,
		"mqtt.username":        c.MQTT.Username,
		"mqtt.password":        c.MQTT.Password,
		"mqtt.topic_prefix":    c.MQTT.TopicPrefix,
		"mqtt.qos":             c.MQTT.QoS,
		"logging.level":        c.Logging.Level,
		"logging.format":       c.Logging.Format,
	} {
		c.v.Set(key, value)
	}

	if err := c.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) any {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// Set sets a value in the configuration
func (c *Config) Set(key string, value any) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
}

// Watch re-reads the config file whenever it changes and passes the new
// configuration to onChange. Decode failures are logged and skipped.
func (c *Config) Watch(onChange func(*Config)) {
	if c.v == nil {
		return
	}
	var mu sync.Mutex
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		next, err := decode(c.v)
		if err != nil {
			slog.Warn("config: reload failed", "path", e.Name, "error", err)
			return
		}
		slog.Info("config: reloaded", "path", e.Name)
		onChange(next)
	})
	c.v.WatchConfig()
}
