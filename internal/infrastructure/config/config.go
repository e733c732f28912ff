package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the detector agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Registry RegistryConfig `yaml:"registry"`
	Control  ControlConfig  `yaml:"control"`
	Loop     LoopConfig     `yaml:"loop"`
	Sensors  SensorsConfig  `yaml:"sensors"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig describes how the detector identifies itself to the registry.
type DeviceConfig struct {
	// Interface is the network interface whose hardware and IPv4 address
	// form the device identity (e.g., "wlan0").
	Interface string `yaml:"interface"`

	// MACAddress overrides the hardware address read from the interface.
	// Format: "AA:BB:CC:DD:EE:FF"
	MACAddress string `yaml:"mac_address,omitempty"`

	// IPv4 overrides the network address read from the interface.
	IPv4 string `yaml:"ipv4,omitempty"`
}

// RegistryConfig contains the remote registry and collector settings.
type RegistryConfig struct {
	// BaseURL is the registry root, e.g. "http://192.168.1.10:8080".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every registry HTTP call (lookup, registration, upload).
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// ControlConfig contains the local control surface settings.
type ControlConfig struct {
	Host     string               `yaml:"host"`
	Port     int                  `yaml:"port"`
	Timeouts ControlTimeoutConfig `yaml:"timeouts"`

	// ServiceTimeout is how long an update may wait for the main loop to
	// pick it up before the handler answers 503. It must outlast the
	// warm-up delay so updates sent during boot are still applied.
	ServiceTimeout time.Duration `yaml:"service_timeout"`
}

// ControlTimeoutConfig contains HTTP timeout settings (seconds).
type ControlTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoopConfig contains the main loop cadence.
type LoopConfig struct {
	// Interval is the fixed sleep between cycles. Default: 3s
	Interval time.Duration `yaml:"interval"`

	// WarmUp is the one-off delay after boot that lets the gas sensors
	// stabilise before the first cycle. Default: 20s
	WarmUp time.Duration `yaml:"warm_up"`

	// ConnectPoll is how often boot re-checks the link while waiting
	// for connectivity. Default: 500ms
	ConnectPoll time.Duration `yaml:"connect_poll"`
}

// SensorsConfig contains peripheral access paths.
type SensorsConfig struct {
	DHT11 DHTConfig `yaml:"dht11"`
	DHT22 DHTConfig `yaml:"dht22"`
	Gas   GasConfig `yaml:"gas"`
}

// DHTConfig locates a humidity/temperature sensor exposed by the Linux
// dht11 IIO driver.
type DHTConfig struct {
	// Device is the IIO device directory, e.g. "/sys/bus/iio/devices/iio:device0".
	Device string `yaml:"device"`

	// SettleDelay overrides the model's minimum sampling period.
	// Zero keeps the model default (DHT-11: 1s, DHT-22: 2s).
	SettleDelay time.Duration `yaml:"settle_delay,omitempty"`
}

// GasConfig locates the analog input used by the MQ gas sensors.
type GasConfig struct {
	// Channel is the raw IIO voltage file shared by all gas slots,
	// e.g. "/sys/bus/iio/devices/iio:device1/in_voltage0_raw".
	Channel string `yaml:"channel"`

	// MaxRaw is the full-scale raw reading of the converter. Default: 1023
	MaxRaw int `yaml:"max_raw"`

	// Channels optionally gives individual gas slots their own input,
	// keyed by sensor name ("MQ-2", "MQ-5", "MQ-7", "MQ-135").
	// Slots without an entry read Channel.
	Channels map[string]string `yaml:"channels,omitempty"`
}

// MQTTConfig contains MQTT broker connection settings for the telemetry mirror.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings for the telemetry mirror.
type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// DatabaseConfig contains settings for the local dispatch journal (SQLite).
type DatabaseConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Path        string        `yaml:"path"`
	WALMode     bool          `yaml:"wal_mode"`
	BusyTimeout int           `yaml:"busy_timeout"`
	Retention   time.Duration `yaml:"retention"`
}

// MetricsConfig contains the diagnostics listener settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DETECTOR_SECTION_KEY
// For example: DETECTOR_REGISTRY_BASE_URL, DETECTOR_CONTROL_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the reference detector's defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Interface: "wlan0",
		},
		Registry: RegistryConfig{
			Timeout: 10 * time.Second,
		},
		Control: ControlConfig{
			Host: "0.0.0.0",
			Port: 80,
			Timeouts: ControlTimeoutConfig{
				Read:  10,
				Write: 30,
				Idle:  60,
			},
			ServiceTimeout: 25 * time.Second,
		},
		Loop: LoopConfig{
			Interval:    3 * time.Second,
			WarmUp:      20 * time.Second,
			ConnectPoll: 500 * time.Millisecond,
		},
		Sensors: SensorsConfig{
			DHT11: DHTConfig{Device: "/sys/bus/iio/devices/iio:device0"},
			DHT22: DHTConfig{Device: "/sys/bus/iio/devices/iio:device1"},
			Gas: GasConfig{
				Channel: "/sys/bus/iio/devices/iio:device2/in_voltage0_raw",
				MaxRaw:  1023,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-detector",
			},
			QoS:         1,
			TopicPrefix: "graylogic/detector",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/detector.db",
			WALMode:     true,
			BusyTimeout: 5,
			Retention:   7 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 9100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DETECTOR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("DETECTOR_DEVICE_INTERFACE"); v != "" {
		cfg.Device.Interface = v
	}
	if v := os.Getenv("DETECTOR_DEVICE_MAC_ADDRESS"); v != "" {
		cfg.Device.MACAddress = v
	}

	// Registry
	if v := os.Getenv("DETECTOR_REGISTRY_BASE_URL"); v != "" {
		cfg.Registry.BaseURL = v
	}

	// Control
	if v := os.Getenv("DETECTOR_CONTROL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Control.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("DETECTOR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DETECTOR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DETECTOR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("DETECTOR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Database
	if v := os.Getenv("DETECTOR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Registry validation
	if c.Registry.BaseURL == "" {
		errs = append(errs, "registry.base_url is required (set DETECTOR_REGISTRY_BASE_URL environment variable)")
	} else if u, err := url.Parse(c.Registry.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "registry.base_url must be an absolute http(s) URL")
	}
	if c.Registry.Timeout <= 0 {
		errs = append(errs, "registry.timeout must be positive")
	}

	// Device validation
	// Without an interface there is nothing to observe, so the identity
	// must be given in full.
	if c.Device.Interface == "" && (c.Device.MACAddress == "" || c.Device.IPv4 == "") {
		errs = append(errs, "device.interface is required unless both device.mac_address and device.ipv4 are set")
	}

	// Control validation
	if c.Control.Port < 1 || c.Control.Port > 65535 {
		errs = append(errs, "control.port must be between 1 and 65535")
	}
	if c.Control.ServiceTimeout <= 0 {
		errs = append(errs, "control.service_timeout must be positive")
	}

	// Loop validation
	if c.Loop.Interval <= 0 {
		errs = append(errs, "loop.interval must be positive")
	}
	if c.Loop.WarmUp < 0 {
		errs = append(errs, "loop.warm_up cannot be negative")
	}

	// Sensors validation
	if c.Sensors.Gas.MaxRaw <= 0 {
		errs = append(errs, "sensors.gas.max_raw must be positive")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	// Metrics validation
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs = append(errs, "metrics.port must be between 1 and 65535")
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Control.Port {
		errs = append(errs, "metrics.port must differ from control.port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the control read timeout as a Duration.
func (t ControlTimeoutConfig) ReadTimeout() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteTimeout returns the control write timeout as a Duration.
func (t ControlTimeoutConfig) WriteTimeout() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleTimeout returns the control idle timeout as a Duration.
func (t ControlTimeoutConfig) IdleTimeout() time.Duration {
	return time.Duration(t.Idle) * time.Second
}
