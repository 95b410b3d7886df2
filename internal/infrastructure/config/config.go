package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a thing node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Link     LinkConfig     `yaml:"link"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Topics   TopicsConfig   `yaml:"topics"`
	Loop     LoopConfig     `yaml:"loop"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig controls how the device identity is derived.
type DeviceConfig struct {
	// Interface is the network interface whose hardware address becomes the
	// device id. Empty selects the first non-loopback interface.
	Interface string `yaml:"interface"`

	// ID overrides the derived device id (12 lowercase hex characters).
	ID string `yaml:"id"`
}

// LinkConfig contains network link (WiFi station) settings.
type LinkConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`

	// Interface is the station interface polled for connectivity.
	Interface string `yaml:"interface"`

	// JoinCommand is an optional command run once to associate the station.
	// {ssid}, {password} and {interface} are substituted.
	JoinCommand []string `yaml:"join_command"`

	MaxAttempts  int `yaml:"max_attempts"`
	RetryDelayMs int `yaml:"retry_delay_ms"`

	// AbortOnTimeout stops startup when the link cannot be established.
	// The default keeps running and lets the broker session retry.
	AbortOnTimeout bool `yaml:"abort_on_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// KeepAlive is the MQTT keepalive in seconds.
	KeepAlive int `yaml:"keep_alive"`

	// InboxSize bounds the number of inbound messages buffered between pumps.
	InboxSize int `yaml:"inbox_size"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// The client id is always the device id and is not configurable.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// MinIntervalMs is the minimum time between two connect attempts.
	MinIntervalMs int `yaml:"min_interval_ms"`

	// ConnectTimeout is the per-attempt timeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
}

// TopicsConfig sizes the topic registry and the publish buffers.
type TopicsConfig struct {
	Capacity          int `yaml:"capacity"`
	TopicBufferSize   int `yaml:"topic_buffer_size"`
	PayloadBufferSize int `yaml:"payload_buffer_size"`
}

// LoopConfig controls the maintenance loop.
type LoopConfig struct {
	// IntervalMs is how often the broker session is maintained.
	IntervalMs int `yaml:"interval_ms"`

	// HeartbeatInterval is how often uptime is published, in seconds. 0 disables it.
	HeartbeatInterval int `yaml:"heartbeat_interval"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: THING_SECTION_KEY
// For example: THING_WIFI_SSID, THING_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := Default()

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

// Default returns a Config populated with the values the firmware was built with.
func Default() *Config {
	return &Config{
		Link: LinkConfig{
			Interface:    "wlan0",
			MaxAttempts:  21,
			RetryDelayMs: 500,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "automation.local",
				Port: 1883,
			},
			Reconnect: MQTTReconnectConfig{
				MinIntervalMs:  5000,
				ConnectTimeout: 5,
			},
			KeepAlive: 15,
			InboxSize: 64,
		},
		Topics: TopicsConfig{
			Capacity:          16,
			TopicBufferSize:   32,
			PayloadBufferSize: 32,
		},
		Loop: LoopConfig{
			IntervalMs:        100,
			HeartbeatInterval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/thing.log",
				MaxSize:    5,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets are expected to arrive this way rather than through the file.
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("THING_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Link
	if v := os.Getenv("THING_WIFI_SSID"); v != "" {
		cfg.Link.SSID = v
	}
	if v := os.Getenv("THING_WIFI_PASSWORD"); v != "" {
		cfg.Link.Password = v
	}

	// MQTT
	if v := os.Getenv("THING_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("THING_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("THING_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("THING_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("THING_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// minTopicBufferSize leaves room for "/" + 12 hex chars + "/" + one suffix byte + terminator.
const minTopicBufferSize = 16

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Link validation
	if c.Link.MaxAttempts < 1 {
		errs = append(errs, "link.max_attempts must be at least 1")
	}
	if c.Link.RetryDelayMs < 1 {
		errs = append(errs, "link.retry_delay_ms must be at least 1")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Reconnect.MinIntervalMs < 1 {
		errs = append(errs, "mqtt.reconnect.min_interval_ms must be at least 1")
	}
	if c.MQTT.InboxSize < 1 {
		errs = append(errs, "mqtt.inbox_size must be at least 1")
	}

	// Topic validation
	if c.Topics.Capacity < 1 {
		errs = append(errs, "topics.capacity must be at least 1")
	}
	if c.Topics.TopicBufferSize < minTopicBufferSize {
		errs = append(errs, fmt.Sprintf("topics.topic_buffer_size must be at least %d", minTopicBufferSize))
	}
	if c.Topics.PayloadBufferSize < 2 {
		errs = append(errs, "topics.payload_buffer_size must be at least 2")
	}

	// Loop validation
	if c.Loop.IntervalMs < 1 {
		errs = append(errs, "loop.interval_ms must be at least 1")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// Logging validation
	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RetryDelay returns the link poll delay as a Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Link.RetryDelayMs) * time.Millisecond
}

// MinReconnectInterval returns the broker reconnect rate limit as a Duration.
func (c *Config) MinReconnectInterval() time.Duration {
	return time.Duration(c.MQTT.Reconnect.MinIntervalMs) * time.Millisecond
}

// LoopInterval returns the maintenance loop interval as a Duration.
func (c *Config) LoopInterval() time.Duration {
	return time.Duration(c.Loop.IntervalMs) * time.Millisecond
}

// HeartbeatInterval returns the uptime publish interval as a Duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Loop.HeartbeatInterval) * time.Second
}
