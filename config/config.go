package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	NodeID string `yaml:"node_id"`

	Tracking  TrackingConfig  `yaml:"tracking"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
}

// TrackingConfig defines the connection to the remote inference service and
// the tuned streaming constants. The timing values balance inference-service
// load against perceptual responsiveness; they are fixed configuration, not
// derived from observed latency.
type TrackingConfig struct {
	BaseURL   string `yaml:"base_url"    json:"base_url"`
	Mode      string `yaml:"mode"        json:"mode"`
	RobotType string `yaml:"robot_type"  json:"robot_type"`

	FrameInterval   time.Duration `yaml:"frame_interval"    json:"frame_interval"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"   json:"connect_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"  json:"fallback_timeout"`
	HealthTimeout   time.Duration `yaml:"health_timeout"    json:"health_timeout"`
	ValveInterval   time.Duration `yaml:"valve_interval"    json:"valve_interval"`
	MonitorInterval time.Duration `yaml:"monitor_interval"  json:"monitor_interval"`

	MaxInFlight          int           `yaml:"max_in_flight"           json:"max_in_flight"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"  json:"max_reconnect_attempts"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"    json:"reconnect_base_delay"`
	ReconnectDelayCap    time.Duration `yaml:"reconnect_delay_cap"     json:"reconnect_delay_cap"`
}

// WebConfig defines the diagnostics web server settings.
type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MessagingConfig defines the telemetry publishing backend.
type MessagingConfig struct {
	Backend        string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT           MQTTConfig    `yaml:"mqtt"`
	Kafka          KafkaConfig   `yaml:"kafka"`
	TelemetryTopic string        `yaml:"telemetry_topic"`
	ReportInterval time.Duration `yaml:"report_interval"`
	Enabled        bool          `yaml:"enabled"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// Defaults returns a Config with sane defaults. The tracking constants are
// the tuned production values: 15 frames per second, at most 3 frames in
// flight, 5 reconnect attempts with a 2s base delay capped at 10s.
func Defaults() *Config {
	return &Config{
		NodeID: "teleop-edge-1",
		Tracking: TrackingConfig{
			BaseURL:   "http://localhost:8000",
			Mode:      "mediapipe",
			RobotType: "so101",

			FrameInterval:   67 * time.Millisecond,
			ConnectTimeout:  15 * time.Second,
			FallbackTimeout: 10 * time.Second,
			HealthTimeout:   5 * time.Second,
			ValveInterval:   10 * time.Second,
			MonitorInterval: 5 * time.Second,

			MaxInFlight:          3,
			MaxReconnectAttempts: 5,
			ReconnectBaseDelay:   2 * time.Second,
			ReconnectDelayCap:    10 * time.Second,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Messaging: MessagingConfig{
			Backend:        "mqtt",
			TelemetryTopic: "teleop/telemetry",
			ReportInterval: 60 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClientID returns the configured MQTT client ID, or derives one from the
// node ID.
func (c *Config) ClientID() string {
	if c.Messaging.MQTT.ClientID != "" {
		return c.Messaging.MQTT.ClientID
	}
	return "teleopedge-" + c.NodeID
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
