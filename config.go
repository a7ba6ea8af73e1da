package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Splat      SplatConfig      `yaml:"splat"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Listen string `yaml:"listen"` // host:port for the HTTP API (default :8090)
}

// SplatConfig contains settings for the SPLAT! binary and its databases
type SplatConfig struct {
	BinaryPath     string  `yaml:"binary_path"`     // splat binary (default: "splat" on PATH)
	TerrainDir     string  `yaml:"terrain_dir"`     // terrain elevation database directory (required)
	CitiesFile     string  `yaml:"cities_file"`     // city/obstruction database file (required)
	TimeoutSeconds float64 `yaml:"timeout_seconds"` // per-run wall-clock budget (required; scales with terrain volume)
	Workers        int     `yaml:"workers"`         // concurrent splat runs for batch jobs (default 4)
	WorkRoot       string  `yaml:"work_root"`       // base directory for run workspaces (default: system temp)
}

// Timeout returns the per-run budget as a duration
func (sc *SplatConfig) Timeout() time.Duration {
	return time.Duration(sc.TimeoutSeconds * float64(time.Second))
}

// MQTTConfig contains MQTT broker settings for result publishing
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // e.g. tcp://localhost:1883
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// PrometheusConfig controls the /metrics endpoint
type PrometheusConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig reads and validates the YAML configuration file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks required settings and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8090"
	}
	if c.Splat.TerrainDir == "" {
		return fmt.Errorf("splat.terrain_dir is required")
	}
	if c.Splat.CitiesFile == "" {
		return fmt.Errorf("splat.cities_file is required")
	}
	// No silent default: splat run time depends on the terrain database
	// size, so operators must choose the budget for their data.
	if c.Splat.TimeoutSeconds <= 0 {
		return fmt.Errorf("splat.timeout_seconds is required and must be positive")
	}
	if c.Splat.Workers <= 0 {
		c.Splat.Workers = 4
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when MQTT is enabled")
		}
		if c.MQTT.TopicPrefix == "" {
			c.MQTT.TopicPrefix = "splatlink"
		}
	}
	return nil
}
