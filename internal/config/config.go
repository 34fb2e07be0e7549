// Package config loads the optional YAML configuration file on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"TempDash/internal/model"
)

const (
	DefaultMarker      = "JLink"
	DefaultBaud        = 115200
	DefaultReadTimeout = time.Second
	DefaultMQTTTopic   = "tempdash/readings"
	DefaultClientID    = "tempdash"
	DefaultMeasurement = "temperature"
)

// Default returns a configuration that runs without any file:
// auto-discovery of a J-Link port, CSV log in the working directory, no optional outputs.
func Default() *model.Config {
	return &model.Config{
		Serial: model.SerialConfig{
			Marker:        DefaultMarker,
			Baud:          DefaultBaud,
			ReadTimeoutMs: int(DefaultReadTimeout / time.Millisecond),
		},
		Log: model.LogConfig{Dir: "."},
		MQTT: model.MQTTConfig{
			ClientID: DefaultClientID,
			Topic:    DefaultMQTTTopic,
		},
		Influx: model.InfluxConfig{Measurement: DefaultMeasurement},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns the defaults.
func Load(path string) (*model.Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the serial layer cannot work with.
func Validate(cfg *model.Config) error {
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeoutMs <= 0 {
		return fmt.Errorf("serial.read_timeout_ms must be positive, got %d", cfg.Serial.ReadTimeoutMs)
	}
	if cfg.Serial.Port == "" && cfg.Serial.Marker == "" {
		return errors.New("either serial.port or serial.marker is required")
	}
	if cfg.Influx.URL != "" && (cfg.Influx.Org == "" || cfg.Influx.Bucket == "") {
		return errors.New("influx.org and influx.bucket are required when influx.url is set")
	}
	if cfg.Influx.URL != "" && cfg.Influx.Measurement == "" {
		return errors.New("influx.measurement must not be empty when influx.url is set")
	}
	if cfg.MQTT.Broker != "" && cfg.MQTT.Topic == "" {
		return errors.New("mqtt.topic is required when mqtt.broker is set")
	}
	return nil
}

// ReadTimeout returns the configured serial read timeout.
func ReadTimeout(cfg *model.Config) time.Duration {
	return time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond
}
