package model

// Config represents the root structure loaded from an optional YAML file.
// Every field has a default (see config.Default), so an empty file is valid.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Log    LogConfig    `yaml:"log"`
	HTTP   HTTPConfig   `yaml:"http"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Influx InfluxConfig `yaml:"influx"`
}

// SerialConfig selects and opens the telemetry port.
type SerialConfig struct {
	Port          string `yaml:"port"`            // explicit device path; empty means auto-discover
	Marker        string `yaml:"marker"`          // substring of the port description (e.g. "JLink")
	Baud          int    `yaml:"baud"`            // default 115200
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // bounded read, default 1000
}

// LogConfig defines where the CSV reading log is written.
type LogConfig struct {
	Dir string `yaml:"dir"`
}

// HTTPConfig defines the optional status/metrics/websocket server. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MQTTConfig enables publishing every reading to a broker. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxConfig enables writing every reading to InfluxDB v2. Empty URL disables it.
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}
