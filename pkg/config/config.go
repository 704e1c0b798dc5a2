// Package config provides unified configuration for the blueprint client,
// CLI and mock backend.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. .env files (.env.local, .env) for variables not already set
//  3. YAML config file (discovered or explicitly specified)
//  4. Legacy environment variables (VITE_API_BASE_URL, VITE_SSE_API_BASE_URL, MOCK_PORT)
//  5. Environment variable overrides (BLUEPRINT_ prefix)
//  6. Validation
package config

import (
	"time"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/stream"
)

// Config holds all configuration for blueprint.
type Config struct {
	Client        ClientConfig        `yaml:"client"`
	Stream        StreamConfig        `yaml:"stream"`
	Mock          MockConfig          `yaml:"mock"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ClientConfig holds settings for talking to the blueprint backend.
type ClientConfig struct {
	BaseURL               string            `yaml:"base_url"`                // default: http://127.0.0.1:5000/api/v1
	SSEBaseURL            string            `yaml:"sse_base_url"`            // default: base_url
	ResponseHeaderTimeout time.Duration     `yaml:"response_header_timeout"` // default: 180s, 0 disables
	Headers               map[string]string `yaml:"headers"`
	User                  api.UserInfo      `yaml:"user"`
}

// StreamConfig holds the wire contract shared by producer and consumer.
type StreamConfig struct {
	Marker   string `yaml:"marker"`    // default: "[[__STREAM_DONE__]]"
	ReadSize int    `yaml:"read_size"` // default: 4096
}

// MockConfig holds settings for the development mock backend.
type MockConfig struct {
	Port       int     `yaml:"port"`        // default: 5000
	Prefix     string  `yaml:"prefix"`      // default: "/api/v1"
	ChunkSize  int     `yaml:"chunk_size"`  // characters per chunk, default: 24
	ChunkRate  float64 `yaml:"chunk_rate"`  // chunks per second, default: 40, 0 = unlimited
	OmitMarker bool    `yaml:"omit_marker"` // close without sending the marker

	// APIKeys, when non-empty, require "Authorization: Bearer <key>" on
	// every streaming endpoint.
	APIKeys   []string `yaml:"api_keys"`
	RateLimit int      `yaml:"rate_limit"` // requests per minute per caller, 0 = unlimited
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Debug string `yaml:"debug"` // comma-separated debug categories
	Level string `yaml:"level"` // default: INFO
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Client: ClientConfig{
			BaseURL:               "http://127.0.0.1:5000/api/v1",
			ResponseHeaderTimeout: 180 * time.Second,
		},
		Stream: StreamConfig{
			Marker:   stream.DefaultSentinel,
			ReadSize: 4096,
		},
		Mock: MockConfig{
			Port:      5000,
			Prefix:    "/api/v1",
			ChunkSize: 24,
			ChunkRate: 40,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
