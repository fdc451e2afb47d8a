// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package config holds the runtime configuration for the Prefetch
// collector, loaded from defaults, an optional YAML file, and
// environment variables in that order of precedence.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server" validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry" validate:"required"`
	Heartbeat HeartbeatConfig `koanf:"heartbeat" validate:"required"`
	Security  SecurityConfig  `koanf:"security" validate:"required"`
	Logging   LoggingConfig   `koanf:"logging" validate:"required"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s,max=5m"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s,max=5m"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s,max=5m"`
	MaxHeaderBytes  int           `koanf:"max_header_bytes" validate:"min=1024"`
}

// TelemetryConfig controls the durable event and heartbeat logs.
type TelemetryConfig struct {
	// DataDir is where the NDJSON logs live.
	DataDir string `koanf:"data_dir" validate:"required"`

	// EventLog and HeartbeatLog are file names inside DataDir.
	EventLog     string `koanf:"event_log" validate:"required"`
	HeartbeatLog string `koanf:"heartbeat_log" validate:"required"`

	// Durability selects how full events are acknowledged:
	// "best-effort" responds as soon as the event is queued,
	// "acknowledged" waits until it reaches the file.
	Durability string `koanf:"durability" validate:"oneof=best-effort acknowledged"`

	// MaxBodyBytes caps the request body accepted on the collect
	// endpoint.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=1024"`

	// QueueSize bounds each journal's writer queue.
	QueueSize int `koanf:"queue_size" validate:"min=16,max=1000000"`
}

// HeartbeatConfig controls the in-memory heartbeat batcher.
type HeartbeatConfig struct {
	FlushInterval  time.Duration `koanf:"flush_interval" validate:"min=100ms,max=1m"`
	Capacity       int           `koanf:"capacity" validate:"min=16,max=10000000"`
	OverflowPolicy string        `koanf:"overflow_policy" validate:"oneof=drop-oldest reject"`
}

// SecurityConfig controls CORS and rate limiting. The collector sits
// behind arbitrary third-party pages, so CORS defaults to permissive.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins" validate:"min=1"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	RateLimitWrite    int           `koanf:"rate_limit_write" validate:"min=1,max=100000"`
	RateLimitRead     int           `koanf:"rate_limit_read" validate:"min=1,max=100000"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=1s,max=1h"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EventLogPath returns the absolute-or-relative path to the event log.
func (c *Config) EventLogPath() string {
	return filepath.Join(c.Telemetry.DataDir, c.Telemetry.EventLog)
}

// HeartbeatLogPath returns the path to the heartbeat log.
func (c *Config) HeartbeatLogPath() string {
	return filepath.Join(c.Telemetry.DataDir, c.Telemetry.HeartbeatLog)
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Acknowledged reports whether full events wait for the disk write
// before the HTTP response is sent.
func (c *Config) Acknowledged() bool {
	return c.Telemetry.Durability == "acknowledged"
}

// Validate checks the configuration against the struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Telemetry.EventLog == c.Telemetry.HeartbeatLog {
		return fmt.Errorf("TELEMETRY_EVENT_LOG and TELEMETRY_HEARTBEAT_LOG must differ")
	}
	return nil
}
