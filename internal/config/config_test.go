// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}

	if cfg.Server.Port != 4567 {
		t.Errorf("Port = %d, want 4567", cfg.Server.Port)
	}
	if cfg.Heartbeat.FlushInterval != 2*time.Second {
		t.Errorf("FlushInterval = %v, want 2s", cfg.Heartbeat.FlushInterval)
	}
	if cfg.Telemetry.EventLog != "collected_data.jsonl" {
		t.Errorf("EventLog = %q", cfg.Telemetry.EventLog)
	}
	if cfg.Telemetry.HeartbeatLog != "heartbeats.jsonl" {
		t.Errorf("HeartbeatLog = %q", cfg.Telemetry.HeartbeatLog)
	}
	if cfg.Telemetry.Durability != "best-effort" {
		t.Errorf("Durability = %q", cfg.Telemetry.Durability)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
}

func TestLogPaths(t *testing.T) {
	cfg := defaultConfig()
	cfg.Telemetry.DataDir = "/data"

	if got := cfg.EventLogPath(); got != filepath.Join("/data", "collected_data.jsonl") {
		t.Errorf("EventLogPath = %q", got)
	}
	if got := cfg.HeartbeatLogPath(); got != filepath.Join("/data", "heartbeats.jsonl") {
		t.Errorf("HeartbeatLogPath = %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad durability", func(c *Config) { c.Telemetry.Durability = "eventual" }},
		{"bad overflow policy", func(c *Config) { c.Heartbeat.OverflowPolicy = "newest" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"flush interval too small", func(c *Config) { c.Heartbeat.FlushInterval = time.Millisecond }},
		{"same log files", func(c *Config) { c.Telemetry.HeartbeatLog = c.Telemetry.EventLog }},
		{"empty data dir", func(c *Config) { c.Telemetry.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAcknowledged(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Acknowledged() {
		t.Error("best-effort should not report acknowledged")
	}
	cfg.Telemetry.Durability = "acknowledged"
	if !cfg.Acknowledged() {
		t.Error("acknowledged durability not reported")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"HEARTBEAT_FLUSH_INTERVAL", "heartbeat.flush_interval"},
		{"TELEMETRY_DURABILITY", "telemetry.durability"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""}, // unrelated env noise is dropped
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestListenAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 4567
	if got := cfg.ListenAddr(); got != "127.0.0.1:4567" {
		t.Errorf("ListenAddr = %q", got)
	}
}
