// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package api provides the HTTP surface of the collector: the collect
// endpoint, the dashboard, raw export, and health probes, routed with
// Chi.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/greglas75/prefetch/internal/config"
	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/session"
)

// EventLog is the durable sink and source for full telemetry events.
type EventLog interface {
	Append(payload []byte) error
	AppendWait(ctx context.Context, payload []byte) error
	Sync(ctx context.Context) error
	ReadAll() ([]byte, error)
}

// HeartbeatSink receives heartbeat lines for batched persistence.
type HeartbeatSink interface {
	Push(payload []byte)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	cfg        *config.Config
	events     EventLog
	heartbeats HeartbeatSink
	aggregator *session.Aggregator
	startedAt  time.Time
}

// NewHandler wires the endpoints to their collaborators.
func NewHandler(cfg *config.Config, events EventLog, heartbeats HeartbeatSink, agg *session.Aggregator) *Handler {
	return &Handler{
		cfg:        cfg,
		events:     events,
		heartbeats: heartbeats,
		aggregator: agg,
		startedAt:  time.Now(),
	}
}

// clientIP returns the client address the way the collector has always
// recorded it: the full X-Forwarded-For value when present, otherwise
// the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx > 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

// NotFound answers everything outside the known routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	logging.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Unknown route")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not found"))
}
