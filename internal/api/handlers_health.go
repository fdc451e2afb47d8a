// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// healthResponse is the body of the health endpoints.
type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// HealthLive reports process liveness. It answers as long as the HTTP
// server is serving at all.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.respondHealth(w, "ok")
}

// HealthReady reports readiness to accept telemetry: the event log must
// be reachable for reads, since both the dashboard and export depend on
// it.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.events.ReadAll(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(healthResponse{
			Status: "event log unreadable",
			Uptime: time.Since(h.startedAt).Round(time.Second).String(),
		})
		return
	}
	h.respondHealth(w, "ok")
}

func (h *Handler) respondHealth(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{
		Status: status,
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	})
}
