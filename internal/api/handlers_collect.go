// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/metrics"
	"github.com/greglas75/prefetch/internal/models"
)

// prefetchHeaderKeys maps enrichment field names to the request headers
// that betray speculative fetching. Absent headers are recorded as
// explicit nulls so downstream analysis can tell "not sent" from "not
// captured".
var prefetchHeaderKeys = [][2]string{
	{"purpose", "Purpose"},
	{"sec_purpose", "Sec-Purpose"},
	{"x_purpose", "X-Purpose"},
	{"x_moz", "X-Moz"},
	{"x_fb_http_engine", "X-Fb-Http-Engine"},
	{"x_fb_connection_type", "X-Fb-Connection-Type"},
}

// Collect accepts one telemetry submission. Heartbeats are buffered in
// memory and acknowledged with 204 before they hit the disk; full
// events are enriched with server-observed metadata and appended to
// the event log. Client fields are carried through untouched, whatever
// their shape: the submission is handled as a raw JSON object, not a
// fixed schema.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.Telemetry.MaxBodyBytes))
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read collect body")
		respondBadJSON(w)
		return
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		metrics.RecordIngestRejected()
		logging.Warn().
			Err(err).
			Str("remote_ip", clientIP(r)).
			Msg("Rejected malformed submission")
		respondBadJSON(w)
		return
	}

	if data["t"] == models.HeartbeatMarker {
		h.collectHeartbeat(w, r, data)
		return
	}
	h.collectEvent(w, r, data)
}

// collectHeartbeat stamps the heartbeat with the client address and a
// server arrival time, then hands it to the buffer. The 204 goes out
// before any disk I/O happens.
func (h *Handler) collectHeartbeat(w http.ResponseWriter, r *http.Request, data map[string]any) {
	data["_ip"] = clientIP(r)
	data["_at"] = time.Now().UnixMilli()

	line, err := json.Marshal(data)
	if err != nil {
		metrics.RecordIngestRejected()
		respondBadJSON(w)
		return
	}

	h.heartbeats.Push(line)
	metrics.RecordIngest("heartbeat")
	w.WriteHeader(http.StatusNoContent)
}

// collectEvent enriches a full event with the request metadata and the
// prefetch signal headers, then appends it to the event log.
func (h *Handler) collectEvent(w http.ResponseWriter, r *http.Request, data map[string]any) {
	data["_server"] = map[string]any{
		"received_at": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"remote_ip":   clientIP(r),
		"headers":     r.Header,
	}

	signals := make(map[string]any, len(prefetchHeaderKeys))
	for _, k := range prefetchHeaderKeys {
		if v := r.Header.Get(k[1]); v != "" {
			signals[k[0]] = v
		} else {
			signals[k[0]] = nil
		}
	}
	data["_prefetch_headers"] = signals

	line, err := json.Marshal(data)
	if err != nil {
		metrics.RecordIngestRejected()
		respondBadJSON(w)
		return
	}

	if h.cfg.Acknowledged() {
		if err := h.events.AppendWait(r.Context(), line); err != nil {
			logging.Error().Err(err).Msg("Event append failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"storage unavailable"}`))
			return
		}
	} else {
		if err := h.events.Append(line); err != nil {
			// Best-effort mode still acknowledges: the metric and
			// log line are the only record of the loss.
			logging.Error().Err(err).Msg("Event append dropped")
		}
	}

	metrics.RecordIngest("event")
	logging.Info().
		Str("trigger", str(data["send_trigger"])).
		Str("session", str(data["session_id"])).
		Str("visible", str(data["visibility_on_load"])).
		Interface("focus", data["has_focus_on_load"]).
		Interface("fb", data["is_facebook_webview"]).
		Interface("interactions", data["had_any_interaction"]).
		Msg("Event collected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"ok":true}`))
}

func respondBadJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte(`{"error":"bad json"}`))
}

// str renders an arbitrary client value for the diagnostic log line.
func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
