// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"net/http"

	"github.com/greglas75/prefetch/internal/logging"
)

// Export re-emits the raw event log verbatim as a downloadable NDJSON
// file. No parsing, no filtering: offline analysis gets exactly the
// bytes that were persisted.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Sync(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("Event log sync before export failed")
	}

	data, err := h.events.ReadAll()
	if err != nil {
		logging.Error().Err(err).Msg("Export read failed")
		http.Error(w, "event log unreadable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", `attachment; filename="prefetch_data.jsonl"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
