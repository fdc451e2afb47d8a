// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package session rebuilds per-session state from the event log and
// classifies each session as prefetch traffic, a real user, or unknown.
package session

import (
	"github.com/greglas75/prefetch/internal/models"
)

// Verdict is the classification outcome for one session.
type Verdict int

const (
	// VerdictUnknown means the first event carried no usable
	// visibility signal, so no claim is made either way.
	VerdictUnknown Verdict = iota

	// VerdictPrefetch means the page loaded hidden and nobody ever
	// interacted with it: the hallmark of speculative prefetch.
	VerdictPrefetch

	// VerdictRealUser means the page loaded visible in front of a
	// person.
	VerdictRealUser

	// VerdictRealWasHidden means the page loaded hidden but a person
	// later interacted with it, typically a background tab that got
	// foregrounded.
	VerdictRealWasHidden
)

// Label returns the human-readable verdict shown on the dashboard.
func (v Verdict) Label() string {
	switch v {
	case VerdictPrefetch:
		return "PREFETCH"
	case VerdictRealUser:
		return "REAL USER"
	case VerdictRealWasHidden:
		return "REAL (was hidden)"
	default:
		return "UNKNOWN"
	}
}

// RowClass returns the CSS class used to colour dashboard rows.
func (v Verdict) RowClass() string {
	switch v {
	case VerdictPrefetch:
		return "prefetch"
	case VerdictRealUser, VerdictRealWasHidden:
		return "real"
	default:
		return "unknown"
	}
}

// Classify derives a verdict from the earliest and most recent events of
// a session. The first event fixes how the page loaded; the latest event
// carries the cumulative interaction flag. A visible load with no
// interaction yet stays UNKNOWN, as does any visibility value other than
// "hidden" or "visible".
func Classify(first, latest *models.TelemetryRecord) Verdict {
	if first == nil {
		return VerdictUnknown
	}
	interacted := latest != nil && bool(latest.HadAnyInteraction)
	switch {
	case first.VisibilityOnLoad == "hidden" && !interacted:
		return VerdictPrefetch
	case first.VisibilityOnLoad == "visible" && interacted:
		return VerdictRealUser
	case first.VisibilityOnLoad == "hidden" && interacted:
		return VerdictRealWasHidden
	default:
		return VerdictUnknown
	}
}
