// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package models defines the wire schema shared between the ingestion
// endpoint, the durable logs, and the session aggregator.
//
// Client payloads are loosely validated by design: the only structural
// requirement at ingestion time is "a JSON object". The types here are the
// read-side view of that data. Fields a client never sent unmarshal to their
// zero values, and fields with flexible JS-origin typing (booleans sent as
// numbers, step identifiers sent as numbers or strings) use the Flag and
// StepValue adapter types so one sloppy field does not discard a whole
// record from aggregation.
package models

import (
	"github.com/goccy/go-json"
)

// HeartbeatMarker is the value of the "t" field that discriminates a
// heartbeat submission from a full telemetry event.
const HeartbeatMarker = "hb"

// TelemetryRecord is a full page-lifecycle event as read back from the
// durable event log. The first record of a session is authoritative for the
// load-time snapshot fields (visibility, focus, navigation type, viewport);
// the last record is authoritative for the cumulative interaction fields.
type TelemetryRecord struct {
	SessionID         string             `json:"session_id"`
	SendTrigger       string             `json:"send_trigger"`
	VisibilityOnLoad  string             `json:"visibility_on_load"`
	HasFocusOnLoad    Flag               `json:"has_focus_on_load"`
	IsFacebookWebview Flag               `json:"is_facebook_webview"`
	HadAnyInteraction Flag               `json:"had_any_interaction"`
	TotalClicks       int64              `json:"total_clicks"`
	TotalTouches      int64              `json:"total_touches"`
	StepsReached      []StepValue        `json:"steps_reached"`
	ScreenDurationsMS map[string]float64 `json:"screen_durations_ms"`
	ScreenTimeCurrent *CurrentScreenTime `json:"screen_time_current_ms"`
	NavigationType    string             `json:"navigation_type"`
	ViewportW         int64              `json:"viewport_w"`
	ViewportH         int64              `json:"viewport_h"`

	// Server is the enrichment block attached at ingestion time.
	// It is never sent by the client; the endpoint overwrites it.
	Server *ServerMeta `json:"_server"`

	// PrefetchSignals is the normalized prefetch-indicator header block,
	// also attached server-side.
	PrefetchSignals *PrefetchSignals `json:"_prefetch_headers"`
}

// CurrentScreenTime describes the step currently in progress when the client
// sent the record. When merged for display it supersedes a finalized entry
// for the same step.
type CurrentScreenTime struct {
	Step      StepValue `json:"step"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// ServerMeta is the server-observed metadata attached to every accepted full
// event: receipt timestamp (RFC 3339), resolved remote IP, and the complete
// inbound header set.
type ServerMeta struct {
	ReceivedAt string              `json:"received_at"`
	RemoteIP   string              `json:"remote_ip"`
	Headers    map[string][]string `json:"headers"`
}

// PrefetchSignals is the fixed set of known prefetch/preload indicator
// headers, each present-or-null. A nil pointer means the header was absent
// on the inbound request.
type PrefetchSignals struct {
	Purpose           *string `json:"purpose"`
	SecPurpose        *string `json:"sec_purpose"`
	XPurpose          *string `json:"x_purpose"`
	XMoz              *string `json:"x_moz"`
	XFBHTTPEngine     *string `json:"x_fb_http_engine"`
	XFBConnectionType *string `json:"x_fb_connection_type"`
}

// Flag is a JS-truthiness boolean. Clients written against a dynamically
// typed runtime report booleans inconsistently: true/false, 0/1, or a
// non-empty string. Flag accepts all of them, mirroring the truthiness rules
// the reporting script relies on (empty string, 0, null, and false are
// falsy; everything else is truthy).
type Flag bool

// UnmarshalJSON implements json.Unmarshaler with JS truthiness semantics.
func (f *Flag) UnmarshalJSON(b []byte) error {
	switch {
	case len(b) == 0:
		*f = false
	case b[0] == 't':
		*f = true
	case b[0] == 'f', b[0] == 'n': // false, null
		*f = false
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = s != ""
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// MarshalJSON renders the flag as a plain boolean.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// Bool returns the flag as a plain bool.
func (f Flag) Bool() bool { return bool(f) }

// StepValue is a step identifier that clients send either as a JSON number
// or as a string. It normalizes both to the string form used for display
// and for matching against screen_durations_ms keys.
type StepValue string

// UnmarshalJSON accepts both string and numeric step identifiers.
func (s *StepValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = StepValue(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = StepValue(n.String())
	return nil
}

// MarshalJSON renders the step as a string.
func (s StepValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s StepValue) String() string { return string(s) }
