// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/models"
	"github.com/greglas75/prefetch/internal/session"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>Prefetch Detection Dashboard</title>
<style>
  body { font-family: monospace; background: #111; color: #eee; padding: 20px; font-size: 13px; }
  h1 { color: #00ff88; margin-bottom: 4px; }
  .stats { color: #888; margin-bottom: 24px; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 30px; }
  th { background: #222; text-align: left; padding: 8px 10px; color: #00ff88; border-bottom: 2px solid #333; }
  td { padding: 6px 10px; border-bottom: 1px solid #222; }
  .prefetch { background: #3a1111; }
  .real { background: #113a11; }
  .unknown { background: #2a2a11; }
  .tag { display: inline-block; padding: 2px 8px; border-radius: 4px; font-size: 11px; font-weight: bold; }
  .tag-prefetch { background: #ff4444; color: #fff; }
  .tag-real { background: #00cc55; color: #fff; }
  .tag-unknown { background: #ccaa00; color: #000; }
  .tag-fb { background: #1877f2; color: #fff; }
  .detail { color: #888; font-size: 11px; }
  .refresh { color: #00ff88; text-decoration: none; border: 1px solid #00ff88; padding: 6px 16px; display: inline-block; margin-bottom: 20px; }
  .refresh:hover { background: #00ff88; color: #111; }
</style></head><body>
<h1>&#128269; Prefetch Detection Dashboard</h1>
<div class="stats">{{.SessionCount}} unique sessions &middot; {{.EventCount}} total events &middot; Last updated: {{.GeneratedAt}}</div>
<a href="/dashboard" class="refresh">&#8635; Refresh</a>
<table>
<tr>
  <th>Session</th>
  <th>Classification</th>
  <th>Visibility on Load</th>
  <th>Focus on Load</th>
  <th>FB WebView</th>
  <th>Had Interaction</th>
  <th>Steps Reached</th>
  <th>Screen Times</th>
  <th>Nav Type</th>
  <th>Viewport</th>
  <th>First Event</th>
  <th>Events</th>
</tr>
{{range .Rows}}<tr class="{{.RowClass}}">
  <td>{{.SID}}</td>
  <td><span class="tag tag-{{.TagClass}}">{{.Tag}}</span></td>
  <td>{{.Visibility}}</td>
  <td>{{.Focus}}</td>
  <td>{{if .FB}}<span class="tag tag-fb">FB</span>{{else}}-{{end}}</td>
  <td>{{.Interaction}}</td>
  <td>{{.Steps}}</td>
  <td class="detail">{{range $i, $p := .ScreenTimes}}{{if $i}}<br>{{end}}{{$p}}{{end}}</td>
  <td>{{.NavType}}</td>
  <td>{{.Viewport}}</td>
  <td class="detail">{{.FirstSeen}}</td>
  <td class="detail">{{.Triggers}}</td>
</tr>
{{end}}</table></body></html>
`))

// dashboardRow is the display-ready projection of one session.
type dashboardRow struct {
	SID         string
	RowClass    string
	TagClass    string
	Tag         string
	Visibility  string
	Focus       bool
	FB          bool
	Interaction string
	Steps       string
	ScreenTimes []string
	NavType     string
	Viewport    string
	FirstSeen   string
	Triggers    string
}

// dashboardView is the data handed to the template.
type dashboardView struct {
	SessionCount int
	EventCount   int
	GeneratedAt  string
	Rows         []dashboardRow
}

// Dashboard rebuilds the session report from the event log and renders
// it as HTML. Read-path failures degrade to an empty report rather
// than a 5xx: a corrupt or unreadable log must not hide the page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	// Make queued events visible before reading the log back.
	if err := h.events.Sync(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("Event log sync before dashboard failed")
	}

	report, err := h.aggregator.Snapshot()
	if err != nil {
		logging.Error().Err(err).Msg("Session aggregation failed")
		report = &session.Report{GeneratedAt: time.Now()}
	}

	view := dashboardView{
		SessionCount: report.SessionCount,
		EventCount:   report.EventCount,
		GeneratedAt:  report.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Rows:         make([]dashboardRow, 0, len(report.Sessions)),
	}
	for _, sess := range report.Sessions {
		view.Rows = append(view.Rows, buildRow(sess))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := dashboardTmpl.Execute(w, view); err != nil {
		logging.Error().Err(err).Msg("Dashboard render failed")
	}
}

// buildRow projects one session into its table row. Load-time fields
// come from the first event, cumulative fields from the latest.
func buildRow(sess *session.Session) dashboardRow {
	first, latest := sess.First, sess.Latest

	row := dashboardRow{
		SID:         truncateSID(sess.SID),
		RowClass:    sess.Verdict.RowClass(),
		TagClass:    sess.Verdict.RowClass(),
		Tag:         sess.Verdict.Label(),
		Visibility:  first.VisibilityOnLoad,
		Focus:       first.HasFocusOnLoad.Bool(),
		FB:          latest.IsFacebookWebview.Bool(),
		Interaction: interactionText(latest.HadAnyInteraction.Bool(), latest.TotalClicks, latest.TotalTouches),
		Steps:       stepsText(latest),
		ScreenTimes: screenTimesText(latest),
		NavType:     orDash(first.NavigationType),
		Viewport:    fmt.Sprintf("%dx%d", first.ViewportW, first.ViewportH),
		FirstSeen:   "-",
		Triggers:    strings.Join(sess.Triggers, ", "),
	}
	if first.Server != nil {
		row.FirstSeen = first.Server.ReceivedAt
	}
	return row
}

func truncateSID(sid string) string {
	if len(sid) > 8 {
		return sid[:8] + "..."
	}
	return sid + "..."
}

func interactionText(interacted bool, clicks, touches int64) string {
	if !interacted {
		return "false"
	}
	return fmt.Sprintf("true (%dc/%dt)", clicks, touches)
}

func stepsText(latest *models.TelemetryRecord) string {
	if len(latest.StepsReached) == 0 {
		return "0"
	}
	parts := make([]string, len(latest.StepsReached))
	for i, s := range latest.StepsReached {
		parts[i] = s.String()
	}
	return strings.Join(parts, "→")
}

// screenTimesText renders the merged screen durations, one line per
// step, with a trailing "*" on the still-open screen.
func screenTimesText(latest *models.TelemetryRecord) []string {
	merged := session.MergeScreenTimes(latest)
	if merged == nil {
		return []string{"-"}
	}
	out := make([]string, len(merged))
	for i, st := range merged {
		ms := strconv.FormatFloat(st.DurationMS, 'f', -1, 64)
		sec := strconv.FormatFloat(st.DurationMS/1000, 'f', 1, 64)
		text := "S" + st.Step + ": " + ms + "ms (" + sec + "s)"
		if st.Provisional {
			text += "*"
		}
		out[i] = text
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
