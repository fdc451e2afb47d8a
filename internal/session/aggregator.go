// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package session

import (
	"bufio"
	"bytes"
	"time"

	json "github.com/goccy/go-json"

	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/metrics"
	"github.com/greglas75/prefetch/internal/models"
)

// Source is anything the aggregator can read the full event log from.
type Source interface {
	ReadAll() ([]byte, error)
}

// Session is the rebuilt state of one browsing session: its earliest
// and most recent events plus everything derived from them.
type Session struct {
	SID        string
	First      *models.TelemetryRecord
	Latest     *models.TelemetryRecord
	EventCount int

	// Triggers lists every event's send_trigger in log order. Kept
	// per-event rather than deduplicated: repeats show how often a
	// client re-sent on the same trigger.
	Triggers []string

	Verdict Verdict
}

// Report is one full re-aggregation of the event log.
type Report struct {
	Sessions     []*Session
	SessionCount int
	EventCount   int
	SkippedLines int
	GeneratedAt  time.Time
}

// Aggregator rebuilds session state from scratch on every call. The
// event log is the single source of truth; nothing is cached between
// snapshots, so a snapshot always reflects the log as written.
type Aggregator struct {
	source Source
}

// NewAggregator builds an aggregator over the given event log.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{source: src}
}

// Snapshot reads the whole event log and groups records by session_id.
// Sessions are ordered by first appearance in the log. Lines that fail
// to parse are counted and skipped, never fatal: one corrupt line must
// not take down the dashboard.
func (a *Aggregator) Snapshot() (*Report, error) {
	start := time.Now()

	data, err := a.source.ReadAll()
	if err != nil {
		return nil, err
	}

	report := &Report{GeneratedAt: start}
	index := make(map[string]*Session)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec models.TelemetryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			report.SkippedLines++
			continue
		}
		report.EventCount++

		sess, ok := index[rec.SessionID]
		if !ok {
			sess = &Session{SID: rec.SessionID, First: &rec}
			index[rec.SessionID] = sess
			report.Sessions = append(report.Sessions, sess)
		}
		sess.Latest = &rec
		sess.EventCount++
		sess.Triggers = append(sess.Triggers, rec.SendTrigger)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, sess := range report.Sessions {
		sess.Verdict = Classify(sess.First, sess.Latest)
	}
	report.SessionCount = len(report.Sessions)

	metrics.ObserveAggregation(time.Since(start), report.SessionCount, report.SkippedLines)
	if report.SkippedLines > 0 {
		logging.Warn().
			Int("skipped", report.SkippedLines).
			Msg("Aggregation skipped unparseable log lines")
	}
	logging.Debug().
		Int("sessions", report.SessionCount).
		Int("events", report.EventCount).
		Dur("elapsed", time.Since(start)).
		Msg("Session report rebuilt")

	return report, nil
}
