// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package session

import (
	"sort"
	"strconv"

	"github.com/greglas75/prefetch/internal/models"
)

// ScreenTime is the display-ready time spent on one screen. Provisional
// entries come from screen_time_current_ms: the screen was still open
// when the event was sent, so the figure is a floor, not a total.
type ScreenTime struct {
	Step        string
	DurationMS  float64
	Provisional bool
}

// MergeScreenTimes combines a record's finalized per-screen durations
// with its still-open screen, if any. Finalized steps sort numerically;
// the still-open screen replaces a finalized entry for the same step in
// place since it is strictly newer, and otherwise goes last. A record
// with no screen_durations_ms map yields nil even when a current screen
// is present, matching how clients report: the map appears as soon as
// any screen tracking happens at all.
func MergeScreenTimes(rec *models.TelemetryRecord) []ScreenTime {
	if rec == nil || rec.ScreenDurationsMS == nil {
		return nil
	}

	out := make([]ScreenTime, 0, len(rec.ScreenDurationsMS)+1)
	for step, ms := range rec.ScreenDurationsMS {
		out = append(out, ScreenTime{Step: step, DurationMS: ms})
	}
	sort.Slice(out, func(i, j int) bool {
		return stepLess(out[i].Step, out[j].Step)
	})

	if cur := rec.ScreenTimeCurrent; cur != nil {
		entry := ScreenTime{Step: cur.Step.String(), DurationMS: cur.ElapsedMS, Provisional: true}
		replaced := false
		for i := range out {
			if out[i].Step == entry.Step {
				out[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, entry)
		}
	}
	return out
}

// stepLess orders steps numerically when both parse as numbers, so
// "10" sorts after "9" instead of after "1".
func stepLess(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		if na != nb {
			return na < nb
		}
		return a < b
	}
	if errA == nil {
		return true
	}
	if errB == nil {
		return false
	}
	return a < b
}
