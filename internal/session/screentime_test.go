// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package session

import (
	"testing"

	"github.com/greglas75/prefetch/internal/models"
)

func TestMergeScreenTimesNilWithoutDurations(t *testing.T) {
	// No durations map means no screen tracking at all, even when a
	// current screen is reported.
	rec := &models.TelemetryRecord{
		ScreenTimeCurrent: &models.CurrentScreenTime{Step: "1", ElapsedMS: 500},
	}
	if got := MergeScreenTimes(rec); got != nil {
		t.Errorf("MergeScreenTimes = %v, want nil", got)
	}
	if got := MergeScreenTimes(nil); got != nil {
		t.Errorf("MergeScreenTimes(nil) = %v, want nil", got)
	}
}

func TestMergeScreenTimesFinalizedOnly(t *testing.T) {
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{"1": 2000, "2": 350.5},
	}
	got := MergeScreenTimes(rec)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Step != "1" || got[0].DurationMS != 2000 || got[0].Provisional {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Step != "2" || got[1].DurationMS != 350.5 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestMergeScreenTimesCurrentAppends(t *testing.T) {
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{"1": 2000},
		ScreenTimeCurrent: &models.CurrentScreenTime{Step: "2", ElapsedMS: 120},
	}
	got := MergeScreenTimes(rec)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[1].Provisional || got[1].Step != "2" || got[1].DurationMS != 120 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestMergeScreenTimesCurrentStaysLast(t *testing.T) {
	// A still-open screen whose step precedes the finalized ones is
	// not sorted among them; it trails the list.
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{"2": 90, "3": 45},
		ScreenTimeCurrent: &models.CurrentScreenTime{Step: "1", ElapsedMS: 500},
	}
	got := MergeScreenTimes(rec)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"2", "3", "1"}
	for i, st := range got {
		if st.Step != want[i] {
			t.Errorf("step[%d] = %q, want %q", i, st.Step, want[i])
		}
	}
	if !got[2].Provisional {
		t.Errorf("got[2] = %+v, want provisional", got[2])
	}
}

func TestMergeScreenTimesCurrentOverridesFinalized(t *testing.T) {
	// The still-open screen is strictly newer than its finalized
	// entry, so it wins and is marked provisional.
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{"2": 90},
		ScreenTimeCurrent: &models.CurrentScreenTime{Step: "2", ElapsedMS: 400},
	}
	got := MergeScreenTimes(rec)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].DurationMS != 400 || !got[0].Provisional {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestMergeScreenTimesNumericSort(t *testing.T) {
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{"10": 1, "2": 2, "1": 3},
	}
	got := MergeScreenTimes(rec)
	want := []string{"1", "2", "10"}
	for i, st := range got {
		if st.Step != want[i] {
			t.Errorf("step[%d] = %q, want %q", i, st.Step, want[i])
		}
	}
}

func TestMergeScreenTimesEmptyMap(t *testing.T) {
	// An empty (non-nil) map with a current screen still yields the
	// provisional entry.
	rec := &models.TelemetryRecord{
		ScreenDurationsMS: map[string]float64{},
		ScreenTimeCurrent: &models.CurrentScreenTime{Step: "1", ElapsedMS: 50},
	}
	got := MergeScreenTimes(rec)
	if len(got) != 1 || !got[0].Provisional {
		t.Errorf("got = %+v", got)
	}
}
