// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package session

import (
	"testing"

	"github.com/greglas75/prefetch/internal/models"
)

func rec(visibility string, interacted bool) *models.TelemetryRecord {
	return &models.TelemetryRecord{
		VisibilityOnLoad:  visibility,
		HadAnyInteraction: models.Flag(interacted),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		first *models.TelemetryRecord
		last  *models.TelemetryRecord
		want  Verdict
	}{
		{"hidden no interaction", rec("hidden", false), rec("hidden", false), VerdictPrefetch},
		{"visible with interaction", rec("visible", false), rec("visible", true), VerdictRealUser},
		{"hidden then interaction", rec("hidden", false), rec("hidden", true), VerdictRealWasHidden},
		{"visible no interaction", rec("visible", false), rec("visible", false), VerdictUnknown},
		{"missing visibility", rec("", false), rec("", true), VerdictUnknown},
		{"odd visibility value", rec("prerender", false), rec("prerender", false), VerdictUnknown},
		{"nil first", nil, rec("visible", true), VerdictUnknown},
		{"hidden nil latest", rec("hidden", false), nil, VerdictPrefetch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.first, tt.last); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got.Label(), tt.want.Label())
			}
		})
	}
}

func TestClassifyUsesFirstAndLastOnly(t *testing.T) {
	// Intermediate records must not influence the verdict: the first
	// record fixes visibility, the last fixes interaction.
	first := rec("hidden", false)
	last := rec("visible", false)
	if got := Classify(first, last); got != VerdictPrefetch {
		t.Errorf("Classify() = %v, want PREFETCH", got.Label())
	}
}

func TestVerdictLabels(t *testing.T) {
	tests := []struct {
		verdict  Verdict
		label    string
		rowClass string
	}{
		{VerdictPrefetch, "PREFETCH", "prefetch"},
		{VerdictRealUser, "REAL USER", "real"},
		{VerdictRealWasHidden, "REAL (was hidden)", "real"},
		{VerdictUnknown, "UNKNOWN", "unknown"},
	}

	for _, tt := range tests {
		if got := tt.verdict.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
		if got := tt.verdict.RowClass(); got != tt.rowClass {
			t.Errorf("RowClass() = %q, want %q", got, tt.rowClass)
		}
	}
}
