// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters_IncrementAndCollect(t *testing.T) {
	StatesDiscoveredTotal.Add(3)
	if got := testutil.ToFloat64(StatesDiscoveredTotal); got != 3 {
		t.Errorf("StatesDiscoveredTotal = %v, want 3", got)
	}

	TerminalsMarkedTotal.WithLabelValues("WIN").Inc()
	if got := testutil.ToFloat64(TerminalsMarkedTotal.WithLabelValues("WIN")); got != 1 {
		t.Errorf("TerminalsMarkedTotal{WIN} = %v, want 1", got)
	}
}

func TestGauges_SetAndCollect(t *testing.T) {
	QueueDepth.WithLabelValues("propagation_wave").Set(42)
	if got := testutil.ToFloat64(QueueDepth.WithLabelValues("propagation_wave")); got != 42 {
		t.Errorf("QueueDepth{propagation_wave} = %v, want 42", got)
	}

	PropagationWaveSize.Set(128)
	if got := testutil.ToFloat64(PropagationWaveSize); got != 128 {
		t.Errorf("PropagationWaveSize = %v, want 128", got)
	}
}

func TestHistograms_Observe(t *testing.T) {
	PhaseDurationSeconds.WithLabelValues("ENUMERATING", "ok").Observe(1.5)
	if count := testutil.CollectAndCount(PhaseDurationSeconds); count == 0 {
		t.Error("expected PhaseDurationSeconds to have collected samples")
	}
}
