package ui

import (
	"strings"
	"testing"

	"weft/internal/driver"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		stage  driver.Stage
		status driver.Status
		want   string
	}{
		{driver.StageLower, driver.StatusQueued, "queued"},
		{driver.StageLower, driver.StatusWorking, "lowering"},
		{driver.StageParse, driver.StatusWorking, "parsing"},
		{driver.StageLower, driver.StatusDone, "done"},
		{driver.StageCache, driver.StatusDone, "cached"},
		{driver.StageLower, driver.StatusError, "error"},
		{driver.StageLower, driver.Status("other"), ""},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.stage, tt.status); got != tt.want {
			t.Fatalf("statusLabel(%s, %s) = %q, want %q", tt.stage, tt.status, got, tt.want)
		}
	}
}

func TestApplyEventTracksUnits(t *testing.T) {
	m := NewProgressModel("lowering", []string{"saxpy", "reduce"}, nil).(*progressModel)

	m.applyEvent(driver.Event{Stage: driver.StageParse, Status: driver.StatusWorking})
	if m.stageLabel != "parsing" {
		t.Fatalf("stageLabel = %q", m.stageLabel)
	}
	m.applyEvent(driver.Event{Unit: "saxpy", Stage: driver.StageLower, Status: driver.StatusWorking})
	m.applyEvent(driver.Event{Unit: "reduce", Stage: driver.StageCache, Status: driver.StatusDone})
	m.applyEvent(driver.Event{Unit: "late", Stage: driver.StageLower, Status: driver.StatusQueued})

	if len(m.items) != 3 {
		t.Fatalf("expected late unit to be appended, got %+v", m.items)
	}
	if m.items[0].status != "lowering" || m.items[1].status != "cached" || m.items[2].status != "queued" {
		t.Fatalf("unexpected statuses: %+v", m.items)
	}
	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v, want 0.5", got)
	}

	view := m.View()
	for _, part := range []string{"lowering (parsing)", "saxpy", "reduce", "late"} {
		if !strings.Contains(view, part) {
			t.Fatalf("view missing %q:\n%s", part, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a_rather_long_kernel_name", 10); got != "a_rathe..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
