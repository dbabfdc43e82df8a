package ui

import (
	"errors"
	"strings"
	"testing"

	"filetest/internal/harness"
)

func TestApplyEventTracksCounts(t *testing.T) {
	m := NewProgressModel("filetest", 3, nil).(*progressModel)

	m.applyEvent(harness.Event{JobID: 0, Path: "a.clif", Status: harness.StatusRunning, Worker: 1})
	m.applyEvent(harness.Event{JobID: 1, Path: "b.clif", Status: harness.StatusRunning, Worker: 0})
	if len(m.running) != 2 {
		t.Fatalf("running = %d, want 2", len(m.running))
	}
	view := m.View()
	if !strings.Contains(view, "w#1") || !strings.Contains(view, "a.clif") {
		t.Fatalf("view lacks running entry:\n%s", view)
	}

	m.applyEvent(harness.Event{JobID: 0, Path: "a.clif", Status: harness.StatusPassed})
	m.applyEvent(harness.Event{JobID: 1, Path: "b.clif", Status: harness.StatusFailed, Err: errors.New("boom")})
	if len(m.running) != 0 || m.passed != 1 || m.failed != 1 {
		t.Fatalf("unexpected state: running=%d passed=%d failed=%d", len(m.running), m.passed, m.failed)
	}
	if got := m.counts(); got != "1/3 passed, 1 failed" {
		t.Fatalf("counts = %q", got)
	}
}

func TestFailureListIsBounded(t *testing.T) {
	m := NewProgressModel("filetest", 20, nil).(*progressModel)
	for i := 0; i < 12; i++ {
		m.applyEvent(harness.Event{JobID: i, Path: "x.clif", Status: harness.StatusFailed})
	}
	if len(m.failures) != maxFailuresShown {
		t.Fatalf("failures kept = %d, want %d", len(m.failures), maxFailuresShown)
	}
	if m.failures[0].JobID != 4 {
		t.Fatalf("oldest kept failure = %d, want 4", m.failures[0].JobID)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("tests/isa/x86/abi.clif", 12); got != ".../abi.clif" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}
