package observ

import (
	"strings"
	"testing"
	"time"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTimerRecordsClosedPhases(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(10 * time.Millisecond)

	discover := tm.Start("discover")
	discover.Stop("3 files")
	run := tm.Start("run")
	open := tm.Start("join")
	if d := run.Stop(""); d != 20*time.Millisecond {
		t.Fatalf("run duration = %v, want 20ms", d)
	}
	_ = open

	phases := tm.Phases()
	if len(phases) != 2 {
		t.Fatalf("closed phases = %d, want 2", len(phases))
	}
	r := tm.Report()
	if r.TotalMS != 30 {
		t.Fatalf("total = %v, want 30", r.TotalMS)
	}
	if r.Phases[0].Note != "3 files" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
}

func TestStopTwiceKeepsFirstDuration(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)
	h := tm.Start("run")
	first := h.Stop("a")
	second := h.Stop("b")
	if first != second || tm.Phases()[0].Note != "a" {
		t.Fatalf("second Stop changed the phase: %v vs %v", first, second)
	}
	var zero Handle
	if zero.Stop("x") != 0 {
		t.Fatal("zero handle should be a no-op")
	}
}

func TestWriteTo(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(5 * time.Millisecond)
	tm.Start("run").Stop("4 workers")

	var sb strings.Builder
	if _, err := tm.WriteTo(&sb); err != nil {
		t.Fatal(err)
	}
	want := "run phases:\n" +
		"  run               5.00 ms  4 workers\n" +
		"  total             5.00 ms\n"
	if sb.String() != want {
		t.Fatalf("WriteTo =\n%q\nwant\n%q", sb.String(), want)
	}
}
