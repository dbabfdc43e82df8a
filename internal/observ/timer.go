// Package observ records wall-clock phases of a test run, such as discovery,
// execution and joining the pool.
package observ

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a run.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	open  bool
}

// Timer collects phases in the order they were started. It is safe for
// concurrent use.
type Timer struct {
	mu     sync.Mutex
	now    func() time.Time
	phases []Phase
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer {
	return &Timer{now: time.Now, phases: make([]Phase, 0, 4)}
}

// Handle ends a phase started with Timer.Start.
type Handle struct {
	t   *Timer
	idx int
}

// Start opens a phase named name.
func (t *Timer) Start(name string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now(), open: true})
	return Handle{t: t, idx: len(t.phases) - 1}
}

// Stop closes the phase and attaches note. Stopping twice keeps the first
// duration.
func (h Handle) Stop(note string) time.Duration {
	if h.t == nil {
		return 0
	}
	h.t.mu.Lock()
	defer h.t.mu.Unlock()
	p := &h.t.phases[h.idx]
	if !p.open {
		return p.Dur
	}
	p.open = false
	p.Dur = h.t.now().Sub(p.Start)
	p.Note = note
	return p.Dur
}

// Phases returns a copy of the closed phases.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, 0, len(t.phases))
	for _, p := range t.phases {
		if !p.open {
			out = append(out, p)
		}
	}
	return out
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report aggregates closed phases.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report builds the serializable summary of closed phases.
func (t *Timer) Report() Report {
	var r Report
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
		r.Phases = append(r.Phases, PhaseReport{
			Name:       p.Name,
			DurationMS: durationToMillis(p.Dur),
			Note:       p.Note,
		})
	}
	r.TotalMS = durationToMillis(total)
	return r
}

// WriteTo renders the phases as an aligned list.
func (t *Timer) WriteTo(w io.Writer) (int64, error) {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("run phases:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-12s %9.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  ")
			sb.WriteString(p.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-12s %9.2f ms\n", "total", r.TotalMS)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
