// Package harness drives a pool over a list of test files and tallies the
// outcome.
package harness

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"filetest/internal/pool"
)

// ErrStalled is returned when no job made progress for Options.StallTicks
// heartbeats. The stuck jobs keep running; the caller must not Join the pool.
var ErrStalled = errors.New("harness: test run stalled")

// Options configure Run.
type Options struct {
	// StallTicks is the number of consecutive heartbeats without any Starting
	// or Done reply after which the run is abandoned. Zero waits forever.
	StallTicks int

	// Sink receives progress events.
	Sink Sink

	Logger *zerolog.Logger
}

// Outcome is the result of one test file.
type Outcome struct {
	JobID   int
	Path    string
	Status  Status
	Worker  int
	Err     error
	Elapsed time.Duration
}

// Summary aggregates the outcomes of a run, ordered by job id.
type Summary struct {
	Outcomes []Outcome
	Passed   int
	Failed   int
	Stalled  int
	Pending  int // never started before the run was abandoned
	Wall     time.Duration
}

// OK reports whether every file passed.
func (s Summary) OK() bool { return s.Failed == 0 && s.Stalled == 0 && s.Pending == 0 }

// Failures returns the failed and stalled outcomes.
func (s Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusStalled {
			out = append(out, o)
		}
	}
	return out
}

type running struct {
	worker  int
	started time.Time
}

// Run submits paths to p with job ids equal to their index, shuts the pool
// down and consumes replies until every job is done. It does not Join p.
func Run(p *pool.Pool, paths []string, opts Options) (Summary, error) {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "harness").Logger()
	}

	start := time.Now()
	outcomes := make([]Outcome, len(paths))
	for id, path := range paths {
		outcomes[id] = Outcome{JobID: id, Path: path, Status: StatusQueued, Worker: -1}
		if err := p.Submit(id, path); err != nil {
			p.Shutdown()
			return Summary{}, fmt.Errorf("submit %s: %w", path, err)
		}
		sink.OnEvent(Event{JobID: id, Path: path, Status: StatusQueued, Worker: -1})
	}
	p.Shutdown()

	inFlight := make(map[int]running)
	remaining := len(paths)
	// idle counts whole heartbeat intervals without progress; the first
	// Tick after progress only opens the interval.
	idle := -1
	var stalled bool

	for remaining > 0 {
		r, ok := p.Receive()
		if !ok {
			return Summary{}, fmt.Errorf("reply queue closed with %d jobs outstanding", remaining)
		}
		switch r.Kind {
		case pool.Tick:
			if len(inFlight) == 0 {
				break
			}
			idle++
			if opts.StallTicks > 0 && idle >= opts.StallTicks {
				stalled = true
			}
		case pool.Starting:
			idle = -1
			inFlight[r.JobID] = running{worker: r.Worker, started: time.Now()}
			o := &outcomes[r.JobID]
			o.Status = StatusRunning
			o.Worker = r.Worker
			sink.OnEvent(Event{JobID: r.JobID, Path: o.Path, Status: StatusRunning, Worker: r.Worker})
		case pool.Done:
			idle = -1
			remaining--
			o := &outcomes[r.JobID]
			o.Worker = r.Worker
			if rs, ok := inFlight[r.JobID]; ok {
				o.Elapsed = time.Since(rs.started)
				delete(inFlight, r.JobID)
			}
			o.Err = r.Result.Err
			o.Status = StatusPassed
			if !r.Result.OK() {
				o.Status = StatusFailed
				log.Debug().Str("path", o.Path).Err(o.Err).Msg("test failed")
			}
			sink.OnEvent(Event{JobID: r.JobID, Path: o.Path, Status: o.Status, Worker: r.Worker, Err: o.Err, Elapsed: o.Elapsed})
		}
		if stalled {
			break
		}
	}

	if stalled {
		ids := make([]int, 0, len(inFlight))
		for id := range inFlight {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			o := &outcomes[id]
			o.Status = StatusStalled
			o.Elapsed = time.Since(inFlight[id].started)
			o.Err = fmt.Errorf("no progress for %d heartbeats", opts.StallTicks)
			log.Warn().Str("path", o.Path).Int("worker", o.Worker).Dur("elapsed", o.Elapsed).Msg("test stalled")
			sink.OnEvent(Event{JobID: id, Path: o.Path, Status: StatusStalled, Worker: o.Worker, Err: o.Err, Elapsed: o.Elapsed})
		}
	}

	sum := Summary{Outcomes: outcomes, Wall: time.Since(start)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusPassed:
			sum.Passed++
		case StatusFailed:
			sum.Failed++
		case StatusStalled:
			sum.Stalled++
		case StatusQueued:
			sum.Pending++
		}
	}
	if stalled {
		return sum, ErrStalled
	}
	return sum, nil
}
