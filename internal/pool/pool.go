package pool

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"filetest/internal/timing"
	"filetest/internal/trace"
)

// Runner executes one test file. It is called concurrently from several
// workers with different paths. ctx carries the worker's timing.Accumulator
// (timing.FromContext) and the pool tracer.
type Runner func(ctx context.Context, path string) error

// State is the lifecycle stage of a Pool.
type State int32

const (
	// Running accepts submissions.
	Running State = iota
	// Draining rejects submissions; workers finish queued jobs.
	Draining
	// Joined is terminal: workers exited and their timings were merged.
	Joined
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Joined:
		return "joined"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Pool runs jobs on a fixed number of workers.
type Pool struct {
	ctx    context.Context
	run    Runner
	opts   Options
	log    zerolog.Logger
	tracer trace.Tracer
	span   *trace.Span

	requests *queue[Request]
	replies  *queue[Reply]

	mu    sync.Mutex // guards state
	state State

	group   errgroup.Group
	results []timing.PassTimes // indexed by worker; written once on exit
	exits   []error            // indexed by worker

	stopBeat chan struct{}
	beatDone chan struct{}

	// afterStart runs after a Starting reply, outside the fault boundary.
	afterStart func(worker int)
}

// New starts opts.Workers workers and the heartbeat.
func New(ctx context.Context, run Runner, opts Options) *Pool {
	opts.FillDefaults()
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}

	p := &Pool{
		ctx:      ctx,
		run:      run,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "pool").Logger(),
		tracer:   tracer,
		requests: newQueue[Request](),
		replies:  newQueue[Reply](),
		results:  make([]timing.PassTimes, opts.Workers),
		exits:    make([]error, opts.Workers),
		stopBeat: make(chan struct{}),
		beatDone: make(chan struct{}),
	}
	parent := trace.SpanFrom(ctx).On(-1, -1)
	p.span = trace.Begin(tracer, trace.ScopePool, "pool", parent).
		AttrInt("workers", opts.Workers)

	p.log.Debug().Int("workers", opts.Workers).Dur("heartbeat", opts.Heartbeat).Msg("pool started")

	go p.heartbeat()
	for i := 0; i < opts.Workers; i++ {
		p.group.Go(func() error { return p.worker(i) })
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.opts.Workers }

// State returns the current lifecycle stage.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Queued returns the number of submitted jobs no worker has picked up yet.
func (p *Pool) Queued() int { return p.requests.len() }

// Submit enqueues a job. It never blocks and fails with ErrShutdown once
// Shutdown has been called; the job is then not enqueued.
func (p *Pool) Submit(jobID int, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running {
		return ErrShutdown
	}
	p.requests.push(Request{JobID: jobID, Path: path})
	trace.Instant(p.tracer, trace.ScopeQueue, "submit", path, p.span.Context().On(-1, jobID))
	return nil
}

// Shutdown stops accepting submissions. Queued jobs are still run. Calling it
// again has no effect.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running {
		return
	}
	p.state = Draining
	p.requests.close()
	p.log.Debug().Int("queued", p.requests.len()).Msg("pool draining")
}

// TryReceive returns the next reply without blocking.
func (p *Pool) TryReceive() (Reply, bool) {
	return p.replies.tryPop()
}

// Receive blocks until a reply is available. It returns false only after Join
// closed the reply queue and every remaining reply was received.
func (p *Pool) Receive() (Reply, bool) {
	return p.replies.pop()
}

// Join waits for every worker to exit and merges their pass timings into dst.
// It must be called after Shutdown. Workers that exited abnormally are logged
// and reported in the returned error; the remaining workers are still joined.
func (p *Pool) Join(dst *timing.Accumulator) error {
	p.mu.Lock()
	switch p.state {
	case Running:
		p.mu.Unlock()
		return ErrNotShutdown
	case Joined:
		p.mu.Unlock()
		return ErrJoined
	}
	p.state = Joined
	p.mu.Unlock()

	_ = p.group.Wait() // per-worker errors are kept in p.exits

	var errs []error
	for i := range p.results {
		dst.Merge(p.results[i])
		if err := p.exits[i]; err != nil {
			p.log.Error().Err(err).Int("worker", i).Msg("worker panicked")
			errs = append(errs, err)
		}
	}

	p.replies.close()
	close(p.stopBeat)
	<-p.beatDone

	p.span.End("joined")
	p.log.Debug().Int("abnormal_exits", len(errs)).Msg("pool joined")
	return errors.Join(errs...)
}
