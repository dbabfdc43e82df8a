package pool_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"filetest/internal/pass"
	"filetest/internal/pool"
	"filetest/internal/testkit"
	"filetest/internal/timing"
	"filetest/internal/trace"
)

const testHeartbeat = 10 * time.Millisecond

func newTestPool(t *testing.T, workers int, run pool.Runner) *pool.Pool {
	t.Helper()
	return pool.New(context.Background(), run, pool.Options{Workers: workers, Heartbeat: testHeartbeat})
}

// collect receives replies until want Done replies arrived. Heartbeat ticks
// keep Receive from blocking forever, so the deadline is checked on each reply.
func collect(t *testing.T, p *pool.Pool, want int) []pool.Reply {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	var out []pool.Reply
	done := 0
	for done < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d/%d done replies", done, want)
		}
		r, ok := p.Receive()
		if !ok {
			t.Fatalf("reply queue closed after %d/%d done replies", done, want)
		}
		if r.Kind == pool.Tick {
			continue
		}
		out = append(out, r)
		if r.Kind == pool.Done {
			done++
		}
	}
	return out
}

func checkPairs(t *testing.T, replies []pool.Reply) map[int]pool.Reply {
	t.Helper()
	started := map[int]int{}
	done := map[int]pool.Reply{}
	for _, r := range replies {
		switch r.Kind {
		case pool.Starting:
			if _, dup := started[r.JobID]; dup {
				t.Fatalf("job %d started twice", r.JobID)
			}
			started[r.JobID] = r.Worker
		case pool.Done:
			w, ok := started[r.JobID]
			if !ok {
				t.Fatalf("job %d done before starting", r.JobID)
			}
			if w != r.Worker {
				t.Fatalf("job %d started on worker %d but finished on %d", r.JobID, w, r.Worker)
			}
			if _, dup := done[r.JobID]; dup {
				t.Fatalf("job %d done twice", r.JobID)
			}
			done[r.JobID] = r
		}
	}
	return done
}

func TestFillDefaults(t *testing.T) {
	var o pool.Options
	o.FillDefaults()
	if o.Workers <= 0 {
		t.Fatal("expected Workers to be set by FillDefaults")
	}
	if o.Heartbeat != pool.DefaultHeartbeat {
		t.Fatalf("Heartbeat = %v, want %v", o.Heartbeat, pool.DefaultHeartbeat)
	}
	if o.Logger == nil {
		t.Fatal("expected a no-op logger")
	}
}

func TestSuccessAndFaultScenario(t *testing.T) {
	run := func(ctx context.Context, path string) error {
		acc := timing.FromContext(ctx)
		defer acc.ProcessFile().End()
		switch path {
		case "a.test":
			defer acc.Compile().End()
			acc.Legalize().End()
			return nil
		case "b.test":
			panic("bad input")
		}
		return fmt.Errorf("unknown test %s", path)
	}

	p := newTestPool(t, 2, run)
	if err := p.Submit(1, "a.test"); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if err := p.Submit(2, "b.test"); err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	p.Shutdown()

	done := checkPairs(t, collect(t, p, 2))
	if !done[1].Result.OK() {
		t.Fatalf("job 1 failed: %v", done[1].Result.Err)
	}
	msg := done[2].Result.Message()
	want := fmt.Sprintf("panicked in worker #%d: bad input", done[2].Worker)
	if msg != want {
		t.Fatalf("job 2 message = %q, want %q", msg, want)
	}
	var fault *pool.FaultError
	if !errors.As(done[2].Result.Err, &fault) {
		t.Fatalf("job 2 error is %T, want *pool.FaultError", done[2].Result.Err)
	}

	acc := timing.NewAccumulator()
	if err := p.Join(acc); err != nil {
		t.Fatalf("join: %v", err)
	}
	times := acc.Extract()
	if err := testkit.CheckTimingInvariants(&times); err != nil {
		t.Fatal(err)
	}
	if err := testkit.CheckOnlyRan(&times, pass.ProcessFile, pass.Compile, pass.Legalize); err != nil {
		t.Fatalf("%v\n%s", err, times.String())
	}
	if p.State() != pool.Joined {
		t.Fatalf("state = %v, want joined", p.State())
	}
}

func TestEveryJobStartsAndFinishesOnce(t *testing.T) {
	const n = 200
	var calls atomic.Int32
	run := func(ctx context.Context, path string) error {
		calls.Add(1)
		if strings.HasSuffix(path, "7") {
			return errors.New("expected failure")
		}
		return nil
	}

	p := newTestPool(t, 4, run)
	for i := 0; i < n; i++ {
		if err := p.Submit(i, fmt.Sprintf("t%d", i)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	p.Shutdown()

	replies := collect(t, p, n)
	if len(replies) != 2*n {
		t.Fatalf("got %d replies, want %d", len(replies), 2*n)
	}
	done := checkPairs(t, replies)
	failed := 0
	for id, r := range done {
		if !r.Result.OK() {
			failed++
			if r.Result.Message() != "expected failure" {
				t.Fatalf("job %d: message %q", id, r.Result.Message())
			}
		}
	}
	if failed != 20 {
		t.Fatalf("failed = %d, want 20", failed)
	}
	if err := p.Join(nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	if calls.Load() != n {
		t.Fatalf("runner called %d times, want %d", calls.Load(), n)
	}
}

func TestFaultDoesNotKillWorker(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "boom", "panicked in worker #0: boom"},
		{"error", errors.New("wrapped boom"), "panicked in worker #0: wrapped boom"},
		{"opaque", 42, "panicked in worker #0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := func(ctx context.Context, path string) error {
				if path == "bad" {
					acc := timing.FromContext(ctx)
					acc.Compile()
					acc.Regalloc()
					panic(tt.value)
				}
				defer timing.FromContext(ctx).Verifier().End()
				return nil
			}
			p := newTestPool(t, 1, run)
			for i, path := range []string{"bad", "ok", "ok"} {
				if err := p.Submit(i, path); err != nil {
					t.Fatalf("submit: %v", err)
				}
			}
			p.Shutdown()

			done := checkPairs(t, collect(t, p, 3))
			if got := done[0].Result.Message(); got != tt.want {
				t.Fatalf("fault message = %q, want %q", got, tt.want)
			}
			for _, id := range []int{1, 2} {
				if !done[id].Result.OK() {
					t.Fatalf("job %d after fault failed: %v", id, done[id].Result.Err)
				}
			}

			acc := timing.NewAccumulator()
			if err := p.Join(acc); err != nil {
				t.Fatalf("join: %v", err)
			}
			times := acc.Extract()
			if times.Get(pass.Compile).Child != 0 {
				t.Fatal("abandoned compile pass was charged child time after the fault")
			}
			if times.Get(pass.Verifier).Total == 0 {
				t.Fatal("jobs after the fault did not record timings")
			}
		})
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := newTestPool(t, 2, func(context.Context, string) error { return nil })
	if err := p.Submit(1, "x"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	p.Shutdown()
	p.Shutdown()
	if err := p.Submit(2, "y"); !errors.Is(err, pool.ErrShutdown) {
		t.Fatalf("submit after shutdown err = %v, want ErrShutdown", err)
	}
	if p.State() != pool.Draining {
		t.Fatalf("state = %v, want draining", p.State())
	}

	collect(t, p, 1)
	if err := p.Join(nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	for {
		r, ok := p.Receive()
		if !ok {
			break
		}
		if r.Kind != pool.Tick {
			t.Fatalf("unexpected reply after drain: %+v", r)
		}
	}
}

func TestJoinContract(t *testing.T) {
	p := newTestPool(t, 1, func(context.Context, string) error { return nil })
	if err := p.Join(nil); !errors.Is(err, pool.ErrNotShutdown) {
		t.Fatalf("join before shutdown err = %v, want ErrNotShutdown", err)
	}
	p.Shutdown()
	if err := p.Join(nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := p.Join(nil); !errors.Is(err, pool.ErrJoined) {
		t.Fatalf("second join err = %v, want ErrJoined", err)
	}
	for {
		r, ok := p.Receive()
		if !ok {
			break
		}
		if r.Kind != pool.Tick {
			t.Fatalf("unexpected reply %+v", r)
		}
	}
}

func TestHeartbeatTicks(t *testing.T) {
	block := make(chan struct{})
	p := newTestPool(t, 1, func(context.Context, string) error {
		<-block
		return nil
	})
	if err := p.Submit(1, "slow"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ticks := 0
	for ticks < 3 {
		r, ok := p.Receive()
		if !ok {
			t.Fatal("reply queue closed early")
		}
		if r.Kind == pool.Tick {
			ticks++
		}
	}
	close(block)
	p.Shutdown()
	collect(t, p, 1)
	if err := p.Join(nil); err != nil {
		t.Fatalf("join: %v", err)
	}
}

func TestTryReceiveDoesNotBlock(t *testing.T) {
	p := pool.New(context.Background(), func(context.Context, string) error { return nil },
		pool.Options{Workers: 1, Heartbeat: time.Hour})
	if r, ok := p.Receive(); !ok || r.Kind != pool.Tick {
		t.Fatalf("first reply = %+v, %v; want the initial tick", r, ok)
	}
	if r, ok := p.TryReceive(); ok {
		t.Fatalf("unexpected reply %+v", r)
	}
	p.Shutdown()
	if err := p.Join(nil); err != nil {
		t.Fatalf("join: %v", err)
	}
}

func TestJobAndPassSpansAreTraced(t *testing.T) {
	rec := trace.NewRecorder(trace.LevelDetail, 256)
	ctx := trace.WithTracer(context.Background(), rec)
	run := func(ctx context.Context, path string) error {
		acc := timing.FromContext(ctx)
		defer acc.Compile().End()
		acc.Regalloc().End()
		return nil
	}
	p := pool.New(ctx, run, pool.Options{Workers: 1, Heartbeat: time.Hour})
	if err := p.Submit(4, "a.test"); err != nil {
		t.Fatal(err)
	}
	p.Shutdown()
	collect(t, p, 1)
	if err := p.Join(timing.NewAccumulator()); err != nil {
		t.Fatalf("Join: %v", err)
	}

	spans := map[string]trace.Event{}
	for _, ev := range rec.Snapshot() {
		if ev.Kind == trace.KindBegin {
			spans[ev.Name] = ev
		}
	}
	poolSpan, job, compile, regalloc := spans["pool"], spans["job:a.test"], spans["compile"], spans["regalloc"]
	if job.Parent != poolSpan.Span || job.Worker != 0 || job.Job != 4 {
		t.Fatalf("job span %+v not under pool span %d", job, poolSpan.Span)
	}
	if compile.Parent != job.Span || regalloc.Parent != compile.Span {
		t.Fatalf("pass spans not nested: compile %+v regalloc %+v", compile, regalloc)
	}
	if regalloc.Job != 4 {
		t.Fatalf("pass span lost its job id: %+v", regalloc)
	}
}
