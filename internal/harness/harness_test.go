package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"filetest/internal/pool"
)

func TestRunTalliesOutcomes(t *testing.T) {
	run := func(_ context.Context, path string) error {
		switch path {
		case "fail.clif":
			return errors.New("mismatch")
		case "panic.clif":
			panic("bad input")
		}
		return nil
	}
	p := pool.New(context.Background(), run, pool.Options{Workers: 3, Heartbeat: 10 * time.Millisecond})

	var mu sync.Mutex
	seen := map[string][]Status{}
	sink := SinkFunc(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[ev.Path] = append(seen[ev.Path], ev.Status)
	})

	paths := []string{"a.clif", "fail.clif", "b.clif", "panic.clif"}
	sum, err := Run(p, paths, Options{Sink: sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if sum.Passed != 2 || sum.Failed != 2 || sum.Stalled != 0 || sum.Pending != 0 {
		t.Fatalf("unexpected tally: %+v", sum)
	}
	if sum.OK() {
		t.Fatal("summary with failures reported OK")
	}
	fails := sum.Failures()
	if len(fails) != 2 || fails[0].Path != "fail.clif" || fails[1].Path != "panic.clif" {
		t.Fatalf("failures = %+v", fails)
	}
	var fault *pool.FaultError
	if !errors.As(fails[1].Err, &fault) {
		t.Fatalf("panic outcome error = %T, want *pool.FaultError", fails[1].Err)
	}

	for _, path := range paths {
		got := seen[path]
		if len(got) != 3 || got[0] != StatusQueued || got[1] != StatusRunning {
			t.Fatalf("events for %s = %v", path, got)
		}
	}
}

func TestRunDetectsStall(t *testing.T) {
	release := make(chan struct{})
	run := func(_ context.Context, path string) error {
		if path == "hang.clif" {
			<-release
		}
		return nil
	}
	p := pool.New(context.Background(), run, pool.Options{Workers: 1, Heartbeat: 5 * time.Millisecond})

	sum, err := Run(p, []string{"ok.clif", "hang.clif", "later.clif"}, Options{StallTicks: 4})
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("Run err = %v, want ErrStalled", err)
	}
	if sum.Passed != 1 || sum.Stalled != 1 || sum.Pending != 1 {
		t.Fatalf("unexpected tally: %+v", sum)
	}
	if o := sum.Outcomes[1]; o.Status != StatusStalled || o.Worker != 0 || o.Err == nil {
		t.Fatalf("hang outcome = %+v", o)
	}

	close(release)
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	p := pool.New(context.Background(), func(context.Context, string) error { return nil }, pool.Options{Workers: 1})
	sum, err := Run(p, nil, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.OK() || len(sum.Outcomes) != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestRunIgnoresTicksBeforeAnIntervalElapses(t *testing.T) {
	run := func(context.Context, string) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}
	p := pool.New(context.Background(), run, pool.Options{Workers: 1, Heartbeat: time.Second})

	sum, err := Run(p, []string{"a.clif", "b.clif"}, Options{StallTicks: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Passed != 2 || sum.Stalled != 0 {
		t.Fatalf("unexpected tally: %+v", sum)
	}
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestRunStallsAfterOneSilentInterval(t *testing.T) {
	release := make(chan struct{})
	run := func(context.Context, string) error {
		<-release
		return nil
	}
	p := pool.New(context.Background(), run, pool.Options{Workers: 1, Heartbeat: 5 * time.Millisecond})

	sum, err := Run(p, []string{"hang.clif"}, Options{StallTicks: 1})
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("Run err = %v, want ErrStalled", err)
	}
	if sum.Stalled != 1 {
		t.Fatalf("unexpected tally: %+v", sum)
	}

	close(release)
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
}

func TestRunSubmitFailureLeavesPoolJoinable(t *testing.T) {
	p := pool.New(context.Background(), func(context.Context, string) error { return nil }, pool.Options{Workers: 1})
	p.Shutdown()

	if _, err := Run(p, []string{"a.clif"}, Options{}); !errors.Is(err, pool.ErrShutdown) {
		t.Fatalf("Run err = %v, want ErrShutdown", err)
	}
	if p.State() != pool.Draining {
		t.Fatalf("state = %v, want Draining", p.State())
	}
	if err := p.Join(nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
}
