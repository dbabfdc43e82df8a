package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"filetest/internal/pass"
	"filetest/internal/timing"
)

func TestAbnormalWorkerExitIsReportedByJoin(t *testing.T) {
	run := func(ctx context.Context, path string) error {
		timing.FromContext(ctx).Binemit().End()
		return nil
	}
	p := New(context.Background(), run, Options{Workers: 2, Heartbeat: 10 * time.Millisecond})

	// Installed before any Submit; only worker 0 touches fired.
	fired := false
	p.afterStart = func(worker int) {
		if worker == 0 && !fired {
			fired = true
			panic("queue corrupted")
		}
	}

	const n = 10
	for i := 0; i < n; i++ {
		if err := p.Submit(i, "job"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	p.Shutdown()

	deadline := time.Now().Add(10 * time.Second)
	done := 0
	var lost *WorkerExitError
	for done < n && time.Now().Before(deadline) {
		r, ok := p.Receive()
		if !ok {
			t.Fatal("reply queue closed early")
		}
		if r.Kind != Done {
			continue
		}
		done++
		if !r.Result.OK() && !errors.As(r.Result.Err, &lost) {
			t.Fatalf("unexpected failure: %v", r.Result.Err)
		}
	}
	if done != n {
		t.Fatalf("only %d/%d jobs finished", done, n)
	}

	acc := timing.NewAccumulator()
	err := p.Join(acc)
	var exit *WorkerExitError
	if !errors.As(err, &exit) {
		t.Fatalf("join err = %v, want *WorkerExitError", err)
	}
	if exit.Worker != 0 || exit.Cause != "queue corrupted" {
		t.Fatalf("unexpected exit error: %+v", exit)
	}
	if lost == nil || lost.Worker != 0 {
		t.Fatalf("in-flight job of the dead worker was not reported: %+v", lost)
	}
	times := acc.Extract()
	if times.Get(pass.Binemit).Total == 0 {
		t.Fatal("timings of the surviving worker were not merged")
	}
}

func TestQueueFIFOAndClose(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 200; i++ {
		if !q.push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	for i := 0; i < 150; i++ {
		v, ok := q.pop()
		if !ok || v != i {
			t.Fatalf("pop = (%d, %v), want (%d, true)", v, ok, i)
		}
	}
	q.close()
	if q.push(999) {
		t.Fatal("push after close accepted")
	}
	for i := 150; i < 200; i++ {
		v, ok := q.pop()
		if !ok || v != i {
			t.Fatalf("pop after close = (%d, %v), want (%d, true)", v, ok, i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("pop on closed empty queue succeeded")
	}
	if _, ok := q.tryPop(); ok {
		t.Fatal("tryPop on closed empty queue succeeded")
	}
}

func TestQueuePopWakesOnClose(t *testing.T) {
	q := newQueue[string]()
	got := make(chan bool)
	go func() {
		_, ok := q.pop()
		got <- ok
	}()
	time.Sleep(5 * time.Millisecond)
	q.close()
	select {
	case ok := <-got:
		if ok {
			t.Fatal("pop returned an item from an empty queue")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not wake on close")
	}
}
