// Package pool runs test jobs on a fixed set of worker goroutines.
//
// A Pool owns one unbounded request queue shared by every worker, one reply
// queue read by the caller, and a heartbeat goroutine that posts a Tick reply
// once per interval so a polling caller can notice when nothing progresses.
//
// Lifecycle
//
//	p := pool.New(ctx, run, pool.Options{})
//	p.Submit(1, "a.clif")
//	p.Shutdown()               // no more submissions, queued jobs still run
//	for r, ok := p.Receive(); ok; r, ok = p.Receive() { ... }
//	err := p.Join(acc)         // merge worker pass timings into acc
//
// Each worker owns a timing.Accumulator that travels to the Runner through
// the job context. Panics raised by a Runner are recovered at the worker
// boundary and reported as a failed Done reply; the worker keeps going.
// A timing.OrderError is the exception: it is re-raised, since it means pass
// timings are corrupt.
//
// There is no cancellation of a running job. Callers that want a timeout count
// Tick replies since the last Starting or Done and stop waiting on their own.
package pool
