package pool

import (
	"fmt"
	"runtime/debug"

	"filetest/internal/timing"
	"filetest/internal/trace"
)

// worker pulls requests until the request queue is closed and drained. The
// accumulator's table is published in p.results when the worker exits, on
// every exit path.
func (p *Pool) worker(idx int) (err error) {
	acc := timing.NewAccumulator()
	log := p.log.With().Int("worker", idx).Logger()

	inFlight := -1
	clean := false
	defer func() {
		r := recover()
		if oe, ok := r.(*timing.OrderError); ok {
			panic(oe)
		}
		if !clean {
			cause := "worker goroutine exited"
			if r != nil {
				if msg, ok := panicMessage(r); ok {
					cause = msg
				} else {
					cause = fmt.Sprintf("%v", r)
				}
			}
			err = &WorkerExitError{Worker: idx, Cause: cause}
			if inFlight >= 0 {
				p.replies.push(Reply{Kind: Done, JobID: inFlight, Worker: idx, Result: Result{Err: err}})
			}
		}
		p.results[idx] = acc.Extract()
		p.exits[idx] = err
	}()

	log.Debug().Msg("worker started")
	for {
		req, ok := p.requests.pop()
		if !ok {
			break
		}
		trace.Instant(p.tracer, trace.ScopeQueue, "pop", req.Path, p.span.Context().On(idx, req.JobID))

		inFlight = req.JobID
		p.replies.push(Reply{Kind: Starting, JobID: req.JobID, Worker: idx})
		if p.afterStart != nil {
			p.afterStart(idx)
		}

		res := p.runJob(idx, acc, req)
		if !res.OK() {
			log.Debug().Int("job", req.JobID).Str("path", req.Path).Msg("FAIL: " + res.Message())
		}
		p.replies.push(Reply{Kind: Done, JobID: req.JobID, Worker: idx, Result: res})
		inFlight = -1
	}
	log.Debug().Msg("worker exiting")
	clean = true
	return nil
}

// runJob calls the Runner inside the fault boundary: a panic becomes a
// FaultError result and the accumulator's active-pass chain is reset.
func (p *Pool) runJob(idx int, acc *timing.Accumulator, req Request) (res Result) {
	span := trace.Begin(p.tracer, trace.ScopeJob, "job:"+req.Path, p.span.Context().On(idx, req.JobID))
	acc.SetTracer(p.tracer, span.Context())

	ctx := timing.WithAccumulator(p.ctx, acc)
	ctx = trace.WithSpan(ctx, span.Context())

	defer func() {
		if r := recover(); r != nil {
			if oe, ok := r.(*timing.OrderError); ok {
				panic(oe)
			}
			acc.Reset()
			fault := newFault(idx, r, debug.Stack())
			p.log.Warn().
				Int("worker", idx).
				Int("job", req.JobID).
				Str("path", req.Path).
				Str("stack", string(fault.Stack)).
				Msg(fault.Error())
			res = Result{Err: fault}
		}
		span.Attr("result", res.Status()).End(res.Message())
	}()

	return Result{Err: p.run(ctx, req.Path)}
}
