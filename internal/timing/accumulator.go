package timing

import (
	"context"
	"fmt"
	"time"

	"filetest/internal/pass"
	"filetest/internal/trace"
)

// OrderError reports timing tokens released out of LIFO order. It is raised
// with panic because the accumulated timings can no longer be trusted.
type OrderError struct {
	Ending  pass.Pass // pass whose token is being ended
	Current pass.Pass // pass actually active on the accumulator
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("timing tokens ended out of order: ending %q while %q is active",
		e.Ending.Name(), e.Current.Name())
}

// Accumulator collects pass timings for a single goroutine.
//
// The zero value is not usable; call NewAccumulator. A nil *Accumulator is a
// valid no-op accumulator whose tokens record nothing.
type Accumulator struct {
	current pass.Pass
	times   PassTimes

	tracer trace.Tracer
	root   trace.SpanContext
	span   trace.SpanContext
}

// NewAccumulator returns an empty accumulator with no active pass.
func NewAccumulator() *Accumulator {
	return &Accumulator{current: pass.None, tracer: trace.Nop}
}

// SetTracer makes every token emit a ScopePass span. Spans nest like the
// tokens do; the outermost ones are children of parent.
func (a *Accumulator) SetTracer(t trace.Tracer, parent trace.SpanContext) {
	if a == nil {
		return
	}
	if t == nil {
		t = trace.Nop
	}
	a.tracer = t
	a.root = parent
	a.span = parent
}

// Current returns the pass currently being timed, or pass.None.
func (a *Accumulator) Current() pass.Pass {
	if a == nil {
		return pass.None
	}
	return a.current
}

// Token times one activation of a pass. Obtain it from Start (or one of the
// per-pass helpers) and call End exactly once, normally via defer.
type Token struct {
	acc   *Accumulator
	start time.Time
	pass  pass.Pass
	prev  pass.Pass
	span  *trace.Span
	outer trace.SpanContext
	done  bool
}

// Start begins timing p as a child of the currently active pass.
func (a *Accumulator) Start(p pass.Pass) *Token {
	if a == nil {
		return nil
	}
	prev := a.current
	a.current = p
	tok := &Token{acc: a, pass: p, prev: prev}
	if trace.Enabled(a.tracer) {
		tok.outer = a.span
		tok.span = trace.Begin(a.tracer, trace.ScopePass, p.Name(), a.span)
		a.span = tok.span.Context()
	}
	tok.start = time.Now()
	return tok
}

// Pass returns the pass timed by the token.
func (t *Token) Pass() pass.Pass {
	if t == nil {
		return pass.None
	}
	return t.pass
}

// End stops the token, charging the elapsed time to its pass and to the
// parent's child time. It panics with *OrderError if another token started
// after this one is still live, or if End is called twice.
func (t *Token) End() {
	if t == nil {
		return
	}
	elapsed := time.Since(t.start)
	a := t.acc
	if t.done {
		panic(&OrderError{Ending: t.pass, Current: a.current})
	}
	if a.current != t.pass {
		panic(&OrderError{Ending: t.pass, Current: a.current})
	}
	t.done = true
	a.current = t.prev
	a.times.record(t.pass, t.prev, elapsed)
	if t.span != nil {
		t.span.End("")
		a.span = t.outer
	}
}

// Extract returns the accumulated table and resets it to zero.
func (a *Accumulator) Extract() PassTimes {
	if a == nil {
		return PassTimes{}
	}
	out := a.times
	a.times = PassTimes{}
	return out
}

// Merge adds times into the accumulated table.
func (a *Accumulator) Merge(times PassTimes) {
	if a == nil {
		return
	}
	a.times.Add(&times)
}

// Snapshot returns a copy of the accumulated table without resetting it.
func (a *Accumulator) Snapshot() PassTimes {
	if a == nil {
		return PassTimes{}
	}
	return a.times
}

// Reset forgets the active pass chain. Tokens that are still live become
// stale; ending them reports an OrderError. Used after a job aborted without
// unwinding its tokens.
func (a *Accumulator) Reset() {
	if a == nil {
		return
	}
	a.current = pass.None
	a.span = a.root
}

type ctxKey struct{}

// WithAccumulator attaches acc to ctx.
func WithAccumulator(ctx context.Context, acc *Accumulator) context.Context {
	return context.WithValue(ctx, ctxKey{}, acc)
}

// FromContext returns the accumulator carried by ctx, or nil (a no-op
// accumulator) if there is none.
func FromContext(ctx context.Context) *Accumulator {
	if ctx == nil {
		return nil
	}
	acc, _ := ctx.Value(ctxKey{}).(*Accumulator)
	return acc
}
