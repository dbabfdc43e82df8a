// Package trace records pool, job and pass spans of a test run.
//
// Spans nest the way the run does: the pool span contains one job span per
// test file, and each job span contains the timed passes of that file. A
// Recorder writes events as they happen, keeps the most recent ones in a ring
// for post-mortem dumps, or both.
//
//	rec, _ := trace.New(trace.Config{Level: trace.LevelDetail, Mode: trace.ModeStream, OutputPath: "run.json"})
//	ctx = trace.WithTracer(ctx, rec)
//	defer rec.Close()
package trace

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Tracer receives events. Emit must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
}

// Enabled reports whether t records anything at all.
func Enabled(t Tracer) bool {
	return t != nil && t.Level() > LevelOff
}

// Level controls which scopes are recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // pool lifecycle only
	LevelPhase        // plus job boundaries
	LevelDetail       // plus timed passes
	LevelDebug        // plus queue traffic
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel converts a flag or config value into a Level. The empty string
// is LevelOff.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected %s)", s, strings.Join(levelNames[:], "|"))
}

// Allows reports whether events of scope are recorded at level l.
func (l Level) Allows(scope Scope) bool {
	return l > LevelOff && scope != 0 && uint8(scope) <= uint8(l)
}

// Scope is the granularity of an event. Its numeric value is the lowest
// Level that records it.
type Scope uint8

const (
	ScopePool  Scope = iota + 1 // construction, heartbeat, join
	ScopeJob                    // one test file on one worker
	ScopePass                   // a timed pass inside a job
	ScopeQueue                  // submit and pop
)

func (s Scope) String() string {
	switch s {
	case ScopePool:
		return "pool"
	case ScopeJob:
		return "job"
	case ScopePass:
		return "pass"
	case ScopeQueue:
		return "queue"
	}
	return "unknown"
}

// Kind distinguishes span boundaries from instants.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindInstant
	KindTick
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindInstant:
		return "instant"
	case KindTick:
		return "tick"
	}
	return "unknown"
}

// Attr is an ordered key/value annotation.
type Attr struct {
	Key   string
	Value string
}

// Event is one trace record. Worker and Job are -1 outside a worker or job.
type Event struct {
	Seq    uint64
	At     time.Time
	Kind   Kind
	Scope  Scope
	Span   uint64
	Parent uint64
	Worker int
	Job    int
	Name   string
	Detail string
	Attrs  []Attr
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }
func (nopTracer) Level() Level { return LevelOff }

// Nop discards everything.
var Nop Tracer = nopTracer{}

type tracerKey struct{}
type spanKey struct{}

// WithTracer attaches t to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// WithSpan records sc as the enclosing span of work done under ctx.
func WithSpan(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanKey{}, sc)
}

// SpanFrom returns the enclosing span of ctx. Without one, the result has no
// span and no worker or job.
func SpanFrom(ctx context.Context) SpanContext {
	if ctx != nil {
		if sc, ok := ctx.Value(spanKey{}).(SpanContext); ok {
			return sc
		}
	}
	return Root
}
