package trace

import (
	"strconv"
	"sync/atomic"
	"time"
)

var (
	lastSeq  atomic.Uint64
	lastSpan atomic.Uint64
)

// SpanContext identifies an enclosing span and where it runs.
type SpanContext struct {
	ID     uint64
	Worker int
	Job    int
}

// Root is the context of work that runs outside any span, worker or job.
var Root = SpanContext{Worker: -1, Job: -1}

// On returns sc relocated to a worker and job, keeping the same parent span.
func (sc SpanContext) On(worker, job int) SpanContext {
	sc.Worker = worker
	sc.Job = job
	return sc
}

// Span is an open span. A Span returned for a filtered scope is inert but
// still safe to use.
type Span struct {
	t      Tracer
	ctx    SpanContext
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  []Attr
	ended  bool
}

// Begin opens a span of scope under parent.
func Begin(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	if t == nil || !t.Level().Allows(scope) {
		return &Span{ctx: parent}
	}
	s := &Span{
		t:      t,
		ctx:    SpanContext{ID: lastSpan.Add(1), Worker: parent.Worker, Job: parent.Job},
		parent: parent.ID,
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	t.Emit(s.event(KindBegin, s.start, ""))
	return s
}

// Attr annotates the end event of the span.
func (s *Span) Attr(key, value string) *Span {
	if s.t != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// AttrInt is Attr for integer values.
func (s *Span) AttrInt(key string, value int) *Span {
	if s.t == nil {
		return s
	}
	return s.Attr(key, strconv.Itoa(value))
}

// End closes the span and returns its duration. Ending twice is a no-op.
func (s *Span) End(detail string) time.Duration {
	if s.t == nil || s.ended {
		return 0
	}
	s.ended = true
	now := time.Now()
	ev := s.event(KindEnd, now, detail)
	ev.Attrs = s.attrs
	s.t.Emit(ev)
	return now.Sub(s.start)
}

// Context returns the context children of s should be opened under. An inert
// span passes its parent through.
func (s *Span) Context() SpanContext {
	return s.ctx
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		At:     at,
		Kind:   kind,
		Scope:  s.scope,
		Span:   s.ctx.ID,
		Parent: s.parent,
		Worker: s.ctx.Worker,
		Job:    s.ctx.Job,
		Name:   s.name,
		Detail: detail,
	}
}

// Instant records a point event inside sc.
func Instant(t Tracer, scope Scope, name, detail string, sc SpanContext) {
	if t == nil || !t.Level().Allows(scope) {
		return
	}
	t.Emit(&Event{
		At:     time.Now(),
		Kind:   KindInstant,
		Scope:  scope,
		Parent: sc.ID,
		Worker: sc.Worker,
		Job:    sc.Job,
		Name:   name,
		Detail: detail,
	})
}

// Tick records the n-th heartbeat of the pool span sc.
func Tick(t Tracer, n uint64, sc SpanContext) {
	if t == nil || !t.Level().Allows(ScopePool) {
		return
	}
	t.Emit(&Event{
		At:     time.Now(),
		Kind:   KindTick,
		Scope:  ScopePool,
		Parent: sc.ID,
		Worker: -1,
		Job:    -1,
		Name:   "heartbeat",
		Detail: "#" + strconv.FormatUint(n, 10),
	})
}
