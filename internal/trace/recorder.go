package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultRingSize is the ring capacity used when none is configured.
const DefaultRingSize = 4096

// Mode selects where a Recorder keeps events.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // write every event to the output
	ModeRing                   // keep the last RingSize events in memory
	ModeBoth
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	}
	return "unknown"
}

// ParseMode converts a flag or config value into a Mode. The empty string is
// ModeStream.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	}
	return 0, fmt.Errorf("invalid trace mode %q (expected stream|ring|both)", s)
}

// Config describes a Recorder.
type Config struct {
	Level Level
	Mode  Mode

	// Format of the stream output. FormatAuto picks it from OutputPath.
	Format Format

	// Output overrides OutputPath. It is not closed by the Recorder.
	Output io.Writer

	// OutputPath is a file path; "" and "-" mean stderr.
	OutputPath string

	RingSize int
}

// New returns Nop when cfg.Level is LevelOff and a *Recorder otherwise.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Mode == 0 {
		cfg.Mode = ModeStream
	}
	ringSize := 0
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		ringSize = cfg.RingSize
		if ringSize <= 0 {
			ringSize = DefaultRingSize
		}
	}
	rec := NewRecorder(cfg.Level, ringSize)
	if cfg.Mode == ModeRing {
		return rec, nil
	}

	format := cfg.Format
	if format == FormatAuto {
		format = formatFor(cfg.OutputPath)
	}
	switch {
	case cfg.Output != nil:
		rec.streamTo(cfg.Output, nil, format, true)
	case cfg.OutputPath == "" || cfg.OutputPath == "-":
		rec.streamTo(os.Stderr, nil, format, true)
	default:
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		rec.streamTo(f, f, format, false)
	}
	return rec, nil
}

// Recorder streams events to a writer, keeps them in a ring, or both.
type Recorder struct {
	level Level

	mu        sync.Mutex
	out       *bufio.Writer
	closer    io.Closer
	format    Format
	autoFlush bool // unbuffered outputs such as stderr
	written   int
	closed    bool

	ring    []Event
	next    int
	wrapped bool
}

// NewRecorder returns a Recorder that keeps the last ringSize events.
// A zero ringSize disables the ring. Nothing is streamed until an output is
// attached by New.
func NewRecorder(level Level, ringSize int) *Recorder {
	r := &Recorder{level: level}
	if ringSize > 0 {
		r.ring = make([]Event, ringSize)
	}
	return r
}

func (r *Recorder) streamTo(w io.Writer, closer io.Closer, format Format, autoFlush bool) {
	r.out = bufio.NewWriter(w)
	r.closer = closer
	r.format = format
	r.autoFlush = autoFlush
	if format == FormatChrome {
		_, _ = r.out.WriteString("{\"traceEvents\":[\n")
	}
}

// Emit records ev. Write errors are dropped; tracing never fails a run.
func (r *Recorder) Emit(ev *Event) {
	if !r.level.Allows(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	ev.Seq = lastSeq.Add(1)
	if r.ring != nil {
		stored := *ev
		stored.Attrs = append([]Attr(nil), ev.Attrs...)
		r.ring[r.next] = stored
		r.next++
		if r.next == len(r.ring) {
			r.next = 0
			r.wrapped = true
		}
	}
	if r.out != nil {
		if r.format == FormatChrome && r.written > 0 {
			_, _ = r.out.WriteString(",\n")
		}
		_, _ = r.out.Write(AppendEvent(nil, ev, r.format))
		r.written++
		if r.autoFlush {
			_ = r.out.Flush()
		}
	}
}

// Snapshot returns the ring contents, oldest first.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.wrapped {
		return append([]Event(nil), r.ring[:r.next]...)
	}
	out := make([]Event, 0, len(r.ring))
	out = append(out, r.ring[r.next:]...)
	return append(out, r.ring[:r.next]...)
}

// HasRing reports whether the recorder keeps recent events in memory.
func (r *Recorder) HasRing() bool { return r.ring != nil }

// DumpRing writes the ring contents to w, one event per line.
func (r *Recorder) DumpRing(w io.Writer, format Format) error {
	if format == FormatChrome {
		format = FormatNDJSON
	}
	var buf []byte
	for _, ev := range r.Snapshot() {
		buf = AppendEvent(buf, &ev, format)
	}
	_, err := w.Write(buf)
	return err
}

// Flush writes buffered stream output.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	return r.out.Flush()
}

// Close terminates the stream, flushes it and closes an owned output file.
// Events emitted after Close are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.out == nil {
		return nil
	}
	if r.format == FormatChrome {
		_, _ = r.out.WriteString("\n]}\n")
	}
	err := r.out.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Level returns the configured level.
func (r *Recorder) Level() Level { return r.level }

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".json":
		return FormatChrome
	}
	return FormatText
}
