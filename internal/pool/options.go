package pool

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"filetest/internal/trace"
)

// DefaultHeartbeat is the interval between Tick replies.
const DefaultHeartbeat = time.Second

// Options configure a Pool. Zero values are replaced in FillDefaults.
type Options struct {
	// Workers is the number of worker goroutines; defaults to GOMAXPROCS.
	// The count is not capped.
	Workers int

	// Heartbeat is the Tick interval.
	Heartbeat time.Duration

	// Logger receives worker lifecycle and fault diagnostics.
	Logger *zerolog.Logger

	// Tracer receives pool, job and pass spans. Nil means the tracer from
	// the context passed to New.
	Tracer trace.Tracer
}

// FillDefaults replaces zero values with defaults.
func (o *Options) FillDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}
