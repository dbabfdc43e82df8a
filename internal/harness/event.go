package harness

import "time"

// Status captures the progress state of one test file.
type Status string

const (
	// StatusQueued indicates the file was submitted but not picked up yet.
	StatusQueued Status = "queued"
	// StatusRunning indicates a worker is executing the file.
	StatusRunning Status = "running"
	// StatusPassed indicates the file passed.
	StatusPassed Status = "passed"
	// StatusFailed indicates the file failed or its runner panicked.
	StatusFailed Status = "failed"
	// StatusStalled indicates the run was abandoned while the file was running.
	StatusStalled Status = "stalled"
)

// Event reports progress for a file.
type Event struct {
	JobID   int
	Path    string
	Status  Status
	Worker  int
	Err     error
	Elapsed time.Duration
}

// Sink consumes progress events. OnEvent is called from the goroutine that
// drives Run.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
