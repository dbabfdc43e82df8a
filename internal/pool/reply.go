package pool

import "fmt"

// Request asks a worker to run one job.
type Request struct {
	JobID int
	Path  string
}

// ReplyKind tags a Reply.
type ReplyKind uint8

const (
	// Tick is the heartbeat; it carries no job data.
	Tick ReplyKind = iota
	// Starting reports that Worker picked up JobID.
	Starting
	// Done carries the Result of JobID.
	Done
)

func (k ReplyKind) String() string {
	switch k {
	case Tick:
		return "tick"
	case Starting:
		return "starting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("ReplyKind(%d)", uint8(k))
	}
}

// Reply is sent from workers and the heartbeat to the caller. For a given
// JobID, Starting is always delivered before Done, both from the same worker.
type Reply struct {
	Kind   ReplyKind
	JobID  int
	Worker int
	Result Result // Done only
}

// Result is the outcome of a job. A nil Err means the job passed.
type Result struct {
	Err error
}

// OK reports whether the job passed.
func (r Result) OK() bool { return r.Err == nil }

// Message returns the failure message, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Status returns "ok" or "fail".
func (r Result) Status() string {
	if r.Err == nil {
		return "ok"
	}
	return "fail"
}
