package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrShutdown is returned by Submit once Shutdown has been called.
	ErrShutdown = errors.New("pool: cannot submit after shutdown")
	// ErrNotShutdown is returned by Join when Shutdown has not been called.
	ErrNotShutdown = errors.New("pool: must shutdown before join")
	// ErrJoined is returned by a second Join.
	ErrJoined = errors.New("pool: already joined")
)

// FaultError is the failure reported for a job whose Runner panicked.
type FaultError struct {
	Worker int
	Msg    string // empty when the panic value carried no readable message
	Value  any    // the recovered panic value
	Stack  []byte
}

func (e *FaultError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("panicked in worker #%d", e.Worker)
	}
	return fmt.Sprintf("panicked in worker #%d: %s", e.Worker, e.Msg)
}

// Unwrap exposes an error panic value to errors.Is and errors.As.
func (e *FaultError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func newFault(worker int, v any, stack []byte) *FaultError {
	msg, _ := panicMessage(v)
	return &FaultError{Worker: worker, Msg: msg, Value: v, Stack: stack}
}

// panicMessage extracts a readable message from a recovered value.
func panicMessage(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case error:
		return x.Error(), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

// WorkerExitError reports a worker goroutine that stopped abnormally, outside
// of any job's fault boundary.
type WorkerExitError struct {
	Worker int
	Cause  string
}

func (e *WorkerExitError) Error() string {
	return fmt.Sprintf("worker #%d exited abnormally: %s", e.Worker, e.Cause)
}
