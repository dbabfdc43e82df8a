package pool

import (
	"time"

	"filetest/internal/trace"
)

// heartbeat posts a Tick right away and then once per interval. It stops when
// the reply queue rejects the Tick or Join signals stopBeat.
func (p *Pool) heartbeat() {
	defer close(p.beatDone)

	ticker := time.NewTicker(p.opts.Heartbeat)
	defer ticker.Stop()

	seq := uint64(0)
	for {
		if !p.replies.push(Reply{Kind: Tick, Worker: -1}) {
			return
		}
		seq++
		trace.Tick(p.tracer, seq, p.span.Context())
		select {
		case <-ticker.C:
		case <-p.stopBeat:
			return
		}
	}
}
