package timing

import (
	"fmt"
	"io"
	"strings"
	"time"

	"filetest/internal/pass"
)

const (
	ruleHeavy = "======== ========  ==================================\n"
	ruleLight = "-------- --------  ----------------------------------\n"
)

// String renders the timing table. Passes that never ran are omitted.
func (t *PassTimes) String() string {
	var sb strings.Builder
	_, _ = t.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the timing table to w.
func (t *PassTimes) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString(ruleHeavy)
	sb.WriteString("   Total     Self  Pass\n")
	sb.WriteString(ruleLight)
	for i, e := range t.pass {
		if e.Total == 0 {
			continue
		}
		sb.WriteString(formatDuration(e.Total))
		sb.WriteString(formatDuration(e.Self()))
		sb.WriteString(" ")
		sb.WriteString(pass.Describe(i))
		sb.WriteString("\n")
	}
	sb.WriteString(ruleHeavy)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// formatDuration renders d as "secs.millis " rounded half-up to the millisecond.
func formatDuration(d time.Duration) string {
	d += 500 * time.Microsecond
	secs := d / time.Second
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%4d.%03d ", int64(secs), int64(ms))
}

// PassReport is the exported form of one row of the timing table.
type PassReport struct {
	Name        string  `json:"name" msgpack:"name"`
	Description string  `json:"description" msgpack:"description"`
	TotalMS     float64 `json:"total_ms" msgpack:"total_ms"`
	SelfMS      float64 `json:"self_ms" msgpack:"self_ms"`
}

// Report summarizes a PassTimes table for serialization.
type Report struct {
	// TotalMS is the sum of self times, i.e. wall time spent inside any pass.
	TotalMS float64      `json:"total_ms" msgpack:"total_ms"`
	Passes  []PassReport `json:"passes" msgpack:"passes"`
}

// Report builds the serializable summary, skipping passes that never ran.
func (t *PassTimes) Report() Report {
	var r Report
	for _, p := range t.Ran() {
		e := t.pass[p]
		self := durationToMillis(e.Self())
		r.Passes = append(r.Passes, PassReport{
			Name:        p.Name(),
			Description: p.String(),
			TotalMS:     durationToMillis(e.Total),
			SelfMS:      self,
		})
		r.TotalMS += self
	}
	return r
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
