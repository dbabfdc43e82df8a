package timing

import (
	"time"

	"filetest/internal/pass"
)

// PassTime is the accumulated timing of a single pass.
type PassTime struct {
	// Total is the time spent in the pass including nested passes.
	Total time.Duration
	// Child is the part of Total spent in nested passes.
	Child time.Duration
}

// Self returns the time spent in the pass itself, clamped at zero.
func (t PassTime) Self() time.Duration {
	if t.Child > t.Total {
		return 0
	}
	return t.Total - t.Child
}

// PassTimes holds one PassTime per catalogued pass.
type PassTimes struct {
	pass [pass.Count]PassTime
}

// Get returns the entry for p; the sentinel and out-of-range values yield zero.
func (t *PassTimes) Get(p pass.Pass) PassTime {
	if !p.Valid() {
		return PassTime{}
	}
	return t.pass[p]
}

// Add folds other into t entry by entry.
func (t *PassTimes) Add(other *PassTimes) {
	if other == nil {
		return
	}
	for i := range t.pass {
		t.pass[i].Total += other.pass[i].Total
		t.pass[i].Child += other.pass[i].Child
	}
}

// IsZero reports whether no pass recorded any time.
func (t *PassTimes) IsZero() bool {
	for _, e := range t.pass {
		if e.Total != 0 || e.Child != 0 {
			return false
		}
	}
	return true
}

// Ran returns the passes with a non-zero total in catalogue order.
func (t *PassTimes) Ran() []pass.Pass {
	var out []pass.Pass
	for i, e := range t.pass {
		if e.Total != 0 {
			out = append(out, pass.Pass(i))
		}
	}
	return out
}

func (t *PassTimes) record(p, parent pass.Pass, d time.Duration) {
	t.pass[p].Total += d
	if parent.Valid() {
		t.pass[parent].Child += d
	}
}
