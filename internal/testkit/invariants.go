// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"

	"filetest/internal/pass"
	"filetest/internal/timing"
)

// CheckTimingInvariants runs the structural invariants of a timing table:
// 1) no pass has more child time than total time (self time is never negative)
// 2) the sentinel pass never carries time
func CheckTimingInvariants(times *timing.PassTimes) error {
	if times == nil {
		return fmt.Errorf("nil timing table")
	}
	for _, p := range pass.All() {
		e := times.Get(p)
		if e.Total < 0 || e.Child < 0 {
			return fmt.Errorf("pass %s has negative time: %+v", p.Name(), e)
		}
		if e.Child > e.Total {
			return fmt.Errorf("pass %s: child time %v exceeds total %v", p.Name(), e.Child, e.Total)
		}
	}
	if e := times.Get(pass.None); e.Total != 0 || e.Child != 0 {
		return fmt.Errorf("sentinel pass carries time: %+v", e)
	}
	return nil
}

// CheckOnlyRan verifies that exactly the passes in want have non-zero totals.
func CheckOnlyRan(times *timing.PassTimes, want ...pass.Pass) error {
	if times == nil {
		return fmt.Errorf("nil timing table")
	}
	expected := make(map[pass.Pass]bool, len(want))
	for _, p := range want {
		expected[p] = true
	}
	ran := times.Ran()
	for _, p := range ran {
		if !expected[p] {
			return fmt.Errorf("unexpected pass %s in timing table", p.Name())
		}
		delete(expected, p)
	}
	for p := range expected {
		return fmt.Errorf("pass %s missing from timing table", p.Name())
	}
	return nil
}
