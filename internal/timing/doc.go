// Package timing measures how long each compiler pass takes.
//
// Every worker owns one Accumulator. Passes are timed with scoped tokens that
// must be ended in LIFO order:
//
//	acc := timing.FromContext(ctx)
//	defer acc.Compile().End()
//
// A nested pass charges its elapsed time to its own Total and to the Child
// time of the pass it interrupted, so Self time (Total minus Child) never
// counts nested work twice.
//
// Accumulators are never shared between goroutines. Results from several
// workers are combined with Extract on the worker and Merge on the collector.
package timing
