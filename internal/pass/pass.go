// Package pass defines the closed catalogue of compilation passes whose
// execution time is tracked by the timing package.
package pass

// Pass identifies a timed compilation phase.
//
// Values are dense indices into the catalogue; None is the sentinel meaning
// "no pass is active" and is equal to Count.
type Pass uint8

const (
	ProcessFile Pass = iota
	ParseText
	WasmTranslateModule
	WasmTranslateFunction

	Verifier
	VerifyCSSA
	VerifyLiveness
	VerifyLocations
	VerifyFlags

	Compile
	Flowgraph
	Domtree
	LoopAnalysis
	Postopt
	Preopt
	DCE
	Legalize
	GVN
	LICM
	UnreachableCode

	Regalloc
	RALiveness
	RACSSA
	RASpilling
	RAReload
	RAColoring

	PrologueEpilogue
	Binemit
	LayoutRenumber

	// None marks the absence of an active pass.
	None
)

// Count is the number of catalogued passes.
const Count = int(None)

type entry struct {
	name string
	desc string
}

// catalogue is indexed by Pass and must stay in declaration order.
var catalogue = [Count]entry{
	{"process_file", "Processing test file"},
	{"parse_text", "Parsing textual IR"},
	{"wasm_translate_module", "Translate WASM module"},
	{"wasm_translate_function", "Translate WASM function"},

	{"verifier", "Verify IR"},
	{"verify_cssa", "Verify CSSA"},
	{"verify_liveness", "Verify live ranges"},
	{"verify_locations", "Verify value locations"},
	{"verify_flags", "Verify CPU flags"},

	{"compile", "Compilation passes"},
	{"flowgraph", "Control flow graph"},
	{"domtree", "Dominator tree"},
	{"loop_analysis", "Loop analysis"},
	{"postopt", "Post-legalization rewriting"},
	{"preopt", "Pre-legalization rewriting"},
	{"dce", "Dead code elimination"},
	{"legalize", "Legalization"},
	{"gvn", "Global value numbering"},
	{"licm", "Loop invariant code motion"},
	{"unreachable_code", "Remove unreachable blocks"},

	{"regalloc", "Register allocation"},
	{"ra_liveness", "RA liveness analysis"},
	{"ra_cssa", "RA coalescing CSSA"},
	{"ra_spilling", "RA spilling"},
	{"ra_reload", "RA reloading"},
	{"ra_coloring", "RA coloring"},

	{"prologue_epilogue", "Prologue/epilogue insertion"},
	{"binemit", "Binary machine code emission"},
	{"layout_renumber", "Layout full renumbering"},
}

const noPass = "<no pass>"

// Index returns the zero-based catalogue index of p.
func (p Pass) Index() int { return int(p) }

// Valid reports whether p is a catalogued pass (not None or out of range).
func (p Pass) Valid() bool { return int(p) < Count }

// String returns the human-readable description of p.
func (p Pass) String() string {
	if !p.Valid() {
		return noPass
	}
	return catalogue[p].desc
}

// Name returns the snake_case identifier of p.
func (p Pass) Name() string {
	if !p.Valid() {
		return "none"
	}
	return catalogue[p].name
}

// Describe returns the description for a raw index, tolerating out-of-range values.
func Describe(idx int) string {
	if idx < 0 || idx >= Count {
		return noPass
	}
	return catalogue[idx].desc
}

// All returns every catalogued pass in declaration order.
func All() []Pass {
	out := make([]Pass, Count)
	for i := range out {
		out[i] = Pass(i)
	}
	return out
}

// Lookup finds a pass by its snake_case name.
func Lookup(name string) (Pass, bool) {
	for i, e := range catalogue {
		if e.name == name {
			return Pass(i), true
		}
	}
	return None, false
}
