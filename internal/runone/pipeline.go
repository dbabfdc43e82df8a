package runone

import (
	"filetest/internal/pass"
	"filetest/internal/timing"
)

// stage is a timed pass together with the passes it invokes.
type stage struct {
	pass     pass.Pass
	children []stage
}

func leaf(p pass.Pass) stage { return stage{pass: p} }

func nest(p pass.Pass, children ...stage) stage { return stage{pass: p, children: children} }

func runStages(acc *timing.Accumulator, stages []stage) {
	for _, s := range stages {
		tok := acc.Start(s.pass)
		runStages(acc, s.children)
		tok.End()
	}
}

var cfg = []stage{leaf(pass.Flowgraph), leaf(pass.Domtree)}

var verify = nest(pass.Verifier, leaf(pass.VerifyLiveness), leaf(pass.VerifyLocations), leaf(pass.VerifyFlags))

var regalloc = nest(pass.Regalloc,
	nest(pass.RALiveness, leaf(pass.Flowgraph)),
	leaf(pass.RACSSA),
	leaf(pass.RASpilling),
	leaf(pass.RAReload),
	leaf(pass.RAColoring),
	leaf(pass.VerifyCSSA),
)

// pipelines maps test commands to the passes they time.
var pipelines = map[string][]stage{
	"cat":        nil,
	"verifier":   {verify},
	"domtree":    cfg,
	"dce":        append(append([]stage{}, cfg...), leaf(pass.DCE)),
	"licm":       append(append([]stage{}, cfg...), leaf(pass.LoopAnalysis), leaf(pass.LICM)),
	"simple-gvn": append(append([]stage{}, cfg...), leaf(pass.GVN)),
	"legalizer":  {leaf(pass.Legalize), verify},
	"preopt":     {leaf(pass.Preopt)},
	"postopt":    {leaf(pass.Postopt)},
	"regalloc":   {regalloc},
	"binemit":    {leaf(pass.Binemit), leaf(pass.LayoutRenumber)},
	"wasm":       {nest(pass.WasmTranslateModule, leaf(pass.WasmTranslateFunction))},
	"compile": {nest(pass.Compile,
		leaf(pass.Flowgraph),
		leaf(pass.Domtree),
		leaf(pass.Preopt),
		leaf(pass.Legalize),
		leaf(pass.Postopt),
		leaf(pass.UnreachableCode),
		regalloc,
		leaf(pass.PrologueEpilogue),
		leaf(pass.Binemit),
		leaf(pass.LayoutRenumber),
		verify,
	)},
}
