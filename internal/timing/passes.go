package timing

import "filetest/internal/pass"

// Per-pass shorthands for Start.

// ProcessFile starts timing: Processing test file.
func (a *Accumulator) ProcessFile() *Token { return a.Start(pass.ProcessFile) }

// ParseText starts timing: Parsing textual IR.
func (a *Accumulator) ParseText() *Token { return a.Start(pass.ParseText) }

// WasmTranslateModule starts timing: Translate WASM module.
func (a *Accumulator) WasmTranslateModule() *Token { return a.Start(pass.WasmTranslateModule) }

// WasmTranslateFunction starts timing: Translate WASM function.
func (a *Accumulator) WasmTranslateFunction() *Token { return a.Start(pass.WasmTranslateFunction) }

// Verifier starts timing: Verify IR.
func (a *Accumulator) Verifier() *Token { return a.Start(pass.Verifier) }

// VerifyCSSA starts timing: Verify CSSA.
func (a *Accumulator) VerifyCSSA() *Token { return a.Start(pass.VerifyCSSA) }

// VerifyLiveness starts timing: Verify live ranges.
func (a *Accumulator) VerifyLiveness() *Token { return a.Start(pass.VerifyLiveness) }

// VerifyLocations starts timing: Verify value locations.
func (a *Accumulator) VerifyLocations() *Token { return a.Start(pass.VerifyLocations) }

// VerifyFlags starts timing: Verify CPU flags.
func (a *Accumulator) VerifyFlags() *Token { return a.Start(pass.VerifyFlags) }

// Compile starts timing: Compilation passes.
func (a *Accumulator) Compile() *Token { return a.Start(pass.Compile) }

// Flowgraph starts timing: Control flow graph.
func (a *Accumulator) Flowgraph() *Token { return a.Start(pass.Flowgraph) }

// Domtree starts timing: Dominator tree.
func (a *Accumulator) Domtree() *Token { return a.Start(pass.Domtree) }

// LoopAnalysis starts timing: Loop analysis.
func (a *Accumulator) LoopAnalysis() *Token { return a.Start(pass.LoopAnalysis) }

// Postopt starts timing: Post-legalization rewriting.
func (a *Accumulator) Postopt() *Token { return a.Start(pass.Postopt) }

// Preopt starts timing: Pre-legalization rewriting.
func (a *Accumulator) Preopt() *Token { return a.Start(pass.Preopt) }

// DCE starts timing: Dead code elimination.
func (a *Accumulator) DCE() *Token { return a.Start(pass.DCE) }

// Legalize starts timing: Legalization.
func (a *Accumulator) Legalize() *Token { return a.Start(pass.Legalize) }

// GVN starts timing: Global value numbering.
func (a *Accumulator) GVN() *Token { return a.Start(pass.GVN) }

// LICM starts timing: Loop invariant code motion.
func (a *Accumulator) LICM() *Token { return a.Start(pass.LICM) }

// UnreachableCode starts timing: Remove unreachable blocks.
func (a *Accumulator) UnreachableCode() *Token { return a.Start(pass.UnreachableCode) }

// Regalloc starts timing: Register allocation.
func (a *Accumulator) Regalloc() *Token { return a.Start(pass.Regalloc) }

// RALiveness starts timing: RA liveness analysis.
func (a *Accumulator) RALiveness() *Token { return a.Start(pass.RALiveness) }

// RACSSA starts timing: RA coalescing CSSA.
func (a *Accumulator) RACSSA() *Token { return a.Start(pass.RACSSA) }

// RASpilling starts timing: RA spilling.
func (a *Accumulator) RASpilling() *Token { return a.Start(pass.RASpilling) }

// RAReload starts timing: RA reloading.
func (a *Accumulator) RAReload() *Token { return a.Start(pass.RAReload) }

// RAColoring starts timing: RA coloring.
func (a *Accumulator) RAColoring() *Token { return a.Start(pass.RAColoring) }

// PrologueEpilogue starts timing: Prologue/epilogue insertion.
func (a *Accumulator) PrologueEpilogue() *Token { return a.Start(pass.PrologueEpilogue) }

// Binemit starts timing: Binary machine code emission.
func (a *Accumulator) Binemit() *Token { return a.Start(pass.Binemit) }

// LayoutRenumber starts timing: Layout full renumbering.
func (a *Accumulator) LayoutRenumber() *Token { return a.Start(pass.LayoutRenumber) }
