// Package cleanup implements the core's dead-code elimination passes:
// unreachable-code elimination (uce), dead-code elimination (dce),
// continuation fusion (cfg_simplify), and the parameter-gap normalization
// that follows it (param_opt), ported from spec §4.6-§4.7 and the control-
// flow-graph simplification conventions of
// original_source/src/thorin/transform/cleanup_world.cpp.
package cleanup

import (
	"github.com/cpsir/core/internal/ir"
)

// Cleanup runs the dead-code and control-flow simplification passes over
// one Builder's Arena.
type Cleanup struct {
	b  *ir.Builder
	rw *ir.Rewriter
}

// New creates a Cleanup over b.
func New(b *ir.Builder) *Cleanup {
	return &Cleanup{b: b, rw: ir.NewRewriter(b.Arena())}
}

func (c *Cleanup) lambdas() []*ir.Def {
	var out []*ir.Def
	for _, d := range c.b.Arena().Defs() {
		if d.Kind == ir.KindLambda {
			out = append(out, d)
		}
	}
	return out
}

func (c *Cleanup) externals() []*ir.Def {
	var out []*ir.Def
	for _, d := range c.lambdas() {
		if d.External {
			out = append(out, d)
		}
	}
	return out
}

// callersOf returns every finalized Lambda whose jump calls lam (lam
// appears at operand index 0 of the caller's ops).
func callersOf(lam *ir.Def) []*ir.Def {
	var out []*ir.Def
	for _, edge := range lam.Uses() {
		if edge.Index == 0 && edge.User.Kind == ir.KindLambda {
			out = append(out, edge.User)
		}
	}
	return out
}

// successorLambdas walks d's ops (recursing through pure data, stopping at
// any Lambda found) to find the continuations directly reachable from d,
// matching scope.Successors without importing the scope package (cleanup
// runs before a Scope need exist, e.g. over an entire World).
func successorLambdas(d *ir.Def) []*ir.Def {
	var out []*ir.Def
	seen := make(map[uint64]bool)
	var walk func(cur *ir.Def)
	walk = func(cur *ir.Def) {
		for _, op := range cur.Ops {
			if op == nil || seen[op.Gid] {
				continue
			}
			seen[op.Gid] = true
			if op.Kind == ir.KindLambda {
				out = append(out, op)
				continue
			}
			walk(op)
		}
	}
	walk(d)
	return out
}

// UCE deletes every Lambda not reachable from an external Lambda via the
// callee/argument graph (spec §4.6).
func (c *Cleanup) UCE() {
	marked := make(map[uint64]bool)
	var visit func(d *ir.Def)
	visit = func(d *ir.Def) {
		if marked[d.Gid] {
			return
		}
		marked[d.Gid] = true
		for _, s := range successorLambdas(d) {
			visit(s)
		}
	}
	for _, e := range c.externals() {
		visit(e)
	}

	for _, d := range c.lambdas() {
		if !marked[d.Gid] {
			for _, p := range d.Params {
				if p != nil {
					c.rw.Erase(p)
				}
			}
			c.rw.Erase(d)
		}
	}
}

// DCE deletes every Def not transitively needed by an external Lambda:
// reachable through type/ops edges, through a Lambda's callers, and
// through a Param's phi edges (the corresponding argument position in
// every caller) (spec §4.6). Every Def that uses a Param of an external
// Lambda is a mark root, so it stays live even when nothing else needs it.
func (c *Cleanup) DCE() {
	marked := make(map[uint64]bool)
	var mark func(d *ir.Def)
	mark = func(d *ir.Def) {
		if d == nil || marked[d.Gid] {
			return
		}
		marked[d.Gid] = true
		if d.Type != nil {
			mark(d.Type)
		}
		for _, op := range d.Ops {
			mark(op)
		}
		switch d.Kind {
		case ir.KindLambda:
			for _, caller := range callersOf(d) {
				mark(caller)
			}
		case ir.KindParam:
			for _, caller := range callersOf(d.Owner) {
				idx := 1 + d.Index
				if idx < len(caller.Ops) {
					mark(caller.Ops[idx])
				}
			}
		}
	}

	for _, e := range c.externals() {
		mark(e)
		for _, p := range e.Params {
			if p == nil {
				continue // already swept by an earlier DCE
			}
			for _, edge := range p.Uses() {
				mark(edge.User)
			}
		}
	}

	for _, d := range c.b.Arena().Defs() {
		if marked[d.Gid] {
			continue
		}
		if d.Kind == ir.KindParam && d.Owner != nil {
			owner := d.Owner
			if owner.Params != nil && d.Index < len(owner.Params) && owner.Params[d.Index] == d {
				owner.Params[d.Index] = nil
			}
		}
		c.rw.Erase(d)
	}
}

// Run performs cleanup() = uce(); dce() (spec §4.6).
func (c *Cleanup) Run() {
	c.UCE()
	c.DCE()
}

// Opt performs opt() = cleanup; cfg_simplify; cleanup; param_opt; cleanup
// (spec §4.6).
func (c *Cleanup) Opt() {
	c.Run()
	for c.CFGSimplify() {
	}
	c.Run()
	c.ParamOpt()
	c.Run()
}
