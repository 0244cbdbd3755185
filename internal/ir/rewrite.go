package ir

// Rewriter implements the two graph-mutation primitives of spec §4.5:
// update (change a single operand) and replace (redirect every user of one
// Def to another). Both preserve use-consistency (spec §3 invariant 2) and
// structural uniqueness (spec §3 invariant 3) by releasing a structural Def
// from the interner before mutating it and re-interning afterward,
// recursing into any collision this produces.
type Rewriter struct {
	arena *Arena
}

// NewRewriter creates a Rewriter over arena.
func NewRewriter(arena *Arena) *Rewriter {
	return &Rewriter{arena: arena}
}

// Update swaps def.Ops[i] for newOp. If def is structural and the mutation
// produces a twin already resident in the interner, every user of def is
// rewritten to the twin and def is dropped; Update returns whichever Def
// now stands for the mutated node.
func (r *Rewriter) Update(def *Def, i int, newOp *Def) *Def {
	if def.Nominal {
		setOp(def, i, newOp)
		return def
	}

	r.arena.release(def)
	setOp(def, i, newOp)
	resident := r.arena.reinsert(def)
	if resident != def {
		r.Replace(def, resident)
		return resident
	}
	return def
}

// Replace re-points every user of what to with, preserving operand indices,
// and (when what/with are both Lambdas of compatible pi) re-points what's
// Params to with's corresponding Params too, recursing into any collisions
// this produces (spec §4.5).
func (r *Rewriter) Replace(what, with *Def) {
	if what == with {
		return
	}

	for _, edge := range what.Uses() {
		u, i := edge.User, edge.Index
		if u.Ops[i] != what {
			continue // already rewritten by an earlier collision in this pass
		}
		r.rewriteOperand(u, i, with)
	}

	if what.IsContinuation() && with.IsContinuation() && len(what.Params) == len(with.Params) {
		for i, oldParam := range what.Params {
			r.Replace(oldParam, with.Params[i])
		}
	}

	r.Erase(what)
}

// Erase detaches d from every operand it references (dropping its
// use-list back-edges) and removes it from the arena. Used by Cleanup once
// reachability analysis has determined d is dead; d must have no
// remaining users, since Erase does not rewire them.
func (r *Rewriter) Erase(d *Def) {
	r.arena.release(d)
	for i := range d.Ops {
		setOp(d, i, nil)
	}
	r.arena.erase(d)
}

func (r *Rewriter) rewriteOperand(u *Def, i int, with *Def) {
	if u.Nominal {
		setOp(u, i, with)
		return
	}

	r.arena.release(u)
	setOp(u, i, with)
	resident := r.arena.reinsert(u)
	if resident != u {
		r.Replace(u, resident)
	}
}
