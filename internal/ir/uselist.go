package ir

// setOp assigns d.Ops[i] = v, maintaining the use-list invariant of spec §3
// invariant 2 and the bookkeeping procedure of spec §4.3: remove the old
// back-edge (if any), assign, then insert the new back-edge. d.Ops must
// already have length > i (grown by the caller, e.g. during Lambda
// finalization or Rewriter mutation).
func setOp(d *Def, i int, v *Def) {
	if prior := d.Ops[i]; prior != nil {
		edge := useEdge{User: d, Index: i}
		delete(prior.uses, edge)
	}

	d.Ops[i] = v

	if v != nil {
		if v.uses == nil {
			v.uses = make(map[useEdge]struct{})
		}
		v.uses[useEdge{User: d, Index: i}] = struct{}{}
	}
}

// setOps registers every operand of a freshly-built Def in one pass. Used by
// Builder constructors at finalization time (spec §4.3: "Constructors
// perform this registration once, at finalization").
func setOps(d *Def, ops []*Def) {
	d.Ops = make([]*Def, len(ops))
	for i, op := range ops {
		setOp(d, i, op)
	}
}
