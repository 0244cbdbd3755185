package cleanup

import "github.com/cpsir/core/internal/ir"

// CFGSimplify performs one fixed-point-seeking pass of continuation
// fusion: if a Lambda L jumps to a non-external Lambda T used nowhere
// else, L is rebuilt to jump directly to T's body with T's params
// substituted by L's call arguments, and every caller of L is redirected
// to the fused continuation (spec §4.7). Returns whether anything fused;
// callers loop `for c.CFGSimplify() {}` to iterate to the fixed point.
func (c *Cleanup) CFGSimplify() bool {
	changed := false
	for _, l := range c.lambdas() {
		if !l.Finalized || len(l.Ops) == 0 {
			continue
		}
		callee := l.Ops[0]
		if callee == nil || callee.Kind != ir.KindLambda || callee.External {
			continue
		}
		if callee.NumUses() != 1 {
			continue
		}
		if len(callee.Ops) == 0 || len(callee.Params) != len(l.Ops)-1 {
			continue
		}

		args := l.Ops[1:]
		paramMap := make(map[uint64]*ir.Def, len(callee.Params))
		for i, p := range callee.Params {
			if p != nil {
				paramMap[p.Gid] = args[i]
			}
		}

		memo := make(map[uint64]*ir.Def)
		newCallee := substitute(c.b, callee.Ops[0], paramMap, memo)
		newArgs := make([]*ir.Def, len(callee.Ops)-1)
		for i, a := range callee.Ops[1:] {
			if a == nil {
				continue
			}
			newArgs[i] = substitute(c.b, a, paramMap, memo)
		}

		fused := c.b.Lambda(l.Type, l.Name+".fused")
		fused.External = l.External
		if err := c.b.Jump(fused, newCallee, newArgs); err != nil {
			continue
		}
		c.rw.Replace(l, fused)
		changed = true
	}
	return changed
}

// substitute rebuilds the Def graph rooted at d with every Param in
// paramMap replaced by its mapped value, reusing d unchanged wherever no
// reachable Param actually needs replacing. Lambdas are never descended
// into: fusion only inlines one level of callee body (spec §4.7).
func substitute(b *ir.Builder, d *ir.Def, paramMap map[uint64]*ir.Def, memo map[uint64]*ir.Def) *ir.Def {
	if d == nil {
		return nil
	}
	if v, ok := memo[d.Gid]; ok {
		return v
	}

	if d.Kind == ir.KindParam {
		if v, ok := paramMap[d.Gid]; ok {
			memo[d.Gid] = v
			return v
		}
		memo[d.Gid] = d
		return d
	}
	if d.IsContinuation() || len(d.Ops) == 0 {
		memo[d.Gid] = d
		return d
	}

	newOps := make([]*ir.Def, len(d.Ops))
	changed := false
	for i, op := range d.Ops {
		s := substitute(b, op, paramMap, memo)
		newOps[i] = s
		if s != op {
			changed = true
		}
	}

	result := d
	if changed {
		result = b.Reconstruct(d, newOps)
	}
	memo[d.Gid] = result
	return result
}
