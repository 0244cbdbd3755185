package cleanup

// ParamOpt patches the gap DCE leaves behind when it nils Param i of a
// Lambda because nothing used it: every caller's argument at that position
// is still the expression that used to feed the dead param, so it is
// replaced with a typed Bottom. That keeps call arity aligned with the
// pi's domain and turns the caller's now-irrelevant argument into dead
// code a following DCE pass can collect, unless that argument uses a Param
// of an external Lambda, which DCE always keeps live (spec §4.7's "insert Bottom
// arguments at missing positions in every caller so that the call's arity
// matches the pi").
func (c *Cleanup) ParamOpt() {
	for _, l := range c.lambdas() {
		if l.Params == nil {
			continue
		}
		domain := c.b.PiDomain(l.Type)
		for i, p := range l.Params {
			if p != nil || i >= len(domain) {
				continue
			}
			bottomVal := c.b.Bottom(domain[i])
			for _, caller := range callersOf(l) {
				idx := 1 + i
				if idx < len(caller.Ops) && caller.Ops[idx] != bottomVal {
					c.rw.Update(caller, idx, bottomVal)
				}
			}
		}
	}
}
