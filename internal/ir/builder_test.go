package ir

import "testing"

func TestPrimTypeInterning(t *testing.T) {
	b := NewBuilder()
	a := b.PrimType(PrimI32)
	c := b.PrimType(PrimI32)
	if a != c {
		t.Fatalf("PrimType(i32) returned distinct Defs across calls: %p vs %p", a, c)
	}
	if b.PrimType(PrimI64) == a {
		t.Fatalf("PrimType(i64) aliased PrimType(i32)")
	}
}

func TestConstIntMasksToWidth(t *testing.T) {
	b := NewBuilder()
	got := b.ConstInt(PrimU8, 0x1FF)
	if got.IntVal != 0xFF {
		t.Fatalf("ConstInt(u8, 0x1FF) = %#x, want 0xff", got.IntVal)
	}
}

func TestArithFoldsLiterals(t *testing.T) {
	b := NewBuilder()
	x := b.ConstInt(PrimI32, 3)
	y := b.ConstInt(PrimI32, 4)
	sum, err := b.ArithOp(Add, x, y)
	if err != nil {
		t.Fatalf("ArithOp(add) error: %v", err)
	}
	if !sum.IsLiteral() || sum.IntVal != 7 {
		t.Fatalf("3+4 folded to %v, want literal 7", sum)
	}
}

func TestArithDivByZeroYieldsBottom(t *testing.T) {
	b := NewBuilder()
	x := b.ConstInt(PrimI32, 10)
	zero := b.ConstInt(PrimI32, 0)
	result, err := b.ArithOp(SDiv, x, zero)
	if err != nil {
		t.Fatalf("ArithOp(sdiv) error: %v", err)
	}
	if !result.IsBottom() {
		t.Fatalf("sdiv by zero = %v, want Bottom", result)
	}
}

func TestArithBottomPropagates(t *testing.T) {
	b := NewBuilder()
	i32 := b.PrimType(PrimI32)
	bot := b.Bottom(i32)
	x := b.ConstInt(PrimI32, 1)
	result, err := b.ArithOp(Add, bot, x)
	if err != nil {
		t.Fatalf("ArithOp(add) error: %v", err)
	}
	if !result.IsBottom() || result.Type != i32 {
		t.Fatalf("add(bottom, 1) = %v, want Bottom(i32)", result)
	}
}

func TestArithCommutativeCanonicalization(t *testing.T) {
	b := NewBuilder()
	i32 := b.PrimType(PrimI32)
	x, err := b.ArithOp(Add, b.Bottom(i32), b.Bottom(i32))
	_ = x
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := b.Lambda(b.Pi([]*Def{i32}), "f").Params[0]
	five := b.ConstInt(PrimI32, 5)
	var1, err := b.ArithOp(Add, p, five)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var2, err := b.ArithOp(Add, five, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if var1 != var2 {
		t.Fatalf("add(p, 5) and add(5, p) did not unify: %p vs %p", var1, var2)
	}
}

func TestArithTypeMismatchIsConstructionError(t *testing.T) {
	b := NewBuilder()
	x := b.ConstInt(PrimI32, 1)
	y := b.ConstInt(PrimI64, 1)
	if _, err := b.ArithOp(Add, x, y); err == nil {
		t.Fatalf("ArithOp(i32, i64) should have produced a type-mismatch error")
	}
}

func TestRelOpGtNormalizesToLtWithSwap(t *testing.T) {
	b := NewBuilder()
	x := b.ConstInt(PrimI32, 5)
	y := b.ConstInt(PrimI32, 3)

	gt, err := b.RelOp(SGt, x, y) // 5 > 3
	if err != nil {
		t.Fatalf("RelOp(sgt) error: %v", err)
	}
	if !gt.IsLiteral() || gt.IntVal != 1 {
		t.Fatalf("5 sgt 3 = %v, want literal true", gt)
	}

	lt, err := b.RelOp(SLt, y, x) // 3 < 5, should fold to the same result
	if err != nil {
		t.Fatalf("RelOp(slt) error: %v", err)
	}
	if gt != lt {
		t.Fatalf("sgt(5,3) and slt(3,5) did not unify to the same literal")
	}
}

func TestSelectIdentity(t *testing.T) {
	b := NewBuilder()
	x := b.ConstInt(PrimI32, 42)
	i32 := b.PrimType(PrimI32)
	condParam := &Def{Kind: KindParam, Type: b.PrimType(PrimBool)}
	b.Arena().insertNominal(condParam)

	same, err := b.Select(condParam, x, x)
	if err != nil {
		t.Fatalf("select(c,x,x) error: %v", err)
	}
	if same != x {
		t.Fatalf("select(c,x,x) = %v, want x itself", same)
	}

	tru := b.ConstBool(true)
	picked, err := b.Select(tru, x, b.ConstInt(PrimI32, 0))
	if err != nil {
		t.Fatalf("select(true,x,y) error: %v", err)
	}
	if picked != x {
		t.Fatalf("select(true,x,y) = %v, want x", picked)
	}

	bot := b.Bottom(b.PrimType(PrimBool))
	bottomed, err := b.Select(bot, x, b.ConstInt(PrimI32, 0))
	if err != nil {
		t.Fatalf("select(bottom,x,y) error: %v", err)
	}
	if !bottomed.IsBottom() || bottomed.Type != i32 {
		t.Fatalf("select(bottom,x,y) = %v, want Bottom(i32)", bottomed)
	}
}

func TestTupleExtractRoundTrip(t *testing.T) {
	b := NewBuilder()
	a := b.ConstInt(PrimI32, 1)
	bb := b.ConstInt(PrimI32, 2)
	tup := b.Tuple([]*Def{a, bb})

	got, err := b.Extract(tup, 1)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got != bb {
		t.Fatalf("extract(tuple(1,2), 1) = %v, want the literal 2 Def directly", got)
	}
}

func TestInsertExtractConsistency(t *testing.T) {
	b := NewBuilder()
	a := b.ConstInt(PrimI32, 1)
	bb := b.ConstInt(PrimI32, 2)
	tup := b.Tuple([]*Def{a, bb})

	replacement := b.ConstInt(PrimI32, 99)
	updated, err := b.Insert(tup, 0, replacement)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	got0, err := b.Extract(updated, 0)
	if err != nil {
		t.Fatalf("Extract(updated, 0) error: %v", err)
	}
	if got0 != replacement {
		t.Fatalf("extract(insert(t,0,v), 0) = %v, want v", got0)
	}

	got1, err := b.Extract(updated, 1)
	if err != nil {
		t.Fatalf("Extract(updated, 1) error: %v", err)
	}
	if got1 != bb {
		t.Fatalf("extract(insert(t,0,v), 1) = %v, want extract(t,1)", got1)
	}
}

func TestEmptyTupleIsUnit(t *testing.T) {
	b := NewBuilder()
	empty := b.Tuple(nil)
	if empty.Type != b.Unit() {
		t.Fatalf("tuple() has type %v, want the unit sigma", empty.Type)
	}
}

func TestExtractOutOfRangeIsConstructionError(t *testing.T) {
	b := NewBuilder()
	tup := b.Tuple([]*Def{b.ConstInt(PrimI32, 1)})
	if _, err := b.Extract(tup, 5); err == nil {
		t.Fatalf("extract out of range should be a construction error")
	}
}

func TestLambdaJumpMaterializesParamsAndOps(t *testing.T) {
	b := NewBuilder()
	i32 := b.PrimType(PrimI32)
	pi := b.Pi([]*Def{i32})
	callee := b.Lambda(pi, "k")

	pi2 := b.Pi([]*Def{i32})
	lam := b.Lambda(pi2, "f")
	if len(lam.Params) != 1 {
		t.Fatalf("lambda has %d params, want 1", len(lam.Params))
	}
	param := lam.Params[0]
	if param.Owner != lam || param.Index != 0 {
		t.Fatalf("param owner/index wrong: owner=%v index=%d", param.Owner, param.Index)
	}

	if err := b.Jump(lam, callee, []*Def{param}); err != nil {
		t.Fatalf("Jump error: %v", err)
	}
	if !lam.Finalized {
		t.Fatalf("lambda not finalized after jump")
	}
	if lam.Ops[0] != callee || lam.Ops[1] != param {
		t.Fatalf("jump did not wire ops correctly: %v", lam.Ops)
	}
	if param.NumUses() != 1 {
		t.Fatalf("param use-list not updated by jump: %d uses", param.NumUses())
	}
}

func TestJumpArityMismatchIsConstructionError(t *testing.T) {
	b := NewBuilder()
	i32 := b.PrimType(PrimI32)
	pi := b.Pi([]*Def{i32, i32})
	callee := b.Lambda(pi, "k")

	lam := b.Lambda(b.Pi(nil), "f")
	if err := b.Jump(lam, callee, []*Def{b.ConstInt(PrimI32, 1)}); err == nil {
		t.Fatalf("jump with wrong arity should be a construction error")
	}
}

func TestFloatRemUsesMathMod(t *testing.T) {
	b := NewBuilder()
	a := b.ConstFloat(PrimF64, 5.5)
	bb := b.ConstFloat(PrimF64, 2.0)
	result, err := b.ArithOp(FRem, a, bb)
	if err != nil {
		t.Fatalf("ArithOp(frem) error: %v", err)
	}
	if result.FloatVal != 1.5 {
		t.Fatalf("5.5 frem 2.0 = %v, want 1.5", result.FloatVal)
	}
}
