package schedule

import (
	"testing"

	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/scope"
)

// buildDiamond constructs entry(x, cond) -branch-> {t, f}, each of which
// jumps to merge passing y = x+1 as its first argument (computed once and
// shared via hash-consing) and a second, arm-specific value: t passes y
// again, f passes w = x*2, a value used only on that one path.
func buildDiamond(t *testing.T) (entry, tArm, fArm, merge *ir.Def, y, w *ir.Def, sc *scope.Scope) {
	t.Helper()
	b := ir.NewBuilder()
	i32 := b.PrimType(ir.PrimI32)
	boolT := b.PrimType(ir.PrimBool)

	merge = b.Lambda(b.Pi([]*ir.Def{i32, i32}), "merge")
	tArm = b.Lambda(b.Pi(nil), "t")
	fArm = b.Lambda(b.Pi(nil), "f")

	entry = b.Lambda(b.Pi([]*ir.Def{i32, boolT}), "entry")
	entry.External = true
	x, err := b.Param(entry, 0)
	if err != nil {
		t.Fatalf("param x: %v", err)
	}
	cond, err := b.Param(entry, 1)
	if err != nil {
		t.Fatalf("param cond: %v", err)
	}

	one := b.ConstInt(ir.PrimI32, 1)
	two := b.ConstInt(ir.PrimI32, 2)
	y, err = b.ArithOp(ir.Add, x, one)
	if err != nil {
		t.Fatalf("y = x+1: %v", err)
	}
	w, err = b.ArithOp(ir.Mul, x, two)
	if err != nil {
		t.Fatalf("w = x*2: %v", err)
	}

	if err := b.Jump(tArm, merge, []*ir.Def{y, y}); err != nil {
		t.Fatalf("t jump: %v", err)
	}
	if err := b.Jump(fArm, merge, []*ir.Def{y, w}); err != nil {
		t.Fatalf("f jump: %v", err)
	}
	if err := b.Branch(entry, cond, tArm, fArm); err != nil {
		t.Fatalf("branch: %v", err)
	}

	sc = scope.New(b, []*ir.Def{entry})
	return entry, tArm, fArm, merge, y, w, sc
}

func TestScheduleEarlyPlacesAtOperandDefiningBlock(t *testing.T) {
	entry, _, _, _, y, w, sc := buildDiamond(t)
	s := New(sc)

	if s.Early(y) != entry {
		t.Fatalf("Early(y) = %v, want entry", s.Early(y))
	}
	if s.Early(w) != entry {
		t.Fatalf("Early(w) = %v, want entry", s.Early(w))
	}
}

func TestScheduleLateMergesAcrossBranches(t *testing.T) {
	entry, _, _, _, y, _, sc := buildDiamond(t)
	s := New(sc)

	if s.Late(y) != entry {
		t.Fatalf("Late(y) = %v, want entry (LCA of its uses on both arms)", s.Late(y))
	}
}

func TestScheduleLateSinksSingleUseValue(t *testing.T) {
	_, _, fArm, _, _, w, sc := buildDiamond(t)
	s := New(sc)

	if s.Late(w) != fArm {
		t.Fatalf("Late(w) = %v, want f (its only use)", s.Late(w))
	}
}

func TestScheduleSmartStaysLateWithoutLoops(t *testing.T) {
	_, _, fArm, _, _, w, sc := buildDiamond(t)
	s := New(sc)

	if s.Smart(w) != s.Late(w) {
		t.Fatalf("Smart(w) = %v, Late(w) = %v: with no loops smart should match late", s.Smart(w), s.Late(w))
	}
	if s.Smart(w) != fArm {
		t.Fatalf("Smart(w) = %v, want f", s.Smart(w))
	}
}

func TestScheduleBlockOrderStartsAtEntry(t *testing.T) {
	entry, _, _, _, _, _, sc := buildDiamond(t)
	s := New(sc)
	order := s.BlockOrder()
	if len(order) == 0 || order[0] != entry {
		t.Fatalf("BlockOrder()[0] = %v, want entry", order[0])
	}
}
