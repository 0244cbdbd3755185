package looptree

import (
	"testing"

	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/scope"
)

// buildLoop constructs entry -> header <-> body, header also exiting to a
// sink; header carries the loop condition as a parameter so body's backedge
// closes the cycle.
func buildLoop(t *testing.T) (entry, header, body, exit *ir.Def, sc *scope.Scope) {
	t.Helper()
	b := ir.NewBuilder()
	boolT := b.PrimType(ir.PrimBool)

	exit = b.Lambda(b.Pi(nil), "exit")
	header = b.Lambda(b.Pi([]*ir.Def{boolT}), "header")
	cond, err := b.Param(header, 0)
	if err != nil {
		t.Fatalf("param: %v", err)
	}

	body = b.Lambda(b.Pi(nil), "body")
	falseLit := b.ConstBool(false)
	if err := b.Jump(body, header, []*ir.Def{falseLit}); err != nil {
		t.Fatalf("body jump: %v", err)
	}

	if err := b.Branch(header, cond, body, exit); err != nil {
		t.Fatalf("branch: %v", err)
	}

	entry = b.Lambda(b.Pi(nil), "entry")
	entry.External = true
	trueLit := b.ConstBool(true)
	if err := b.Jump(entry, header, []*ir.Def{trueLit}); err != nil {
		t.Fatalf("entry jump: %v", err)
	}

	sc = scope.New(b, []*ir.Def{entry})
	return entry, header, body, exit, sc
}

func TestLoopTreeFindsCycle(t *testing.T) {
	_, header, body, _, sc := buildLoop(t)
	tree := Build(sc)

	if tree.Depth(header) == 0 {
		t.Fatalf("header depth = 0, want > 0 (it's part of a loop)")
	}
	if tree.Depth(body) != tree.Depth(header) {
		t.Fatalf("body depth (%d) != header depth (%d), want equal", tree.Depth(body), tree.Depth(header))
	}
}

func TestLoopTreeEntryExitOutsideLoop(t *testing.T) {
	entry, header, _, exit, sc := buildLoop(t)
	tree := Build(sc)

	if tree.Depth(entry) != 0 {
		t.Fatalf("entry depth = %d, want 0", tree.Depth(entry))
	}
	if tree.Depth(exit) != 0 {
		t.Fatalf("exit depth = %d, want 0", tree.Depth(exit))
	}
	if tree.Depth(entry) >= tree.Depth(header) {
		t.Fatalf("entry should be strictly shallower than the loop header")
	}
}

func TestLoopTreeHeaderContainsLoopBody(t *testing.T) {
	entry, header, body, _, sc := buildLoop(t)
	tree := Build(sc)

	var loopHeader *Header
	var walk func(n Node)
	walk = func(n Node) {
		if h, ok := n.(*Header); ok {
			for _, l := range h.Lambdas() {
				if l == header {
					loopHeader = h
				}
			}
			for _, c := range h.Children() {
				walk(c)
			}
		}
	}
	for _, c := range tree.Root().Children() {
		walk(c)
	}
	if loopHeader == nil {
		t.Fatalf("no Header node found containing %v", header)
	}
	if !tree.Contains(loopHeader, header) {
		t.Fatalf("loop header does not contain itself in the loop-tree DFS range")
	}
	if !tree.Contains(loopHeader, body) {
		t.Fatalf("loop header does not contain the loop body")
	}
	if tree.Contains(loopHeader, entry) {
		t.Fatalf("loop header should not contain the entry (entry is outside the loop)")
	}
}
