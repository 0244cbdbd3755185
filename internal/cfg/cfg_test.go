package cfg

import (
	"testing"

	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/scope"
)

// buildChain constructs entry -> mid -> tail, tail left unfinalized as a
// sink, so the scope has exactly three members with no branching.
func buildChain(t *testing.T) (entry, mid, tail *ir.Def, sc *scope.Scope) {
	t.Helper()
	b := ir.NewBuilder()
	tail = b.Lambda(b.Pi(nil), "tail")
	mid = b.Lambda(b.Pi(nil), "mid")
	if err := b.Jump(mid, tail, nil); err != nil {
		t.Fatalf("mid jump: %v", err)
	}
	entry = b.Lambda(b.Pi(nil), "entry")
	entry.External = true
	if err := b.Jump(entry, mid, nil); err != nil {
		t.Fatalf("entry jump: %v", err)
	}
	sc = scope.New(b, []*ir.Def{entry})
	return entry, mid, tail, sc
}

func TestForwardCFGOrder(t *testing.T) {
	entry, mid, tail, sc := buildChain(t)
	view := Forward(sc)

	if view.Entry() != entry {
		t.Fatalf("Entry() = %v, want %v", view.Entry(), entry)
	}
	if view.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", view.Size())
	}
	if view.RPOID(entry) >= view.RPOID(mid) || view.RPOID(mid) >= view.RPOID(tail) {
		t.Fatalf("RPO ids not increasing along the chain: entry=%d mid=%d tail=%d",
			view.RPOID(entry), view.RPOID(mid), view.RPOID(tail))
	}
}

func TestForwardCFGPredsSuccs(t *testing.T) {
	entry, mid, tail, sc := buildChain(t)
	view := Forward(sc)

	succs := view.Succs(entry)
	if len(succs) != 1 || succs[0] != mid {
		t.Fatalf("Succs(entry) = %v, want [mid]", succs)
	}
	preds := view.Preds(tail)
	if len(preds) != 1 || preds[0] != mid {
		t.Fatalf("Preds(tail) = %v, want [mid]", preds)
	}
}

func TestBackwardCFGFlipsDirection(t *testing.T) {
	entry, mid, _, sc := buildChain(t)
	fwd := Forward(sc)
	bwd := Backward(sc)

	if bwd.Succs(mid)[0] != fwd.Preds(mid)[0] {
		t.Fatalf("backward succs should equal forward preds for mid")
	}
	if bwd.Entry() == fwd.Entry() {
		t.Fatalf("backward view entry should be the chain's tail, not %v", entry)
	}
}

func TestCFGBodyExcludesEntry(t *testing.T) {
	entry, _, _, sc := buildChain(t)
	view := Forward(sc)
	for _, d := range view.Body() {
		if d == entry {
			t.Fatalf("Body() included the entry")
		}
	}
	if len(view.Body()) != view.Size()-1 {
		t.Fatalf("Body() has %d elements, want %d", len(view.Body()), view.Size()-1)
	}
}
