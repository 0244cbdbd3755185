// Package cfg adapts a Scope into the control-flow view the dominator-tree
// and scheduler analyses need: entry/body ordering plus O(1) RPO-id lookup,
// mirroring thorin's CFGView (original_source/src/thorin/analyses/cfg.h,
// consumed by domtree.cpp as cfg().rpo_id(...)).
package cfg

import (
	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/scope"
)

// CFG is a forward or backward view over a Scope's continuations, numbered
// by reverse post-order.
type CFG struct {
	forward bool
	scope   *scope.Scope
	order   []*ir.Def
	rpoID   map[uint64]int
}

// Forward builds the forward CFG view (successors = scope.Succs).
func Forward(sc *scope.Scope) *CFG {
	return build(sc, true, sc.RPO())
}

// Backward builds the backward CFG view (successors = scope.Preds).
func Backward(sc *scope.Scope) *CFG {
	return build(sc, false, sc.BackwardRPO())
}

func build(sc *scope.Scope, forward bool, order []*ir.Def) *CFG {
	c := &CFG{forward: forward, scope: sc, order: order, rpoID: make(map[uint64]int, len(order))}
	for i, d := range order {
		c.rpoID[d.Gid] = i
	}
	return c
}

// Entry returns the CFG's root: the first element of its RPO (the Scope's
// entry for a forward view, or an exit for a backward one). No synthetic
// common root is added: for a scope with several entries or exits, Entry
// returns only the one that comes first in the RPO.
func (c *CFG) Entry() *ir.Def {
	if len(c.order) == 0 {
		return nil
	}
	return c.order[0]
}

// Body returns every non-entry node, in RPO order.
func (c *CFG) Body() []*ir.Def {
	if len(c.order) == 0 {
		return nil
	}
	return c.order[1:]
}

// RPO returns the full RPO-ordered node list, entry included.
func (c *CFG) RPO() []*ir.Def { return c.order }

// RPOID returns d's position in this view's reverse-post-order, used by
// the dominator tree to test "pred dominates lambda" via rpo_id
// comparison (original_source domtree.cpp's `cfg().rpo_id(pred) <
// cfg().rpo_id(lambda)`).
func (c *CFG) RPOID(d *ir.Def) int { return c.rpoID[d.Gid] }

// Preds returns d's predecessors in this view's direction.
func (c *CFG) Preds(d *ir.Def) []*ir.Def {
	if c.forward {
		return c.scope.Preds(d)
	}
	return c.scope.Succs(d)
}

// Succs returns d's successors in this view's direction.
func (c *CFG) Succs(d *ir.Def) []*ir.Def {
	if c.forward {
		return c.scope.Succs(d)
	}
	return c.scope.Preds(d)
}

// Size returns the number of nodes in this view.
func (c *CFG) Size() int { return len(c.order) }
