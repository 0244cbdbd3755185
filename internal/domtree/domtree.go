// Package domtree computes the dominator tree of a cfg.CFG view using the
// Cooper-Harvey-Kennedy iterative algorithm ("A Simple, Fast Dominance
// Algorithm", 2001), ported from
// original_source/src/thorin/analyses/domtree.cpp: seed each non-entry
// node's idom with its first RPO-earlier predecessor, then repeatedly
// replace it with the LCA, in the current tree, of all its predecessors
// that already have an idom, until no node's idom changes.
package domtree

import (
	"strings"

	"github.com/cpsir/core/internal/cfg"
	"github.com/cpsir/core/internal/ir"
)

// Node is a dominator-tree node wrapping one CFG node.
type Node struct {
	def      *ir.Def
	idom     *Node
	children []*Node
	depth    int
	maxRPOID int
}

func (n *Node) Def() *ir.Def      { return n.def }
func (n *Node) IDom() *Node       { return n.idom }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) Depth() int        { return n.depth }
func (n *Node) MaxRPOID() int     { return n.maxRPOID }

// Dominates reports whether n dominates other (n == other counts).
func (n *Node) Dominates(other *Node) bool {
	for cur := other; cur != nil; cur = cur.idom {
		if cur == n {
			return true
		}
		if cur.idom == cur { // reached the root without matching
			break
		}
	}
	return n == other
}

// Tree is the dominator tree of a single cfg.CFG view.
type Tree struct {
	cfg   *cfg.CFG
	nodes map[uint64]*Node
	root  *Node
}

// Root returns the tree's root node (the CFG's entry).
func (t *Tree) Root() *Node { return t.root }

// Lookup returns d's dominator-tree node.
func (t *Tree) Lookup(d *ir.Def) *Node { return t.nodes[d.Gid] }

// Build computes the dominator tree of view.
func Build(view *cfg.CFG) *Tree {
	t := &Tree{cfg: view, nodes: make(map[uint64]*Node, view.Size())}
	for _, d := range view.RPO() {
		t.nodes[d.Gid] = &Node{def: d}
	}

	t.root = t.nodes[view.Entry().Gid]
	t.root.idom = t.root

	for _, d := range view.Body() {
		n := t.nodes[d.Gid]
		for _, pred := range view.Preds(d) {
			if view.RPOID(pred) < view.RPOID(d) {
				n.idom = t.nodes[pred.Gid]
				break
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, d := range view.Body() {
			n := t.nodes[d.Gid]
			var newIdom *Node
			for _, pred := range view.Preds(d) {
				predNode := t.nodes[pred.Gid]
				if predNode.idom == nil {
					continue // predecessor not yet reached by a first pass
				}
				if newIdom == nil {
					newIdom = predNode
				} else {
					newIdom = lca(view, newIdom, predNode)
				}
			}
			if newIdom != nil && n.idom != newIdom {
				n.idom = newIdom
				changed = true
			}
		}
	}

	for _, d := range view.Body() {
		n := t.nodes[d.Gid]
		n.idom.children = append(n.idom.children, n)
	}

	postprocess(view, t.root, 0)
	return t
}

// LCA returns the least common ancestor of a and b in this dominator tree,
// used by Schedule's late/smart placement to merge multiple uses.
func (t *Tree) LCA(a, b *Node) *Node {
	return lca(t.cfg, a, b)
}

func lca(view *cfg.CFG, i, j *Node) *Node {
	for view.RPOID(i.def) != view.RPOID(j.def) {
		for view.RPOID(i.def) < view.RPOID(j.def) {
			j = j.idom
		}
		for view.RPOID(j.def) < view.RPOID(i.def) {
			i = i.idom
		}
	}
	return i
}

// String renders an indented tree dump, one line per node, in the style of
// domtree.cpp's DomNode::dump() with the file-writing wrapper dropped.
func (t *Tree) String() string {
	var out strings.Builder
	dump(&out, t.root)
	return out.String()
}

func dump(out *strings.Builder, n *Node) {
	for i := 0; i < n.depth; i++ {
		out.WriteByte('\t')
	}
	out.WriteString(n.def.String())
	out.WriteByte('\n')
	for _, c := range n.children {
		dump(out, c)
	}
}

func postprocess(view *cfg.CFG, n *Node, depth int) int {
	n.depth = depth
	n.maxRPOID = view.RPOID(n.def)
	for _, c := range n.children {
		if m := postprocess(view, c, depth+1); m > n.maxRPOID {
			n.maxRPOID = m
		}
	}
	return n.maxRPOID
}
