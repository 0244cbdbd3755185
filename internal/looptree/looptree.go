// Package looptree computes the loop-nesting forest of a Scope using
// Tarjan's SCC decomposition applied recursively, the same strategy as
// Ramalingam's algorithm described in
// original_source/src/thorin/analyses/looptree.h ("On Loops, Dominators,
// and Dominance Frontiers", Ramalingam 1999): each maximal strongly
// connected component is a loop; its header lambdas are peeled into a
// Header node, the backedges into them are cut, and the remainder is
// decomposed again to find nested loops. Defs with no cycle become
// Leaf nodes in DFS order.
package looptree

import (
	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/scope"
)

// Edge is a call-graph edge between two continuations, used to record a
// loop's entries, exits, and backedges.
type Edge struct {
	Src *ir.Def
	Dst *ir.Def
}

// Node is either a Header or a Leaf.
type Node interface {
	Depth() int
	Parent() *Header
	Lambdas() []*ir.Def
}

type nodeBase struct {
	parent  *Header
	depth   int
	lambdas []*ir.Def
}

func (n *nodeBase) Depth() int         { return n.depth }
func (n *nodeBase) Parent() *Header    { return n.parent }
func (n *nodeBase) Lambdas() []*ir.Def { return n.lambdas }

// Header is a loop: a set of header lambdas (more than one only for
// irreducible control flow) with child Nodes nested one level deeper.
type Header struct {
	nodeBase
	children  []Node
	entries   []Edge
	exits     []Edge
	backedges []Edge
	dfsBegin  int
	dfsEnd    int
}

func (h *Header) Children() []Node   { return h.children }
func (h *Header) Entries() []Edge    { return h.entries }
func (h *Header) Exits() []Edge      { return h.exits }
func (h *Header) Backedges() []Edge  { return h.backedges }
func (h *Header) IsRoot() bool       { return h.parent == nil }
func (h *Header) DFSBegin() int      { return h.dfsBegin }
func (h *Header) DFSEnd() int        { return h.dfsEnd }

// Leaf is a single continuation with no cycle through itself.
type Leaf struct {
	nodeBase
	dfsIndex int
}

func (l *Leaf) Lambda() *ir.Def { return l.lambdas[0] }
func (l *Leaf) DFSIndex() int   { return l.dfsIndex }

// Tree is the loop-nesting forest of a Scope, pooled under a single
// depth -1 root Header (spec-equivalent of looptree.h's synthetic root).
type Tree struct {
	root  *Header
	leaf  map[uint64]*Leaf
	depth map[uint64]int
}

// Root returns the synthetic root Header.
func (t *Tree) Root() *Header { return t.root }

// Depth reports a lambda's loop nesting depth (0 outside any loop).
func (t *Tree) Depth(d *ir.Def) int { return t.depth[d.Gid] }

// DFS reports a lambda's position in the loop tree's DFS order, used by
// Contains for O(1) ancestor membership tests.
func (t *Tree) DFS(d *ir.Def) int {
	if l, ok := t.leaf[d.Gid]; ok {
		return l.dfsIndex
	}
	return -1
}

// Contains reports whether d lies within header's loop body.
func (t *Tree) Contains(header *Header, d *ir.Def) bool {
	dfs := t.DFS(d)
	if dfs < 0 {
		return false
	}
	return header.dfsBegin <= dfs && dfs < header.dfsEnd
}

// Build computes the loop-nesting forest of sc.
func Build(sc *scope.Scope) *Tree {
	members := sc.RPO()
	entrySet := make(map[uint64]bool, len(sc.Entries()))
	for _, e := range sc.Entries() {
		entrySet[e.Gid] = true
	}

	root := &Header{nodeBase: nodeBase{parent: nil, depth: -1}}
	counter := 0
	children := buildLevel(members, sc.Succs, root, 0, &counter, entrySet)
	root.children = children
	root.dfsBegin = 0
	root.dfsEnd = counter

	t := &Tree{root: root, leaf: make(map[uint64]*Leaf), depth: make(map[uint64]int)}
	t.index(root)
	return t
}

func (t *Tree) index(n Node) {
	switch v := n.(type) {
	case *Leaf:
		t.leaf[v.Lambda().Gid] = v
		t.depth[v.Lambda().Gid] = v.Depth()
	case *Header:
		for _, l := range v.lambdas {
			t.depth[l.Gid] = v.Depth()
		}
		for _, c := range v.children {
			t.index(c)
		}
	}
}

func toSet(defs []*ir.Def) map[uint64]bool {
	set := make(map[uint64]bool, len(defs))
	for _, d := range defs {
		set[d.Gid] = true
	}
	return set
}

// buildLevel decomposes nodes (under their succ relation) into SCCs, each
// of which is either a trivial Leaf or a Header whose backedges get cut
// before recursing one level deeper.
func buildLevel(nodes []*ir.Def, succ func(*ir.Def) []*ir.Def, parent *Header, depth int, counter *int, forcedHeaders map[uint64]bool) []Node {
	if len(nodes) == 0 {
		return nil
	}

	localPreds := make(map[uint64][]*ir.Def)
	for _, n := range nodes {
		for _, s := range succ(n) {
			localPreds[s.Gid] = append(localPreds[s.Gid], n)
		}
	}

	var result []Node
	for _, comp := range tarjanSCC(nodes, succ) {
		selfLoop := false
		if len(comp) == 1 {
			for _, s := range succ(comp[0]) {
				if s.Gid == comp[0].Gid {
					selfLoop = true
				}
			}
		}

		if len(comp) == 1 && !selfLoop {
			leaf := &Leaf{nodeBase: nodeBase{parent: parent, depth: depth, lambdas: comp}, dfsIndex: *counter}
			*counter++
			result = append(result, leaf)
			continue
		}

		compSet := toSet(comp)
		var headers []*ir.Def
		for _, n := range comp {
			external := forcedHeaders[n.Gid]
			for _, p := range localPreds[n.Gid] {
				if !compSet[p.Gid] {
					external = true
				}
			}
			if external {
				headers = append(headers, n)
			}
		}
		if len(headers) == 0 {
			// Every predecessor is internal (a pure cycle reached only from
			// within itself): pick the Tarjan root of the component as the
			// single header, matching the SCC's natural re-entry point.
			headers = []*ir.Def{comp[0]}
		}
		headerSet := toSet(headers)

		header := &Header{nodeBase: nodeBase{parent: parent, depth: depth, lambdas: headers}}
		for _, n := range comp {
			isHeader := headerSet[n.Gid]
			for _, p := range localPreds[n.Gid] {
				if isHeader {
					if compSet[p.Gid] {
						header.backedges = append(header.backedges, Edge{Src: p, Dst: n})
					} else {
						header.entries = append(header.entries, Edge{Src: p, Dst: n})
					}
				}
			}
			for _, s := range succ(n) {
				if !compSet[s.Gid] {
					header.exits = append(header.exits, Edge{Src: n, Dst: s})
				}
			}
		}

		innerSucc := func(d *ir.Def) []*ir.Def {
			var out []*ir.Def
			for _, s := range succ(d) {
				if compSet[s.Gid] && !headerSet[s.Gid] {
					out = append(out, s)
				}
			}
			return out
		}

		dfsBegin := *counter
		header.children = buildLevel(comp, innerSucc, header, depth+1, counter, nil)
		header.dfsBegin = dfsBegin
		header.dfsEnd = *counter
		result = append(result, header)
	}
	return result
}

// tarjanSCC computes the strongly connected components of nodes under succ,
// each returned in Tarjan's natural (reverse topological) discovery order.
func tarjanSCC(nodes []*ir.Def, succ func(*ir.Def) []*ir.Def) [][]*ir.Def {
	index := make(map[uint64]int)
	lowlink := make(map[uint64]int)
	onStack := make(map[uint64]bool)
	var stack []*ir.Def
	counter := 0
	var sccs [][]*ir.Def

	var strongconnect func(v *ir.Def)
	strongconnect = func(v *ir.Def) {
		index[v.Gid] = counter
		lowlink[v.Gid] = counter
		counter++
		stack = append(stack, v)
		onStack[v.Gid] = true

		for _, w := range succ(v) {
			if _, seen := index[w.Gid]; !seen {
				strongconnect(w)
				if lowlink[w.Gid] < lowlink[v.Gid] {
					lowlink[v.Gid] = lowlink[w.Gid]
				}
			} else if onStack[w.Gid] {
				if index[w.Gid] < lowlink[v.Gid] {
					lowlink[v.Gid] = index[w.Gid]
				}
			}
		}

		if lowlink[v.Gid] == index[v.Gid] {
			var comp []*ir.Def
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w.Gid] = false
				comp = append(comp, w)
				if w.Gid == v.Gid {
					break
				}
			}
			sccs = append(sccs, comp)
		}
	}

	for _, n := range nodes {
		if _, seen := index[n.Gid]; !seen {
			strongconnect(n)
		}
	}
	return sccs
}
