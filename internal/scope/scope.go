// Package scope computes the reachable sub-graph of continuations rooted at
// a set of entry Lambdas (spec §4.4), mirroring the teacher's
// internal/hir Scope computation but over the unified Def graph: reachable
// continuations are discovered by walking the data-flow reachable from
// each Lambda's ops rather than a separate control-flow-graph builder,
// matching thorin's Scope (see original_source/src/thorin/analyses/scope.h)
// which discovers "top level" lambdas the same way.
package scope

import (
	"hash/maphash"

	"github.com/cpsir/core/internal/ir"
)

// Scope is the set of continuations reachable from a fixed set of entries,
// plus the derived RPO numberings and call-graph edges spec §4.4 requires.
type Scope struct {
	entries []*ir.Def
	members map[uint64]bool
	allDefs map[uint64]bool

	rpoForward  []*ir.Def
	rpoBackward []*ir.Def

	succs map[uint64][]*ir.Def
	preds map[uint64][]*ir.Def
}

var cacheKeySeed = maphash.MakeSeed()

// New computes the Scope reachable from entries, memoized on b's
// AnalysisCache keyed by the entry set's gids so repeat queries against an
// unchanged graph skip recomputation. Entries must
// themselves be Lambdas; a non-Lambda entry is simply unreachable from
// anything else and forms a singleton member of the scope.
func New(b *ir.Builder, entries []*ir.Def) *Scope {
	key := entriesKey(entries)
	v := b.AnalysisCache.GetOrCompute(key, func() any {
		return build(entries)
	})
	return v.(*Scope)
}

// InvalidateCache drops the cached Scope for entries, used by callers that
// mutate the graph (e.g. via Rewriter) after a Scope over it was computed.
func InvalidateCache(b *ir.Builder, entries []*ir.Def) {
	b.AnalysisCache.Invalidate(entriesKey(entries))
}

func entriesKey(entries []*ir.Def) uint64 {
	var h maphash.Hash
	h.SetSeed(cacheKeySeed)
	var buf [8]byte
	for _, e := range entries {
		v := e.Gid
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

func build(entries []*ir.Def) *Scope {
	s := &Scope{
		entries: entries,
		members: make(map[uint64]bool, len(entries)),
	}
	s.identify()
	s.buildEdges()
	s.computeAllDefs()
	s.rpoForward = rpoWalk(entries, s.Succs, s.members)
	s.rpoBackward = rpoWalk(s.exitCandidates(), s.Preds, s.members)
	return s
}

// identify performs the BFS over Successors() that discovers every
// continuation reachable from entries (spec §4.4 "the set of continuations
// reachable via the callee/argument graph").
func (s *Scope) identify() {
	queue := append([]*ir.Def(nil), s.entries...)
	for _, e := range s.entries {
		s.members[e.Gid] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range Successors(cur) {
			if !s.members[next.Gid] {
				s.members[next.Gid] = true
				queue = append(queue, next)
			}
		}
	}
}

func (s *Scope) buildEdges() {
	s.succs = make(map[uint64][]*ir.Def, len(s.members))
	s.preds = make(map[uint64][]*ir.Def, len(s.members))
	for _, d := range s.allMembers() {
		for _, next := range Successors(d) {
			if !s.members[next.Gid] {
				continue
			}
			s.succs[d.Gid] = append(s.succs[d.Gid], next)
			s.preds[next.Gid] = append(s.preds[next.Gid], d)
		}
	}
}

func (s *Scope) allMembers() []*ir.Def {
	out := make([]*ir.Def, 0, len(s.members))
	seen := map[uint64]bool{}
	var walk []*ir.Def
	walk = append(walk, s.entries...)
	for len(walk) > 0 {
		cur := walk[0]
		walk = walk[1:]
		if seen[cur.Gid] {
			continue
		}
		seen[cur.Gid] = true
		out = append(out, cur)
		walk = append(walk, Successors(cur)...)
	}
	return out
}

// exitCandidates returns every member with no in-scope successors, the
// Scope's exits, used as the roots for the backward RPO.
func (s *Scope) exitCandidates() []*ir.Def {
	var exits []*ir.Def
	for _, d := range s.allMembers() {
		if len(s.succs[d.Gid]) == 0 {
			exits = append(exits, d)
		}
	}
	return exits
}

// Successors returns the continuations directly reachable from d: the
// callee of d's jump plus any Lambda reachable through d's data operands
// without crossing into another Lambda's own body (spec §4.4's
// "callee/argument graph").
func Successors(d *ir.Def) []*ir.Def {
	var out []*ir.Def
	seen := map[uint64]bool{}
	var walk func(cur *ir.Def)
	walk = func(cur *ir.Def) {
		for _, op := range cur.Ops {
			if op == nil || seen[op.Gid] {
				continue
			}
			if op.IsContinuation() {
				seen[op.Gid] = true
				out = append(out, op)
				continue
			}
			seen[op.Gid] = true
			walk(op)
		}
	}
	walk(d)
	return out
}

// Entries returns the scope's roots.
func (s *Scope) Entries() []*ir.Def { return s.entries }

// Body returns every member continuation that is not an entry, in forward
// RPO order.
func (s *Scope) Body() []*ir.Def {
	entrySet := make(map[uint64]bool, len(s.entries))
	for _, e := range s.entries {
		entrySet[e.Gid] = true
	}
	var out []*ir.Def
	for _, d := range s.rpoForward {
		if !entrySet[d.Gid] {
			out = append(out, d)
		}
	}
	return out
}

// RPO returns the scope's members in forward reverse-post-order.
func (s *Scope) RPO() []*ir.Def { return s.rpoForward }

// BackwardRPO returns the scope's members in backward reverse-post-order
// (DFS over the predecessor relation, rooted at the scope's exits).
func (s *Scope) BackwardRPO() []*ir.Def { return s.rpoBackward }

// Preds returns the in-scope predecessors of l.
func (s *Scope) Preds(l *ir.Def) []*ir.Def { return s.preds[l.Gid] }

// Succs returns the in-scope successors of l.
func (s *Scope) Succs(l *ir.Def) []*ir.Def { return s.succs[l.Gid] }

// computeAllDefs walks the pure operands reachable from every member's ops
// (stopping at Lambda boundaries, since those are already members reached
// by identify()) so Contains also answers true for Params and other pure
// Defs used within the scope's bodies, not just the continuations
// themselves (spec §4.4's contains(def) over anything transitively used
// within the scope).
func (s *Scope) computeAllDefs() {
	s.allDefs = make(map[uint64]bool, len(s.members))
	var walk func(d *ir.Def)
	walk = func(d *ir.Def) {
		for _, op := range d.Ops {
			if op == nil || s.allDefs[op.Gid] || op.IsContinuation() {
				continue
			}
			s.allDefs[op.Gid] = true
			walk(op)
		}
	}
	for _, m := range s.allMembers() {
		walk(m)
	}
}

// Contains reports whether def was discovered as a member of this scope, or
// is a Param/pure Def transitively used within a member's body.
func (s *Scope) Contains(def *ir.Def) bool {
	return s.members[def.Gid] || s.allDefs[def.Gid]
}

// Size returns the number of member continuations.
func (s *Scope) Size() int { return len(s.members) }

// rpoWalk computes a standard reverse-post-order DFS from roots along the
// given adjacency relation, restricted to members.
func rpoWalk(roots []*ir.Def, adj func(*ir.Def) []*ir.Def, members map[uint64]bool) []*ir.Def {
	visited := make(map[uint64]bool, len(members))
	var post []*ir.Def

	var visit func(d *ir.Def)
	visit = func(d *ir.Def) {
		if visited[d.Gid] {
			return
		}
		visited[d.Gid] = true
		for _, next := range adj(d) {
			if members[next.Gid] {
				visit(next)
			}
		}
		post = append(post, d)
	}
	for _, r := range roots {
		visit(r)
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
