// Package schedule places every pure Def reachable within a Scope at one
// of its member continuations: early (the shallowest point that still
// dominates every operand), late (the lowest common ancestor of every
// use), and smart (the point on the early-late dominator path with the
// least loop nesting depth, ties going to the point closest to late).
// Ported from
// original_source/src/thorin/analyses/schedule.cpp.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cpsir/core/internal/cfg"
	"github.com/cpsir/core/internal/domtree"
	"github.com/cpsir/core/internal/ir"
	"github.com/cpsir/core/internal/looptree"
	"github.com/cpsir/core/internal/scope"
)

// Schedule memoizes early/late/smart placements for one Scope.
type Schedule struct {
	sc   *scope.Scope
	view *cfg.CFG
	dom  *domtree.Tree
	loop *looptree.Tree

	reachable map[uint64]*ir.Def

	early map[uint64]*ir.Def
	late  map[uint64]*ir.Def
	smart map[uint64]*ir.Def
}

// New builds a Schedule over sc's forward CFG, dominator tree, and
// loop-nesting forest (spec §4.8's "smart" placement needs all three).
func New(sc *scope.Scope) *Schedule {
	view := cfg.Forward(sc)
	s := &Schedule{
		sc:        sc,
		view:      view,
		dom:       domtree.Build(view),
		loop:      looptree.Build(sc),
		reachable: reachablePure(sc),
		early:     make(map[uint64]*ir.Def),
		late:      make(map[uint64]*ir.Def),
		smart:     make(map[uint64]*ir.Def),
	}
	return s
}

// reachablePure collects every non-continuation Def transitively reachable
// from the scope's member continuations' operands (schedule.cpp's
// compute_def2uses, restricted here to the reachable-set side since this
// package reads use-edges directly off the Def graph instead of rebuilding
// them).
func reachablePure(sc *scope.Scope) map[uint64]*ir.Def {
	seen := make(map[uint64]*ir.Def)
	var walk func(d *ir.Def)
	walk = func(d *ir.Def) {
		for _, op := range d.Ops {
			if op == nil || op.Kind == ir.KindLambda {
				continue
			}
			if _, ok := seen[op.Gid]; ok {
				continue
			}
			seen[op.Gid] = op
			walk(op)
		}
	}
	for _, m := range sc.RPO() {
		walk(m)
	}
	return seen
}

// usesOf returns every Def that uses def as an operand and is itself
// either a member continuation or a reachable pure Def -- the "uses(def)"
// relation schedule_late walks.
func (s *Schedule) usesOf(def *ir.Def) []*ir.Def {
	var out []*ir.Def
	for _, edge := range def.Uses() {
		if s.sc.Contains(edge.User) {
			out = append(out, edge.User)
			continue
		}
		if _, ok := s.reachable[edge.User.Gid]; ok {
			out = append(out, edge.User)
		}
	}
	return out
}

// Early returns the earliest continuation def can legally be placed at:
// the deepest (in the dominator tree) continuation that still dominates
// every one of def's reachable operands.
func (s *Schedule) Early(def *ir.Def) *ir.Def {
	if cont, ok := s.early[def.Gid]; ok {
		return cont
	}
	if def.Kind == ir.KindParam {
		s.early[def.Gid] = def.Owner
		return def.Owner
	}
	if def.IsContinuation() {
		s.early[def.Gid] = def
		return def
	}

	result := s.view.Entry()
	for _, op := range def.Ops {
		if op == nil || op.Kind == ir.KindLambda {
			continue
		}
		if _, ok := s.reachable[op.Gid]; !ok {
			continue
		}
		cont := s.Early(op)
		if s.dom.Lookup(cont).Depth() > s.dom.Lookup(result).Depth() {
			result = cont
		}
	}
	s.early[def.Gid] = result
	return result
}

// Late returns the latest continuation def can legally be placed at: the
// lowest common dominator-tree ancestor of every continuation that uses
// def (directly, or transitively through another pure Def placed late).
func (s *Schedule) Late(def *ir.Def) *ir.Def {
	if cont, ok := s.late[def.Gid]; ok {
		return cont
	}

	var result *ir.Def
	switch {
	case def.IsContinuation():
		result = def
	case def.Kind == ir.KindParam:
		result = def.Owner
	default:
		for _, use := range s.usesOf(def) {
			cont := s.Late(use)
			if result == nil {
				result = cont
			} else {
				result = s.dom.LCA(s.dom.Lookup(result), s.dom.Lookup(cont)).Def()
			}
		}
		if result == nil {
			// Unused within the scope (dead, or only reachable from outside
			// it): fall back to the earliest legal point.
			result = s.Early(def)
		}
	}

	s.late[def.Gid] = result
	return result
}

// Smart returns the shallowest-loop-nesting continuation on def's
// early-to-late dominator-tree path (spec §4.8's default placement: as
// late as legal, but never inside a loop the early/late range doesn't
// require).
func (s *Schedule) Smart(def *ir.Def) *ir.Def {
	if cont, ok := s.smart[def.Gid]; ok {
		return cont
	}

	early := s.Early(def)
	late := s.Late(def)

	result := late
	depth := s.loop.Depth(late)
	for i := late; i != early; {
		idom := s.dom.Lookup(i).IDom()
		if idom == nil || idom.Def() == i {
			break
		}
		i = idom.Def()
		if d := s.loop.Depth(i); d < depth {
			result = i
			depth = d
		}
	}

	s.smart[def.Gid] = result
	return result
}

// BlockOrder returns the scope's member continuations in forward RPO, the
// simplest legal block schedule (schedule.cpp's block_schedule).
func (s *Schedule) BlockOrder() []*ir.Def {
	return s.sc.RPO()
}

// String renders the smart-placement schedule as one indented block per
// continuation, each listing the pure Defs placed there in gid order
// (operands are allocated before their users, so operands come first), in
// the style of schedule.cpp's stream() with the file-writing wrapper dropped.
func (s *Schedule) String() string {
	blocks := make(map[uint64][]*ir.Def)
	for _, d := range s.reachable {
		cont := s.Smart(d)
		blocks[cont.Gid] = append(blocks[cont.Gid], d)
	}
	for _, defs := range blocks {
		sort.Slice(defs, func(i, j int) bool { return defs[i].Gid < defs[j].Gid })
	}

	var out strings.Builder
	for _, block := range s.BlockOrder() {
		indent := "  "
		if block == s.view.Entry() {
			indent = ""
		}
		fmt.Fprintf(&out, "%s%s:\n", indent, block.String())
		for _, d := range blocks[block.Gid] {
			fmt.Fprintf(&out, "%s  %s\n", indent, d.String())
		}
		fmt.Fprintf(&out, "%s  jump %v\n", indent, block.Ops)
	}
	return out.String()
}
