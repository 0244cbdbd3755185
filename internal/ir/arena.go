package ir

import (
	"fmt"
	"hash/maphash"
	"math"
)

// Arena is the single owning store for a World's Defs: a slice-backed table
// indexed by stable gid, plus a hash-bucket interner for structural Defs
// (spec §4.1). It realizes spec §9's Design Notes recommendation to
// "arena-own all nodes; represent edges as indices/handles" -- gids are
// stable integer handles, and cycles (through nominal ops only, per spec §3
// invariant 5) are expressible without pointer cycles breaking anything,
// since Go's garbage collector handles pointer cycles natively.
//
// Arena is not safe for concurrent use by multiple goroutines: a World is
// driven by one logical task at a time (spec §5). Distinct Worlds (distinct
// Arenas) share no mutable state and may be driven concurrently.
type Arena struct {
	seed maphash.Seed

	defs []*Def // indexed by gid; defs[0] is unused (gid 0 is invalid)

	buckets map[uint64][]*Def // structural-key hash -> candidate Defs

	allocations uint64
	peakUsage   int
}

// NewArena creates an empty Arena.
func NewArena() *Arena {
	return &Arena{
		seed:    maphash.MakeSeed(),
		defs:    make([]*Def, 1), // reserve gid 0
		buckets: make(map[uint64][]*Def),
	}
}

// Stats is a snapshot of Arena occupancy, adapted from the teacher's
// allocator.Config/stat-counter idiom (internal/allocator/arena.go), kept as
// a plain counter struct rather than its unsafe byte-buffer implementation.
type Stats struct {
	Allocations uint64
	Live        int
	PeakUsage   int
}

// Stats returns a snapshot of allocation counters.
func (a *Arena) Stats() Stats {
	live := 0
	for _, d := range a.defs[1:] {
		if d != nil {
			live++
		}
	}
	return Stats{Allocations: a.allocations, Live: live, PeakUsage: a.peakUsage}
}

// Defs returns every Def currently owned by the arena (live or not yet
// swept). Cleanup iterates this set using the erase-cursor idiom (spec §5);
// callers that mutate must not call this mid-iteration except via Cleanup.
func (a *Arena) Defs() []*Def {
	out := make([]*Def, 0, len(a.defs)-1)
	for _, d := range a.defs[1:] {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// alloc assigns a fresh stable gid to d and registers it in the arena's def
// table. It does not intern d; structural unification happens in intern.
func (a *Arena) alloc(d *Def) *Def {
	d.Gid = uint64(len(a.defs))
	a.defs = append(a.defs, d)
	a.allocations++
	if len(a.defs) > a.peakUsage {
		a.peakUsage = len(a.defs)
	}
	return d
}

// erase removes a Def from the live def table entirely (used by cleanup).
// It does not touch the interner buckets; callers that erase a structural
// Def must have already released it.
func (a *Arena) erase(d *Def) {
	if d.Gid == 0 || int(d.Gid) >= len(a.defs) {
		return
	}
	a.defs[d.Gid] = nil
}

// intern returns the canonical Def equal to candidate: if an equal Def is
// already resident, the resident is returned and candidate is dropped
// (never allocated); otherwise candidate is allocated and inserted.
// Candidate must not yet have a gid.
func (a *Arena) intern(candidate *Def) *Def {
	key := structuralHash(a.seed, candidate)
	for _, resident := range a.buckets[key] {
		if structuralEqual(resident, candidate) {
			// Drop the use-list edges the constructor registered for the
			// candidate, so it leaves no trace in its operands' uses.
			for i := range candidate.Ops {
				setOp(candidate, i, nil)
			}
			return resident
		}
	}
	a.alloc(candidate)
	a.buckets[key] = append(a.buckets[key], candidate)
	return candidate
}

// release removes def from the interner without destroying it, so the
// Rewriter can mutate an operand and re-intern (spec §4.1, §4.5). Nominal
// Defs are never hashed and release is a no-op for them.
func (a *Arena) release(def *Def) {
	if def.Nominal {
		return
	}
	key := structuralHash(a.seed, def)
	bucket := a.buckets[key]
	for i, d := range bucket {
		if d == def {
			bucket[i] = bucket[len(bucket)-1]
			a.buckets[key] = bucket[:len(bucket)-1]
			return
		}
	}
}

// reinsert re-interns def after a mutation performed while it was released.
// If a structural twin is already present, the twin is returned and def is
// left un-reinserted (the caller is responsible for rewiring users, per
// spec §4.5).
func (a *Arena) reinsert(def *Def) *Def {
	if def.Nominal {
		return def
	}
	key := structuralHash(a.seed, def)
	for _, resident := range a.buckets[key] {
		if resident != def && structuralEqual(resident, def) {
			return resident
		}
	}
	a.buckets[key] = append(a.buckets[key], def)
	return def
}

// insertNominal allocates and registers a nominal Def. Nominals are never
// hashed or re-interned (spec §5): each instance is inserted exactly once.
func (a *Arena) insertNominal(d *Def) *Def {
	d.Nominal = true
	a.alloc(d)
	return d
}

// structuralHash computes a hash over a Def's structural identity: kind,
// type gid, operand gids, and kind-specific extra fields. Two structural
// Defs with the same key must hash identically (spec §3 invariant 3).
func structuralHash(seed maphash.Seed, d *Def) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)

	var buf [8]byte
	putU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}

	putU64(uint64(d.Kind))
	if d.Type != nil {
		putU64(d.Type.Gid)
	} else {
		putU64(0)
	}
	putU64(uint64(len(d.Ops)))
	for _, op := range d.Ops {
		putU64(op.Gid)
	}
	putU64(uint64(d.Prim))
	putU64(d.IntVal)
	putU64(uint64(d.ArithOp))
	putU64(uint64(d.RelOp))
	putU64(uint64(d.ConvOp))
	putU64(uint64(d.Index))
	h.WriteString(d.Name)
	// FloatVal is hashed via its bit pattern so NaN payloads participate
	// deterministically rather than via NaN-breaks-equality float compare.
	putU64(floatBits(d.FloatVal))

	return h.Sum64()
}

// structuralEqual reports whether a and b have the same structural key
// (spec §3 invariant 3: equal key implies object identity after interning,
// so this is the equality this function must decide before that identity
// exists).
func structuralEqual(a, b *Def) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Type != b.Type {
		return false
	}
	if len(a.Ops) != len(b.Ops) {
		return false
	}
	for i := range a.Ops {
		if a.Ops[i] != b.Ops[i] {
			return false
		}
	}
	if a.Prim != b.Prim || a.ArithOp != b.ArithOp || a.RelOp != b.RelOp || a.ConvOp != b.ConvOp || a.Index != b.Index {
		return false
	}
	if a.Name != b.Name {
		return false
	}
	return floatBits(a.FloatVal) == floatBits(b.FloatVal) && a.IntVal == b.IntVal
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

func (a *Arena) String() string {
	s := a.Stats()
	return fmt.Sprintf("arena{live=%d allocations=%d peak=%d}", s.Live, s.Allocations, s.PeakUsage)
}
