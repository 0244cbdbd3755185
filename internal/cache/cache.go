// Package cache provides a bounded, per-key memoization cache for the
// core's analyses (spec §2: "Analyses read the graph through a Scope
// view"). A real driver re-queries the same Scope's CFG/Domtree/LoopTree/
// Schedule many times across passes; recomputing reverse-post-order and
// dominance from scratch on every query is wasted work once a Scope's
// underlying Defs haven't changed.
//
// Enrichment from the pack: github.com/hashicorp/golang-lru/v2, as used by
// the mycweb-mycelium example repo -- the teacher itself does not cache
// analyses.
package cache

import lru "github.com/hashicorp/golang-lru/v2"

// Analysis is a bounded LRU cache from a uint64 key (typically a hash of an
// entry set's gids, see internal/scope) to a computed analysis result V.
type Analysis[V any] struct {
	lru *lru.Cache[uint64, V]
}

// New creates an Analysis cache holding at most size entries. size <= 0
// disables caching (every GetOrCompute call recomputes).
func New[V any](size int) *Analysis[V] {
	if size <= 0 {
		return &Analysis[V]{}
	}
	c, err := lru.New[uint64, V](size)
	if err != nil {
		// size validated above; only remaining failure mode is size <= 0,
		// already excluded.
		return &Analysis[V]{}
	}
	return &Analysis[V]{lru: c}
}

// GetOrCompute returns the cached value for key, computing and storing it
// via compute on a miss.
func (a *Analysis[V]) GetOrCompute(key uint64, compute func() V) V {
	if a.lru == nil {
		return compute()
	}
	if v, ok := a.lru.Get(key); ok {
		return v
	}
	v := compute()
	a.lru.Add(key, v)
	return v
}

// Invalidate drops key from the cache, used when the underlying graph has
// been mutated (e.g. by the Rewriter) and a cached analysis is now stale.
func (a *Analysis[V]) Invalidate(key uint64) {
	if a.lru != nil {
		a.lru.Remove(key)
	}
}

// Purge clears the entire cache.
func (a *Analysis[V]) Purge() {
	if a.lru != nil {
		a.lru.Purge()
	}
}

// Len reports the number of cached entries.
func (a *Analysis[V]) Len() int {
	if a.lru == nil {
		return 0
	}
	return a.lru.Len()
}
