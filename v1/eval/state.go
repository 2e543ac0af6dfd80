// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"github.com/reflow-lang/reflow/v1/term"
)

// State snapshots are hashmap terms from condition to resolved value,
// supplied by the host at Evaluate time. Absence of a key means "not yet
// resolved"; evaluation then surfaces a signal carrying the condition and the
// host re-invokes once it has resolved it.

// NewState builds a state snapshot from condition/value pairs.
func NewState(h *term.Heap, entries [][2]term.Handle) term.Handle {
	return h.NewHashmap(entries)
}

// StateSet returns a new snapshot with one condition resolved. Snapshots are
// immutable terms; updates rebuild.
func StateSet(h *term.Heap, state, condition, value term.Handle) term.Handle {
	var entries [][2]term.Handle
	if state != term.Null {
		capacity := h.HashmapCapacity(state)
		for i := uint32(0); i < capacity; i++ {
			k, v := h.HashmapEntryAt(state, i)
			if k == term.Null || h.Equals(k, condition) {
				continue
			}
			entries = append(entries, [2]term.Handle{k, v})
		}
	}
	entries = append(entries, [2]term.Handle{condition, value})
	return h.NewHashmap(entries)
}

// stateHash digests an entire state snapshot: the overall-state fast path of
// the cache protocol. Entries fold commutatively so probe order does not
// matter.
func (e *Evaluator) stateHash(state term.Handle) uint64 {
	h := e.heap
	acc := term.NewFNV()
	if state == term.Null {
		return acc
	}
	var sum uint64
	capacity := h.HashmapCapacity(state)
	for i := uint32(0); i < capacity; i++ {
		k, v := h.HashmapEntryAt(state, i)
		if k == term.Null {
			continue
		}
		eh := term.FNVUint32(term.NewFNV(), h.TermHash(k))
		eh = term.FNVUint32(eh, h.TermHash(v))
		sum += eh
	}
	acc = term.FNVUint32(acc, h.HashmapCount(state))
	return term.FNVUint64(acc, sum)
}

// stateFingerprint digests the values in state for just the conditions in a
// dependency set, substituting 0 for missing keys: the minimal-state path of
// the cache protocol.
func (e *Evaluator) stateFingerprint(deps, state term.Handle) uint64 {
	h := e.heap
	acc := term.NewFNV()
	for _, cond := range h.TreeLeaves(deps) {
		v := h.HashmapGet(state, cond)
		if v == term.Null {
			acc = term.FNVUint32(acc, 0)
		} else {
			acc = term.FNVUint32(acc, h.TermHash(v))
		}
	}
	return acc
}
