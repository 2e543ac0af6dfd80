// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// Lists are contiguous handle arrays with a length prefix. Records hold
// parallel key/value lists plus an optional hashmap lookup table for wide
// records. Hashmaps and hashsets are open-addressed tables keyed by term
// hash. Trees are binary spines with a precomputed leaf count; they form the
// condition aggregates used by signals and dependency sets.

// NewList returns a list term over the given items. The empty list is a
// singleton.
func (h *Heap) NewList(items []Handle) Handle {
	if len(items) == 0 {
		return h.emptyList
	}
	return h.newListRaw(items)
}

func (h *Heap) newListRaw(items []Handle) Handle {
	t := h.newTerm(TagList, 4+4*uint32(len(items)))
	h.setField(t, 0, uint32(len(items)))
	for i, item := range items {
		h.setField(t, 1+uint32(i), item)
	}
	return h.seal(t)
}

// ListLen returns the number of items in a list.
func (h *Heap) ListLen(t Handle) uint32 {
	return h.field(t, 0)
}

// ListGet returns the i-th item of a list.
func (h *Heap) ListGet(t Handle, i uint32) Handle {
	return h.field(t, 1+i)
}

// ListItems copies the items of a list into a fresh slice.
func (h *Heap) ListItems(t Handle) []Handle {
	n := h.ListLen(t)
	items := make([]Handle, n)
	for i := uint32(0); i < n; i++ {
		items[i] = h.ListGet(t, i)
	}
	return items
}

// ListConcat returns a list holding the items of a followed by the items of
// b.
func (h *Heap) ListConcat(a, b Handle) Handle {
	na, nb := h.ListLen(a), h.ListLen(b)
	if na == 0 {
		return b
	}
	if nb == 0 {
		return a
	}
	items := make([]Handle, 0, na+nb)
	items = append(items, h.ListItems(a)...)
	items = append(items, h.ListItems(b)...)
	return h.newListRaw(items)
}

// ListBuilder implements the unsized construction protocol for lists: the
// header is reserved up front and each append extends the most recent
// allocation in place, so no other allocation may happen between
// AllocateUnsizedList and Init.
type ListBuilder struct {
	h *Heap
	t Handle
	n uint32
}

// AllocateUnsizedList reserves a list header for incremental construction.
func (h *Heap) AllocateUnsizedList() *ListBuilder {
	t := h.newTerm(TagList, 4)
	return &ListBuilder{h: h, t: t}
}

// Append adds an item to the list under construction.
func (b *ListBuilder) Append(item Handle) {
	end := b.t + headerBytes + 4 + 4*b.n
	b.h.Extend(end, 4)
	b.h.putU32(end, item)
	b.n++
}

// Len returns the number of items appended so far.
func (b *ListBuilder) Len() uint32 {
	return b.n
}

// Init finalizes the header and computes the hash. An empty build releases
// its reservation and returns the empty-list singleton.
func (b *ListBuilder) Init() Handle {
	if b.n == 0 {
		b.h.Shrink(b.h.off, headerBytes+4)
		return b.h.emptyList
	}
	b.h.setField(b.t, 0, b.n)
	return b.h.seal(b.t)
}

// recordLookupThreshold is the field count above which records carry a
// hashmap lookup table built at construction time.
const recordLookupThreshold = 16

// NewRecord returns a record term over parallel key and value lists.
func (h *Heap) NewRecord(keys, values Handle) Handle {
	if h.ListLen(keys) == 0 {
		return h.emptyRecord
	}
	if h.ListLen(keys) != h.ListLen(values) {
		panic("term: record key/value arity mismatch")
	}
	var lookup Handle = Null
	if n := h.ListLen(keys); n > recordLookupThreshold {
		entries := make([][2]Handle, n)
		for i := uint32(0); i < n; i++ {
			entries[i] = [2]Handle{h.ListGet(keys, i), h.ListGet(values, i)}
		}
		lookup = h.NewHashmap(entries)
	}
	t := h.newTerm(TagRecord, 12)
	h.setField(t, 0, keys)
	h.setField(t, 1, values)
	h.setField(t, 2, lookup)
	return h.seal(t)
}

func (h *Heap) newRecordRaw(keys, values Handle) Handle {
	t := h.newTerm(TagRecord, 12)
	h.setField(t, 0, keys)
	h.setField(t, 1, values)
	h.setField(t, 2, Null)
	return h.seal(t)
}

// RecordKeys returns the key list of a record.
func (h *Heap) RecordKeys(t Handle) Handle {
	return h.field(t, 0)
}

// RecordValues returns the value list of a record.
func (h *Heap) RecordValues(t Handle) Handle {
	return h.field(t, 1)
}

// RecordLen returns the number of fields of a record.
func (h *Heap) RecordLen(t Handle) uint32 {
	return h.ListLen(h.field(t, 0))
}

// RecordGet returns the value for a key, or Null when absent. Wide records
// consult their lookup table; narrow ones scan.
func (h *Heap) RecordGet(t Handle, key Handle) Handle {
	if lookup := h.field(t, 2); lookup != Null {
		return h.HashmapGet(lookup, key)
	}
	keys := h.field(t, 0)
	n := h.ListLen(keys)
	for i := uint32(0); i < n; i++ {
		if h.Equals(h.ListGet(keys, i), key) {
			return h.ListGet(h.field(t, 1), i)
		}
	}
	return Null
}

// minDynamicHashmapCapacity bounds the table size of the rewritable hashmaps
// (the memoization cache); literal hashmap terms size to their contents.
const minDynamicHashmapCapacity = 1024

func hashmapCapacityFor(n uint32) uint32 {
	capacity := uint32(8)
	for capacity < 2*n {
		capacity *= 2
	}
	return capacity
}

// NewHashmap returns a hashmap term over the given entries. Duplicate keys
// keep the last value.
func (h *Heap) NewHashmap(entries [][2]Handle) Handle {
	capacity := hashmapCapacityFor(uint32(len(entries)))
	t := h.newTerm(TagHashmap, 8+8*capacity)
	h.setField(t, 1, capacity)
	for i := uint32(0); i < capacity; i++ {
		h.setField(t, 2+2*i, Null)
		h.setField(t, 2+2*i+1, Null)
	}
	count := uint32(0)
	for _, e := range entries {
		if h.hashmapPut(t, capacity, e[0], e[1]) {
			count++
		}
	}
	h.setField(t, 0, count)
	return h.seal(t)
}

// hashmapPut inserts during construction only; hashmap terms are immutable
// once sealed. Reports whether the key was new.
func (h *Heap) hashmapPut(t Handle, capacity uint32, key, value Handle) bool {
	mask := capacity - 1
	i := h.TermHash(key) & mask
	for {
		k := h.field(t, 2+2*i)
		if k == Null {
			h.setField(t, 2+2*i, key)
			h.setField(t, 2+2*i+1, value)
			return true
		}
		if h.Equals(k, key) {
			h.setField(t, 2+2*i+1, value)
			return false
		}
		i = (i + 1) & mask
	}
}

// HashmapGet returns the value for a key, or Null when absent.
func (h *Heap) HashmapGet(t Handle, key Handle) Handle {
	if t == Null {
		return Null
	}
	capacity := h.field(t, 1)
	mask := capacity - 1
	i := h.TermHash(key) & mask
	for probes := uint32(0); probes < capacity; probes++ {
		k := h.field(t, 2+2*i)
		if k == Null {
			return Null
		}
		if h.Equals(k, key) {
			return h.field(t, 2+2*i+1)
		}
		i = (i + 1) & mask
	}
	return Null
}

// HashmapCount returns the number of entries.
func (h *Heap) HashmapCount(t Handle) uint32 {
	return h.field(t, 0)
}

// HashmapCapacity returns the table capacity.
func (h *Heap) HashmapCapacity(t Handle) uint32 {
	return h.field(t, 1)
}

// HashmapEntryAt returns the key/value at table slot i; the key is Null for
// an empty slot.
func (h *Heap) HashmapEntryAt(t Handle, i uint32) (Handle, Handle) {
	return h.field(t, 2+2*i), h.field(t, 2+2*i+1)
}

func (h *Heap) hashmapEquals(a, b Handle) bool {
	if h.field(a, 0) != h.field(b, 0) {
		return false
	}
	capacity := h.field(a, 1)
	for i := uint32(0); i < capacity; i++ {
		k := h.field(a, 2+2*i)
		if k == Null {
			continue
		}
		v := h.HashmapGet(b, k)
		if v == Null || !h.Equals(h.field(a, 2+2*i+1), v) {
			return false
		}
	}
	return true
}

// NewHashset returns a hashset term over the given items.
func (h *Heap) NewHashset(items []Handle) Handle {
	capacity := hashmapCapacityFor(uint32(len(items)))
	t := h.newTerm(TagHashset, 8+4*capacity)
	h.setField(t, 1, capacity)
	for i := uint32(0); i < capacity; i++ {
		h.setField(t, 2+i, Null)
	}
	count := uint32(0)
	mask := capacity - 1
	for _, item := range items {
		i := h.TermHash(item) & mask
		for {
			k := h.field(t, 2+i)
			if k == Null {
				h.setField(t, 2+i, item)
				count++
				break
			}
			if h.Equals(k, item) {
				break
			}
			i = (i + 1) & mask
		}
	}
	h.setField(t, 0, count)
	return h.seal(t)
}

// HashsetContains reports membership.
func (h *Heap) HashsetContains(t Handle, item Handle) bool {
	capacity := h.field(t, 1)
	mask := capacity - 1
	i := h.TermHash(item) & mask
	for probes := uint32(0); probes < capacity; probes++ {
		k := h.field(t, 2+i)
		if k == Null {
			return false
		}
		if h.Equals(k, item) {
			return true
		}
		i = (i + 1) & mask
	}
	return false
}

// HashsetCount returns the number of items.
func (h *Heap) HashsetCount(t Handle) uint32 {
	return h.field(t, 0)
}

// HashsetCapacity returns the table capacity.
func (h *Heap) HashsetCapacity(t Handle) uint32 {
	return h.field(t, 1)
}

// HashsetItemAt returns the item at table slot i, or Null for an empty slot.
func (h *Heap) HashsetItemAt(t Handle, i uint32) Handle {
	return h.field(t, 2+i)
}

func (h *Heap) hashsetEquals(a, b Handle) bool {
	if h.field(a, 0) != h.field(b, 0) {
		return false
	}
	capacity := h.field(a, 1)
	for i := uint32(0); i < capacity; i++ {
		k := h.field(a, 2+i)
		if k == Null {
			continue
		}
		if !h.HashsetContains(b, k) {
			return false
		}
	}
	return true
}

// NewTree returns a tree term concatenating two branches. Either branch may
// be Null, a leaf term, or another tree.
func (h *Heap) NewTree(left, right Handle) Handle {
	t := h.newTerm(TagTree, 12)
	h.setField(t, 0, left)
	h.setField(t, 1, right)
	h.setField(t, 2, h.leafCount(left)+h.leafCount(right))
	return h.seal(t)
}

func (h *Heap) leafCount(t Handle) uint32 {
	switch {
	case t == Null:
		return 0
	case h.TypeOf(t) == TagTree:
		return h.field(t, 2)
	}
	return 1
}

// TreeLeft returns the left branch (possibly Null).
func (h *Heap) TreeLeft(t Handle) Handle {
	return h.field(t, 0)
}

// TreeRight returns the right branch (possibly Null).
func (h *Heap) TreeRight(t Handle) Handle {
	return h.field(t, 1)
}

// TreeLen returns the leaf count.
func (h *Heap) TreeLen(t Handle) uint32 {
	return h.field(t, 2)
}

// TreeUnion concatenates two condition aggregates. Null is the identity;
// identical handles collapse.
func (h *Heap) TreeUnion(a, b Handle) Handle {
	switch {
	case a == Null:
		return b
	case b == Null || a == b:
		return a
	}
	return h.NewTree(a, b)
}

// TreeLeaves collects the leaves of an aggregate in order, deduplicating
// structurally equal leaves. The argument may be Null, a single leaf, or a
// tree.
func (h *Heap) TreeLeaves(t Handle) []Handle {
	if t == Null {
		return nil
	}
	var leaves []Handle
	seen := make(map[uint32][]Handle)
	stack := []Handle{t}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == Null {
			continue
		}
		if h.TypeOf(n) == TagTree {
			// push right first so the left branch is visited first
			stack = append(stack, h.field(n, 1), h.field(n, 0))
			continue
		}
		hash := h.TermHash(n)
		dup := false
		for _, prev := range seen[hash] {
			if h.Equals(prev, n) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[hash] = append(seen[hash], n)
		leaves = append(leaves, n)
	}
	return leaves
}
