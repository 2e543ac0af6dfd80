// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// The memoization cache is an open-addressed table from 64-bit invocation
// fingerprints to cached evaluation results. It lives inside a cell term and
// is reached through a mutable pointer term, so growing the table rewrites
// the pointer target and every existing handle stays valid.
//
// Cell slot layout: [capacity, count, entry...] with cacheEntryWords slots
// per entry. A zero value word marks an empty slot and value 1 a tombstone;
// real handles are 4-byte aligned and never collide with either.

const (
	cacheEntryWords  = 8
	cacheHeaderWords = 2

	cacheSlotEmpty     uint32 = 0
	cacheSlotTombstone uint32 = 1
)

// CacheEntry is a cached (value, dependency-set, state-fingerprint) triple.
type CacheEntry struct {
	Value            Handle
	Dependencies     Handle
	OverallStateHash uint64
	MinimalStateHash uint64
}

func (h *Heap) initCache() {
	cell := h.newCacheCell(minDynamicHashmapCapacity)
	h.cachePtr = h.NewPointer(cell)
}

func (h *Heap) newCacheCell(capacity uint32) Handle {
	cell := h.NewCell(cacheHeaderWords + cacheEntryWords*capacity)
	h.CellSet(cell, 0, capacity)
	return cell
}

// CachePointer returns the pointer term forwarding to the live cache cell.
func (h *Heap) CachePointer() Handle {
	return h.cachePtr
}

// CacheEntries returns the number of live cache entries.
func (h *Heap) CacheEntries() uint64 {
	return uint64(h.CellGet(h.Deref(h.cachePtr), 1))
}

// normalizeFingerprint keeps fingerprints out of the empty-slot sentinel.
func normalizeFingerprint(fp uint64) uint64 {
	if fp == 0 {
		return 1
	}
	return fp
}

// cacheFind locates the entry slot for fp. Returns the slot base index and
// whether the slot holds a live entry; when not found, the base of the first
// reusable slot is returned.
func (h *Heap) cacheFind(cell Handle, fp uint64) (uint32, bool) {
	capacity := h.CellGet(cell, 0)
	mask := capacity - 1
	i := uint32(fp) & mask
	reuse := Null
	for probes := uint32(0); probes < capacity; probes++ {
		base := cacheHeaderWords + cacheEntryWords*i
		value := h.CellGet(cell, base+2)
		switch value {
		case cacheSlotEmpty:
			if reuse != Null {
				return reuse, false
			}
			return base, false
		case cacheSlotTombstone:
			if reuse == Null {
				reuse = base
			}
		default:
			fpLo := h.CellGet(cell, base)
			fpHi := h.CellGet(cell, base+1)
			if uint64(fpLo)|uint64(fpHi)<<32 == fp {
				return base, true
			}
		}
		i = (i + 1) & mask
	}
	return reuse, false
}

// CacheLookup returns the cached entry for an invocation fingerprint.
func (h *Heap) CacheLookup(fp uint64) (CacheEntry, bool) {
	fp = normalizeFingerprint(fp)
	cell := h.Deref(h.cachePtr)
	base, ok := h.cacheFind(cell, fp)
	if !ok {
		return CacheEntry{}, false
	}
	return CacheEntry{
		Value:            h.CellGet(cell, base+2),
		Dependencies:     h.CellGet(cell, base+3),
		OverallStateHash: uint64(h.CellGet(cell, base+4)) | uint64(h.CellGet(cell, base+5))<<32,
		MinimalStateHash: uint64(h.CellGet(cell, base+6)) | uint64(h.CellGet(cell, base+7))<<32,
	}, true
}

// CacheInsert writes an entry, growing the table at load factor 0.5.
func (h *Heap) CacheInsert(fp uint64, e CacheEntry) {
	fp = normalizeFingerprint(fp)
	cell := h.Deref(h.cachePtr)
	capacity := h.CellGet(cell, 0)
	count := h.CellGet(cell, 1)
	if (count+1)*2 > capacity {
		cell = h.growCache(cell, capacity*2)
	}
	base, live := h.cacheFind(cell, fp)
	h.CellSet(cell, base, uint32(fp))
	h.CellSet(cell, base+1, uint32(fp>>32))
	h.CellSet(cell, base+2, e.Value)
	h.CellSet(cell, base+3, e.Dependencies)
	h.CellSet(cell, base+4, uint32(e.OverallStateHash))
	h.CellSet(cell, base+5, uint32(e.OverallStateHash>>32))
	h.CellSet(cell, base+6, uint32(e.MinimalStateHash))
	h.CellSet(cell, base+7, uint32(e.MinimalStateHash>>32))
	if !live {
		h.CellSet(cell, 1, h.CellGet(cell, 1)+1)
	}
}

// CacheUpdateOverall refreshes the overall-state fast path of a live entry.
func (h *Heap) CacheUpdateOverall(fp uint64, overall uint64) {
	fp = normalizeFingerprint(fp)
	cell := h.Deref(h.cachePtr)
	base, live := h.cacheFind(cell, fp)
	if !live {
		return
	}
	h.CellSet(cell, base+4, uint32(overall))
	h.CellSet(cell, base+5, uint32(overall>>32))
}

// CacheInvalidate evicts the entry for fp, if present.
func (h *Heap) CacheInvalidate(fp uint64) {
	fp = normalizeFingerprint(fp)
	cell := h.Deref(h.cachePtr)
	base, live := h.cacheFind(cell, fp)
	if !live {
		return
	}
	h.CellSet(cell, base+2, cacheSlotTombstone)
	h.CellSet(cell, 1, h.CellGet(cell, 1)-1)
}

// growCache moves live entries into a larger cell and retargets the cache
// pointer so existing handles remain valid.
func (h *Heap) growCache(cell Handle, capacity uint32) Handle {
	next := h.newCacheCell(capacity)
	oldCapacity := h.CellGet(cell, 0)
	mask := capacity - 1
	moved := uint32(0)
	for i := uint32(0); i < oldCapacity; i++ {
		base := cacheHeaderWords + cacheEntryWords*i
		value := h.CellGet(cell, base+2)
		if value == cacheSlotEmpty || value == cacheSlotTombstone {
			continue
		}
		fp := uint64(h.CellGet(cell, base)) | uint64(h.CellGet(cell, base+1))<<32
		j := uint32(fp) & mask
		for {
			dst := cacheHeaderWords + cacheEntryWords*j
			if h.CellGet(next, dst+2) == cacheSlotEmpty {
				for w := uint32(0); w < cacheEntryWords; w++ {
					h.CellSet(next, dst+w, h.CellGet(cell, base+w))
				}
				break
			}
			j = (j + 1) & mask
		}
		moved++
	}
	h.CellSet(next, 1, moved)
	h.SetPointerTarget(h.cachePtr, next)
	return next
}
