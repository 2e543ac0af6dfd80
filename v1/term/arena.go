// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"encoding/binary"
	"unique"
)

// Handle is an opaque reference to an interned term: a 32-bit byte offset
// into the heap's arena. Handle 0 is never allocated (the first four bytes of
// the arena are reserved) so zeroed storage reads as "unallocated".
type Handle = uint32

// Null denotes the absence of a term.
const Null Handle = 0xFFFFFFFF

const (
	// pageSize is the granularity of arena growth.
	pageSize = 64 * 1024

	// reservedBytes keeps handle 0 (and the zero word) out of circulation.
	reservedBytes = 4
)

// Heap owns the term arena, the preallocated singleton terms, and the
// memoization cache cell. All terms of one evaluation universe live in a
// single Heap; a Heap must not be shared across goroutines without external
// synchronization.
type Heap struct {
	buf []byte
	off uint32

	nilTerm   Handle
	trueTerm  Handle
	falseTerm Handle
	smallInts [smallIntMax - smallIntMin + 1]Handle

	emptyList        Handle
	emptyRecord      Handle
	emptyConstructor Handle
	emptyIterator    Handle

	pendingCond    Handle
	invalidPtrCond Handle

	pendingSignal    Handle
	invalidPtrSignal Handle

	cachePtr Handle

	symbolNames map[uint32]unique.Handle[string]
}

const (
	smallIntMin = -1
	smallIntMax = 9
)

// NewHeap creates a heap with a single arena page and the singleton terms
// preallocated.
func NewHeap() *Heap {
	h := &Heap{
		buf:         make([]byte, pageSize),
		symbolNames: make(map[uint32]unique.Handle[string]),
	}
	h.init()
	return h
}

// Reset discards every term in the arena and reinitializes the singletons and
// the cache. The caller guarantees that no handles survive the reset.
func (h *Heap) Reset() {
	h.init()
}

// align4 rounds a size up to 4-byte alignment.
func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// Allocate reserves n bytes (rounded up to 4-byte alignment) and returns the
// offset of the reservation. The arena grows by doubling, falling back to
// halved growth increments, with a single page as the minimum unit.
func (h *Heap) Allocate(n uint32) Handle {
	addr := h.off
	need := addr + align4(n)
	if uint32(len(h.buf)) < need {
		h.grow(need)
	}
	h.off = need
	return addr
}

func (h *Heap) grow(need uint32) {
	size := uint64(len(h.buf))
	grown := size * 2
	for grown < uint64(need) {
		grown *= 2
	}
	if grown > uint64(Null) {
		// Handles are 32-bit offsets; past this point allocation cannot be
		// addressed. Retry with halved increments down to a single page.
		inc := grown - size
		for size+inc > uint64(Null) && inc > pageSize {
			inc /= 2
		}
		grown = (size + inc + pageSize - 1) / pageSize * pageSize
		if grown > uint64(Null) || grown < uint64(need) {
			panic("term: arena exhausted")
		}
	}
	next := make([]byte, grown)
	copy(next, h.buf)
	h.buf = next
}

// Extend grows the most recent allocation in place by n bytes (rounded up to
// 4-byte alignment). end must equal the current arena offset, i.e. the end of
// the most recent allocation; anything else is a contract violation.
func (h *Heap) Extend(end uint32, n uint32) uint32 {
	if end != h.off {
		panic("term: extend of non-terminal allocation")
	}
	return h.Allocate(n)
}

// Shrink releases the trailing n bytes of the most recent allocation. end
// must equal the current arena offset.
func (h *Heap) Shrink(end uint32, n uint32) {
	n = align4(n)
	if end != h.off || n > end-reservedBytes {
		panic("term: shrink of non-terminal allocation")
	}
	h.off = end - n
}

// Offset returns the current arena offset.
func (h *Heap) Offset() uint32 {
	return h.off
}

// ArenaBytes returns the number of allocated bytes.
func (h *Heap) ArenaBytes() uint64 {
	return uint64(h.off)
}

// ArenaCapacity returns the arena capacity in bytes.
func (h *Heap) ArenaCapacity() uint64 {
	return uint64(len(h.buf))
}

func (h *Heap) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(h.buf[off:])
}

func (h *Heap) putU32(off uint32, v uint32) {
	binary.LittleEndian.PutUint32(h.buf[off:], v)
}

func (h *Heap) u64(off uint32) uint64 {
	return binary.LittleEndian.Uint64(h.buf[off:])
}

func (h *Heap) putU64(off uint32, v uint64) {
	binary.LittleEndian.PutUint64(h.buf[off:], v)
}

func (h *Heap) rawBytes(off uint32, n uint32) []byte {
	return h.buf[off : off+n]
}

// BytesAt exposes a raw arena region, e.g. the output of DisplayInto. The
// slice aliases the arena and is invalidated by the next allocation.
func (h *Heap) BytesAt(off uint32, n uint32) []byte {
	return h.rawBytes(off, n)
}

// init lays out the deterministic boot sequence: allocator zero-state,
// scalar and collection singletons, condition singletons, signal singletons,
// cache cell, cache pointer.
func (h *Heap) init() {
	h.off = reservedBytes

	h.nilTerm = h.newTerm(TagNil, 0)
	h.seal(h.nilTerm)

	h.falseTerm = h.newBooleanRaw(false)
	h.trueTerm = h.newBooleanRaw(true)

	for i := range h.smallInts {
		h.smallInts[i] = h.newIntRaw(int64(i + smallIntMin))
	}

	h.emptyList = h.newListRaw(nil)
	h.emptyRecord = h.newRecordRaw(h.emptyList, h.emptyList)
	h.emptyConstructor = h.newConstructorRaw(h.emptyList)
	h.emptyIterator = h.newTerm(TagEmptyIterator, 0)
	h.seal(h.emptyIterator)

	h.pendingCond = h.newConditionRaw(ConditionPending, nil)
	h.invalidPtrCond = h.newConditionRaw(ConditionInvalidPointer, nil)

	h.pendingSignal = h.newSignalRaw(h.pendingCond)
	h.invalidPtrSignal = h.newSignalRaw(h.invalidPtrCond)

	h.initCache()
}
