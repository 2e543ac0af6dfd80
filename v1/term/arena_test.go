// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"testing"
)

func TestAllocateAlignment(t *testing.T) {
	h := NewHeap()
	a := h.Allocate(3)
	b := h.Allocate(5)
	if a%4 != 0 || b%4 != 0 {
		t.Fatalf("allocations not 4-byte aligned: %d, %d", a, b)
	}
	if b != a+4 {
		t.Fatalf("expected 3-byte allocation to occupy 4 bytes, got %d -> %d", a, b)
	}
}

func TestAllocateNeverReturnsZero(t *testing.T) {
	h := NewHeap()
	if a := h.Allocate(4); a == 0 {
		t.Fatal("allocated handle 0; the first word must stay reserved")
	}
}

func TestOffsetMonotonic(t *testing.T) {
	h := NewHeap()
	prev := h.Offset()
	for i := 0; i < 1000; i++ {
		h.Allocate(uint32(i%61 + 1))
		if h.Offset() < prev {
			t.Fatalf("offset decreased from %d to %d", prev, h.Offset())
		}
		prev = h.Offset()
	}
}

func TestArenaGrowth(t *testing.T) {
	h := NewHeap()
	// force growth past the initial page
	for i := 0; i < 3000; i++ {
		h.Allocate(64)
	}
	if h.ArenaCapacity() <= pageSize {
		t.Fatalf("expected arena to grow past one page, capacity %d", h.ArenaCapacity())
	}
	if h.ArenaCapacity()%pageSize != 0 {
		t.Fatalf("capacity %d is not a page multiple", h.ArenaCapacity())
	}
}

func TestExtendMostRecent(t *testing.T) {
	h := NewHeap()
	a := h.Allocate(8)
	end := h.Offset()
	ext := h.Extend(end, 8)
	if ext != end {
		t.Fatalf("extend returned %d, want %d", ext, end)
	}
	if h.Offset() != a+16 {
		t.Fatalf("offset after extend = %d, want %d", h.Offset(), a+16)
	}
}

func TestExtendNotMostRecentPanics(t *testing.T) {
	h := NewHeap()
	h.Allocate(8)
	stale := h.Offset()
	h.Allocate(8)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for extend of non-terminal allocation")
		}
	}()
	h.Extend(stale-8, 4)
}

func TestShrinkMostRecent(t *testing.T) {
	h := NewHeap()
	h.Allocate(16)
	end := h.Offset()
	h.Shrink(end, 16)
	if h.Offset() != end-16 {
		t.Fatalf("offset after shrink = %d, want %d", h.Offset(), end-16)
	}
}

func TestShrinkNotMostRecentPanics(t *testing.T) {
	h := NewHeap()
	h.Allocate(16)
	end := h.Offset()
	h.Allocate(16)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for shrink of non-terminal allocation")
		}
	}()
	h.Shrink(end, 16)
}

func TestResetRewindsAndReseeds(t *testing.T) {
	h := NewHeap()
	for i := 0; i < 100; i++ {
		h.NewString("some temporary value")
	}
	before := h.Offset()
	h.Reset()
	if h.Offset() >= before {
		t.Fatalf("reset did not rewind the arena: %d >= %d", h.Offset(), before)
	}
	// singletons must be usable again
	if got := h.IntValue(h.NewInt(7)); got != 7 {
		t.Fatalf("int singleton after reset = %d", got)
	}
	if !h.BooleanValue(h.NewBoolean(true)) {
		t.Fatal("true singleton broken after reset")
	}
}
