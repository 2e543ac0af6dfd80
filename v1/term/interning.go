// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"unique"

	"github.com/cespare/xxhash/v2"
)

// Symbol ids are derived from the xxhash64 of the symbol name, folded to 32
// bits. The name is retained (interned) so formatting can print it back.

// SymbolFor returns a symbol term for the given name, registering the name
// for display.
func (h *Heap) SymbolFor(name string) Handle {
	id := SymbolIDFor(name)
	if _, ok := h.symbolNames[id]; !ok {
		h.symbolNames[id] = unique.Make(name)
	}
	return h.NewSymbol(id)
}

// SymbolIDFor derives the stable 32-bit id for a symbol name.
func SymbolIDFor(name string) uint32 {
	sum := xxhash.Sum64String(name)
	return uint32(sum) ^ uint32(sum>>32)
}

// SymbolName returns the registered name for a symbol id, if any.
func (h *Heap) SymbolName(id uint32) (string, bool) {
	nh, ok := h.symbolNames[id]
	if !ok {
		return "", false
	}
	return nh.Value(), true
}
