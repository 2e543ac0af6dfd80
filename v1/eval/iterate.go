// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"github.com/reflow-lang/reflow/v1/term"
)

// Next advances an iterable term by one item. Iterator states are opaque
// terms chosen per iterator (usually a small integer or a tuple list); Null
// means "not started". Next returns the item (Null on exhaustion), the new
// iterator state, and the dependencies accumulated by any evaluation the
// step performed. Item-level signals are yielded as items so consumers can
// union them.
func (e *Evaluator) Next(src, istate, state term.Handle) (term.Handle, term.Handle, term.Handle) {
	h := e.heap
	switch h.TypeOf(src) {
	case term.TagList:
		idx := stateIndex(h, istate)
		if idx >= int64(h.ListLen(src)) {
			return term.Null, istate, term.Null
		}
		return h.ListGet(src, uint32(idx)), h.NewInt(idx + 1), term.Null

	case term.TagRecord:
		idx := stateIndex(h, istate)
		if idx >= int64(h.RecordLen(src)) {
			return term.Null, istate, term.Null
		}
		entry := h.NewList([]term.Handle{
			h.ListGet(h.RecordKeys(src), uint32(idx)),
			h.ListGet(h.RecordValues(src), uint32(idx)),
		})
		return entry, h.NewInt(idx + 1), term.Null

	case term.TagHashmap:
		slot := stateIndex(h, istate)
		capacity := int64(h.HashmapCapacity(src))
		for ; slot < capacity; slot++ {
			k, v := h.HashmapEntryAt(src, uint32(slot))
			if k == term.Null {
				continue
			}
			return h.NewList([]term.Handle{k, v}), h.NewInt(slot + 1), term.Null
		}
		return term.Null, istate, term.Null

	case term.TagHashset:
		slot := stateIndex(h, istate)
		capacity := int64(h.HashsetCapacity(src))
		for ; slot < capacity; slot++ {
			if k := h.HashsetItemAt(src, uint32(slot)); k != term.Null {
				return k, h.NewInt(slot + 1), term.Null
			}
		}
		return term.Null, istate, term.Null

	case term.TagTree:
		return e.nextTreeLeaf(src, istate)

	case term.TagEmptyIterator:
		return term.Null, istate, term.Null

	case term.TagOnceIterator:
		if istate != term.Null {
			return term.Null, istate, term.Null
		}
		return h.IteratorSource(src), h.NewInt(1), term.Null

	case term.TagRepeatIterator:
		return h.IteratorSource(src), h.NewInt(0), term.Null

	case term.TagRangeIterator:
		idx := stateIndex(h, istate)
		if idx >= int64(h.RangeLength(src)) {
			return term.Null, istate, term.Null
		}
		return h.NewInt(h.RangeStart(src) + idx), h.NewInt(idx + 1), term.Null

	case term.TagIntegersIterator:
		idx := stateIndex(h, istate)
		return h.NewInt(idx), h.NewInt(idx + 1), term.Null

	case term.TagMapIterator:
		x, s2, d := e.Next(h.IteratorSource(src), istate, state)
		if x == term.Null {
			return term.Null, s2, d
		}
		if h.IsSignal(x) {
			return x, s2, d
		}
		r, d2 := e.applyFn(h.IteratorSecond(src), x, state)
		return r, s2, h.TreeUnion(d, d2)

	case term.TagFilterIterator:
		deps := term.Null
		for {
			x, s2, d := e.Next(h.IteratorSource(src), istate, state)
			deps = h.TreeUnion(deps, d)
			if x == term.Null {
				return term.Null, s2, deps
			}
			if h.IsSignal(x) {
				return x, s2, deps
			}
			p, d2 := e.applyFn(h.IteratorSecond(src), x, state)
			deps = h.TreeUnion(deps, d2)
			if h.IsSignal(p) {
				return p, s2, deps
			}
			if h.IsTruthy(p) {
				return x, s2, deps
			}
			istate = s2
		}

	case term.TagFlattenIterator:
		return e.nextFlatten(src, istate, state)

	case term.TagZipIterator:
		ls, rs := term.Null, term.Null
		if istate != term.Null {
			ls, rs = h.ListGet(istate, 0), h.ListGet(istate, 1)
		}
		a, ls2, d1 := e.Next(h.IteratorSource(src), ls, state)
		if a == term.Null {
			return term.Null, istate, d1
		}
		b, rs2, d2 := e.Next(h.IteratorSecond(src), rs, state)
		deps := h.TreeUnion(d1, d2)
		if b == term.Null {
			return term.Null, istate, deps
		}
		next := h.NewList([]term.Handle{ls2, rs2})
		if h.IsSignal(a) || h.IsSignal(b) {
			sig := term.Null
			if h.IsSignal(a) {
				sig = h.CombineSignals(sig, a)
			}
			if h.IsSignal(b) {
				sig = h.CombineSignals(sig, b)
			}
			return sig, next, deps
		}
		return h.NewList([]term.Handle{a, b}), next, deps

	case term.TagSkipIterator:
		deps := term.Null
		srcState := term.Null
		if istate == term.Null {
			count := h.IteratorCount(src)
			for i := uint32(0); i < count; i++ {
				x, s2, d := e.Next(h.IteratorSource(src), srcState, state)
				deps = h.TreeUnion(deps, d)
				if x == term.Null {
					return term.Null, h.NewList([]term.Handle{s2}), deps
				}
				srcState = s2
			}
		} else {
			srcState = h.ListGet(istate, 0)
		}
		x, s2, d := e.Next(h.IteratorSource(src), srcState, state)
		deps = h.TreeUnion(deps, d)
		return x, h.NewList([]term.Handle{s2}), deps

	case term.TagTakeIterator:
		taken, srcState := int64(0), term.Null
		if istate != term.Null {
			taken = h.IntValue(h.ListGet(istate, 0))
			srcState = h.ListGet(istate, 1)
		}
		if taken >= int64(h.IteratorCount(src)) {
			return term.Null, istate, term.Null
		}
		x, s2, d := e.Next(h.IteratorSource(src), srcState, state)
		if x == term.Null {
			return term.Null, istate, d
		}
		return x, h.NewList([]term.Handle{h.NewInt(taken + 1), s2}), d

	case term.TagEvaluateIterator:
		x, s2, d := e.Next(h.IteratorSource(src), istate, state)
		if x == term.Null {
			return term.Null, s2, d
		}
		r, d2 := e.Evaluate(x, state)
		return r, s2, h.TreeUnion(d, d2)

	case term.TagIntersperseIterator:
		return e.nextIntersperse(src, istate, state)

	case term.TagHashmapKeysIterator, term.TagHashmapValuesIterator:
		source := h.IteratorSource(src)
		slot := stateIndex(h, istate)
		capacity := int64(h.HashmapCapacity(source))
		for ; slot < capacity; slot++ {
			k, v := h.HashmapEntryAt(source, uint32(slot))
			if k == term.Null {
				continue
			}
			item := k
			if h.TypeOf(src) == term.TagHashmapValuesIterator {
				item = v
			}
			return item, h.NewInt(slot + 1), term.Null
		}
		return term.Null, istate, term.Null
	}
	return term.Null, istate, term.Null
}

func stateIndex(h *term.Heap, istate term.Handle) int64 {
	if istate == term.Null {
		return 0
	}
	return h.IntValue(istate)
}

// nextTreeLeaf walks a condition tree depth-first. The iterator state is the
// explicit traversal stack, kept as a list term.
func (e *Evaluator) nextTreeLeaf(src, istate term.Handle) (term.Handle, term.Handle, term.Handle) {
	h := e.heap
	var stack []term.Handle
	if istate == term.Null {
		stack = []term.Handle{src}
	} else {
		stack = h.ListItems(istate)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == term.Null {
			continue
		}
		if h.TypeOf(n) == term.TagTree {
			stack = append(stack, h.TreeRight(n), h.TreeLeft(n))
			continue
		}
		return n, h.NewList(stack), term.Null
	}
	return term.Null, h.NewList(nil), term.Null
}

// nextFlatten tracks (outer state, current inner iterable, inner state) as a
// 3-element list. Non-iterable items pass through unflattened.
func (e *Evaluator) nextFlatten(src, istate, state term.Handle) (term.Handle, term.Handle, term.Handle) {
	h := e.heap
	outer, inner, innerState := term.Null, term.Null, term.Null
	if istate != term.Null {
		outer = h.ListGet(istate, 0)
		inner = h.ListGet(istate, 1)
		innerState = h.ListGet(istate, 2)
	}
	deps := term.Null
	for {
		if inner != term.Null {
			x, is2, d := e.Next(inner, innerState, state)
			deps = h.TreeUnion(deps, d)
			if x != term.Null {
				return x, h.NewList([]term.Handle{outer, inner, is2}), deps
			}
			inner, innerState = term.Null, term.Null
		}
		item, os2, d := e.Next(h.IteratorSource(src), outer, state)
		deps = h.TreeUnion(deps, d)
		if item == term.Null {
			return term.Null, h.NewList([]term.Handle{os2, term.Null, term.Null}), deps
		}
		outer = os2
		if h.IsSignal(item) || !term.ImplementsIterate(h.TypeOf(item)) {
			return item, h.NewList([]term.Handle{outer, term.Null, term.Null}), deps
		}
		inner, innerState = item, term.Null
	}
}

// nextIntersperse alternates items and the separator. State is
// [mode, source state, queued item]: mode 0 means an item was just emitted
// (the next yield is a separator, after a lookahead), mode 1 means the
// separator was emitted and the queued item is due.
func (e *Evaluator) nextIntersperse(src, istate, state term.Handle) (term.Handle, term.Handle, term.Handle) {
	h := e.heap
	if istate == term.Null {
		x, s2, d := e.Next(h.IteratorSource(src), term.Null, state)
		if x == term.Null {
			return term.Null, istate, d
		}
		return x, h.NewList([]term.Handle{h.NewInt(0), s2, term.Null}), d
	}
	mode := h.IntValue(h.ListGet(istate, 0))
	srcState := h.ListGet(istate, 1)
	if mode == 1 {
		queued := h.ListGet(istate, 2)
		return queued, h.NewList([]term.Handle{h.NewInt(0), srcState, term.Null}), term.Null
	}
	y, s2, d := e.Next(h.IteratorSource(src), srcState, state)
	if y == term.Null {
		return term.Null, istate, d
	}
	return h.IteratorSecond(src), h.NewList([]term.Handle{h.NewInt(1), s2, y}), d
}

// applyFn applies a unary function term and reduces the result.
func (e *Evaluator) applyFn(fn, arg, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	r, d1 := e.Apply(fn, h.NewList([]term.Handle{arg}), state)
	r2, d2 := e.Evaluate(r, state)
	return r2, h.TreeUnion(d1, d2)
}
