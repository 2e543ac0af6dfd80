// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// Iterator terms suspend until driven by the evaluator's Next. Construction
// never touches the source; size hints are structural.

// NewEmptyIterator returns the empty-iterator singleton.
func (h *Heap) NewEmptyIterator() Handle {
	return h.emptyIterator
}

// NewOnceIterator yields value exactly once.
func (h *Heap) NewOnceIterator(value Handle) Handle {
	return h.rebuildIterator1(TagOnceIterator, value)
}

// NewRepeatIterator yields value forever.
func (h *Heap) NewRepeatIterator(value Handle) Handle {
	return h.rebuildIterator1(TagRepeatIterator, value)
}

// NewRangeIterator yields length consecutive integers starting at start.
func (h *Heap) NewRangeIterator(start int64, length uint32) Handle {
	t := h.newTerm(TagRangeIterator, 12)
	h.putU64(h.fieldsAt(t), uint64(start))
	h.setField(t, 2, length)
	return h.seal(t)
}

// RangeStart returns the first value of a range iterator.
func (h *Heap) RangeStart(t Handle) int64 {
	return int64(h.u64(h.fieldsAt(t)))
}

// RangeLength returns the item count of a range iterator.
func (h *Heap) RangeLength(t Handle) uint32 {
	return h.field(t, 2)
}

// NewIntegersIterator yields the non-negative integers.
func (h *Heap) NewIntegersIterator() Handle {
	t := h.newTerm(TagIntegersIterator, 0)
	return h.seal(t)
}

// NewMapIterator applies fn to each item of source.
func (h *Heap) NewMapIterator(source, fn Handle) Handle {
	return h.rebuildIterator2(TagMapIterator, source, fn)
}

// NewFilterIterator keeps the items of source for which pred is truthy.
func (h *Heap) NewFilterIterator(source, pred Handle) Handle {
	return h.rebuildIterator2(TagFilterIterator, source, pred)
}

// NewFlattenIterator concatenates the iterable items of source.
func (h *Heap) NewFlattenIterator(source Handle) Handle {
	return h.rebuildIterator1(TagFlattenIterator, source)
}

// NewZipIterator pairs items of two sources into 2-element lists.
func (h *Heap) NewZipIterator(left, right Handle) Handle {
	return h.rebuildIterator2(TagZipIterator, left, right)
}

// NewSkipIterator drops the first count items of source.
func (h *Heap) NewSkipIterator(source Handle, count uint32) Handle {
	return h.rebuildCountedIterator(TagSkipIterator, source, count)
}

// NewTakeIterator yields at most count items of source.
func (h *Heap) NewTakeIterator(source Handle, count uint32) Handle {
	return h.rebuildCountedIterator(TagTakeIterator, source, count)
}

// NewEvaluateIterator evaluates each item of source against the current
// state.
func (h *Heap) NewEvaluateIterator(source Handle) Handle {
	return h.rebuildIterator1(TagEvaluateIterator, source)
}

// NewIntersperseIterator yields the items of source separated by separator.
func (h *Heap) NewIntersperseIterator(source, separator Handle) Handle {
	return h.rebuildIterator2(TagIntersperseIterator, source, separator)
}

// NewHashmapKeysIterator yields the keys of a hashmap.
func (h *Heap) NewHashmapKeysIterator(source Handle) Handle {
	return h.rebuildIterator1(TagHashmapKeysIterator, source)
}

// NewHashmapValuesIterator yields the values of a hashmap.
func (h *Heap) NewHashmapValuesIterator(source Handle) Handle {
	return h.rebuildIterator1(TagHashmapValuesIterator, source)
}

func (h *Heap) rebuildIterator1(tag Tag, value Handle) Handle {
	t := h.newTerm(tag, 4)
	h.setField(t, 0, value)
	return h.seal(t)
}

func (h *Heap) rebuildIterator2(tag Tag, a, b Handle) Handle {
	t := h.newTerm(tag, 8)
	h.setField(t, 0, a)
	h.setField(t, 1, b)
	return h.seal(t)
}

func (h *Heap) rebuildCountedIterator(tag Tag, source Handle, count uint32) Handle {
	t := h.newTerm(tag, 8)
	h.setField(t, 0, source)
	h.setField(t, 1, count)
	return h.seal(t)
}

// IteratorSource returns the first child field of an iterator term.
func (h *Heap) IteratorSource(t Handle) Handle {
	return h.field(t, 0)
}

// IteratorSecond returns the second child field (function, predicate,
// separator or right-hand source).
func (h *Heap) IteratorSecond(t Handle) Handle {
	return h.field(t, 1)
}

// IteratorCount returns the raw count field of skip/take iterators.
func (h *Heap) IteratorCount(t Handle) uint32 {
	return h.field(t, 1)
}

// SizeHint returns the number of items a term will yield, when statically
// known.
func (h *Heap) SizeHint(t Handle) (uint32, bool) {
	switch h.TypeOf(t) {
	case TagList:
		return h.ListLen(t), true
	case TagRecord:
		return h.RecordLen(t), true
	case TagHashmap, TagHashset:
		return h.field(t, 0), true
	case TagTree:
		return h.TreeLen(t), true
	case TagEmptyIterator:
		return 0, true
	case TagOnceIterator:
		return 1, true
	case TagRangeIterator:
		return h.RangeLength(t), true
	case TagMapIterator, TagEvaluateIterator:
		return h.SizeHint(h.IteratorSource(t))
	case TagZipIterator:
		a, aok := h.SizeHint(h.IteratorSource(t))
		b, bok := h.SizeHint(h.IteratorSecond(t))
		if aok && bok {
			return min(a, b), true
		}
		return 0, false
	case TagSkipIterator:
		if n, ok := h.SizeHint(h.IteratorSource(t)); ok {
			count := h.IteratorCount(t)
			if n < count {
				return 0, true
			}
			return n - count, true
		}
		return 0, false
	case TagTakeIterator:
		count := h.IteratorCount(t)
		if n, ok := h.SizeHint(h.IteratorSource(t)); ok {
			return min(n, count), true
		}
		return count, false
	case TagIntersperseIterator:
		if n, ok := h.SizeHint(h.IteratorSource(t)); ok {
			if n == 0 {
				return 0, true
			}
			return 2*n - 1, true
		}
		return 0, false
	case TagHashmapKeysIterator, TagHashmapValuesIterator:
		return h.SizeHint(h.IteratorSource(t))
	}
	// repeat, integers, filter and flatten have no static size
	return 0, false
}
