// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/reflow-lang/reflow/v1/term"
)

// collect drives an iterable to exhaustion and fails the test on signals.
func collect(t *testing.T, e *Evaluator, src term.Handle) []term.Handle {
	t.Helper()
	h := e.Heap()
	result, _ := e.CollectList(src, term.Null)
	if h.IsSignal(result) {
		t.Fatalf("collect produced a signal: %s", h.Debug(result))
	}
	return h.ListItems(result)
}

func intItems(t *testing.T, h *term.Heap, items []term.Handle) []int64 {
	t.Helper()
	out := make([]int64, len(items))
	for i, item := range items {
		out[i] = h.IntValue(item)
	}
	return out
}

func eqInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIterateList(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewList([]term.Handle{h.NewInt(1), h.NewInt(2), h.NewInt(3)})
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestIterateRange(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewRangeIterator(-2, 5)
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{-2, -1, 0, 1, 2}) {
		t.Fatalf("got %v", got)
	}
}

func TestIterateEmptyAndOnce(t *testing.T) {
	e, h := newTestEvaluator()
	if items := collect(t, e, h.NewEmptyIterator()); len(items) != 0 {
		t.Fatalf("empty iterator yielded %d items", len(items))
	}
	items := collect(t, e, h.NewOnceIterator(h.NewString("x")))
	if len(items) != 1 || !h.Equals(items[0], h.NewString("x")) {
		t.Fatalf("once iterator yielded %v", items)
	}
}

func TestIterateMap(t *testing.T) {
	e, h := newTestEvaluator()
	double := h.NewLambda(1, h.NewApplication(h.NewBuiltin(BuiltinMultiply),
		h.NewList([]term.Handle{h.NewVariable(0), h.NewInt(2)})))
	src := h.NewMapIterator(h.NewRangeIterator(1, 3), double)
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{2, 4, 6}) {
		t.Fatalf("got %v", got)
	}
}

func TestIterateFilter(t *testing.T) {
	e, h := newTestEvaluator()
	// keep x where x >= 3
	pred := h.NewLambda(1, h.NewApplication(h.NewBuiltin(BuiltinGte),
		h.NewList([]term.Handle{h.NewVariable(0), h.NewInt(3)})))
	src := h.NewFilterIterator(h.NewRangeIterator(0, 6), pred)
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{3, 4, 5}) {
		t.Fatalf("got %v", got)
	}
}

func TestIterateZipBoundedByEitherSide(t *testing.T) {
	e, h := newTestEvaluator()
	// one bounded operand is enough for zip to terminate
	src := h.NewZipIterator(h.NewRepeatIterator(h.NewInt(1)), h.NewRangeIterator(0, 3))
	if items := collect(t, e, src); len(items) != 3 {
		t.Fatalf("zip over repeat yielded %d items, want 3", len(items))
	}
}

func TestIterateZip(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewZipIterator(h.NewRangeIterator(0, 3), h.NewRangeIterator(10, 5))
	items := collect(t, e, src)
	if len(items) != 3 {
		t.Fatalf("zip yielded %d items, want the shorter length 3", len(items))
	}
	first := items[0]
	if h.IntValue(h.ListGet(first, 0)) != 0 || h.IntValue(h.ListGet(first, 1)) != 10 {
		t.Fatalf("first pair = %s", h.Debug(first))
	}
}

func TestIterateSkipTake(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewSkipIterator(h.NewRangeIterator(0, 10), 7)
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{7, 8, 9}) {
		t.Fatalf("skip got %v", got)
	}
	src = h.NewTakeIterator(h.NewIntegersIterator(), 4)
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{0, 1, 2, 3}) {
		t.Fatalf("take got %v", got)
	}
	src = h.NewSkipIterator(h.NewRangeIterator(0, 3), 5)
	if items := collect(t, e, src); len(items) != 0 {
		t.Fatalf("over-skip yielded %d items", len(items))
	}
}

func TestIterateFlatten(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewFlattenIterator(h.NewList([]term.Handle{
		h.NewList([]term.Handle{h.NewInt(1), h.NewInt(2)}),
		h.NewList(nil),
		h.NewList([]term.Handle{h.NewInt(3)}),
		h.NewInt(4), // non-iterable passes through
	}))
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{1, 2, 3, 4}) {
		t.Fatalf("got %v", got)
	}
}

func TestIterateIntersperse(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewIntersperseIterator(h.NewRangeIterator(1, 3), h.NewInt(0))
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{1, 0, 2, 0, 3}) {
		t.Fatalf("got %v", got)
	}
	single := h.NewIntersperseIterator(h.NewRangeIterator(1, 1), h.NewInt(0))
	if got := intItems(t, h, collect(t, e, single)); !eqInts(got, []int64{1}) {
		t.Fatalf("single-item intersperse got %v", got)
	}
}

func TestIterateHashmapKeysValues(t *testing.T) {
	e, h := newTestEvaluator()
	m := h.NewHashmap([][2]term.Handle{
		{h.NewString("a"), h.NewInt(1)},
		{h.NewString("b"), h.NewInt(2)},
	})
	keys := collect(t, e, h.NewHashmapKeysIterator(m))
	values := collect(t, e, h.NewHashmapValuesIterator(m))
	if len(keys) != 2 || len(values) != 2 {
		t.Fatalf("keys %d values %d, want 2 each", len(keys), len(values))
	}
	sum := h.IntValue(values[0]) + h.IntValue(values[1])
	if sum != 3 {
		t.Fatalf("value sum = %d", sum)
	}
}

func TestIterateRecordEntries(t *testing.T) {
	e, h := newTestEvaluator()
	r := h.NewRecord(
		h.NewList([]term.Handle{h.NewString("k")}),
		h.NewList([]term.Handle{h.NewInt(5)}),
	)
	items := collect(t, e, r)
	if len(items) != 1 {
		t.Fatalf("record yielded %d entries", len(items))
	}
	if !h.Equals(h.ListGet(items[0], 0), h.NewString("k")) || !h.Equals(h.ListGet(items[0], 1), h.NewInt(5)) {
		t.Fatalf("entry = %s", h.Debug(items[0]))
	}
}

func TestIterateTreeLeaves(t *testing.T) {
	e, h := newTestEvaluator()
	c1 := h.NewCustomCondition(h.NewSymbol(1), h.NewInt(1), term.Null)
	c2 := h.NewCustomCondition(h.NewSymbol(2), h.NewInt(2), term.Null)
	tree := h.NewTree(h.NewTree(c1, term.Null), c2)
	items := collect(t, e, tree)
	if len(items) != 2 || !h.Equals(items[0], c1) || !h.Equals(items[1], c2) {
		t.Fatalf("tree iteration gave %d items", len(items))
	}
}

func TestIterateMapPropagatesSignals(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(5), h.NewNil(), term.Null)
	src := h.NewMapIterator(
		h.NewList([]term.Handle{h.NewInt(1), h.NewSignal(cond)}),
		h.NewLambda(1, h.NewVariable(0)),
	)
	result, _ := e.CollectList(src, term.Null)
	if !h.IsSignal(result) {
		t.Fatalf("expected a signal result, got %s", h.Debug(result))
	}
	leaves := h.TreeLeaves(h.SignalConditions(result))
	if len(leaves) != 1 || !h.Equals(leaves[0], cond) {
		t.Fatalf("signal carries %d conditions", len(leaves))
	}
}

func TestIterateEvaluate(t *testing.T) {
	e, h := newTestEvaluator()
	src := h.NewEvaluateIterator(h.NewList([]term.Handle{
		add(h, h.NewInt(1), h.NewInt(1)),
		add(h, h.NewInt(2), h.NewInt(2)),
	}))
	if got := intItems(t, h, collect(t, e, src)); !eqInts(got, []int64{2, 4}) {
		t.Fatalf("got %v", got)
	}
}

func TestCollectUnboundedErrors(t *testing.T) {
	e, h := newTestEvaluator()
	for _, src := range []term.Handle{
		h.NewRepeatIterator(h.NewInt(1)),
		h.NewIntegersIterator(),
		h.NewMapIterator(h.NewIntegersIterator(), h.NewLambda(1, h.NewVariable(0))),
		h.NewZipIterator(h.NewRepeatIterator(h.NewInt(1)), h.NewIntegersIterator()),
	} {
		result, _ := e.CollectList(src, term.Null)
		if !h.IsSignal(result) || !h.SignalHas(result, func(ct term.ConditionType) bool {
			return ct == term.ConditionError
		}) {
			t.Fatalf("collecting %s must error", h.Debug(src))
		}
	}
}

func TestEagerArgumentCollectsIterator(t *testing.T) {
	e, h := newTestEvaluator()
	expr := h.NewApplication(h.NewBuiltin(BuiltinLength), h.NewList([]term.Handle{
		h.NewRangeIterator(0, 12),
	}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewInt(12)) {
		t.Fatalf("length of collected range = %s, want 12", h.Debug(result))
	}
}

func TestSizeHints(t *testing.T) {
	_, h := newTestEvaluator()
	for _, tc := range []struct {
		src   term.Handle
		want  uint32
		known bool
	}{
		{h.NewList([]term.Handle{h.NewInt(1)}), 1, true},
		{h.NewRangeIterator(0, 9), 9, true},
		{h.NewZipIterator(h.NewRangeIterator(0, 3), h.NewRangeIterator(0, 7)), 3, true},
		{h.NewSkipIterator(h.NewRangeIterator(0, 5), 2), 3, true},
		{h.NewTakeIterator(h.NewRangeIterator(0, 5), 2), 2, true},
		{h.NewIntersperseIterator(h.NewRangeIterator(0, 3), h.NewInt(0)), 5, true},
		{h.NewRepeatIterator(h.NewInt(1)), 0, false},
		{h.NewFilterIterator(h.NewRangeIterator(0, 5), h.NewLambda(1, h.NewVariable(0))), 0, false},
	} {
		n, ok := h.SizeHint(tc.src)
		if ok != tc.known || (ok && n != tc.want) {
			t.Fatalf("SizeHint(%s) = %d,%v want %d,%v", h.Debug(tc.src), n, ok, tc.want, tc.known)
		}
	}
}
