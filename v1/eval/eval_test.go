// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/reflow-lang/reflow/v1/term"
)

func newTestEvaluator() (*Evaluator, *term.Heap) {
	h := term.NewHeap()
	return New(h), h
}

func add(h *term.Heap, a, b term.Handle) term.Handle {
	return h.NewApplication(h.NewBuiltin(BuiltinAdd), h.NewList([]term.Handle{a, b}))
}

func TestPureArithmetic(t *testing.T) {
	e, h := newTestEvaluator()
	result, deps := e.Evaluate(add(h, h.NewInt(3), h.NewInt(4)), term.Null)
	if !h.Equals(result, h.NewInt(7)) {
		t.Fatalf("result = %s, want 7", h.Debug(result))
	}
	if deps != term.Null {
		t.Fatalf("deps = %s, want empty", h.Debug(deps))
	}
	if got := h.Format(result); got != "7" {
		t.Fatalf("format = %q, want \"7\"", got)
	}
}

func TestSignalShortCircuitInArgument(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(123), h.NewString("foo"), term.Null)
	sig := h.NewSignal(cond)
	result, deps := e.Evaluate(add(h, h.NewInt(3), sig), term.Null)
	if !h.IsSignal(result) {
		t.Fatalf("result = %s, want a signal", h.Debug(result))
	}
	leaves := h.TreeLeaves(h.SignalConditions(result))
	if len(leaves) != 1 || !h.Equals(leaves[0], cond) {
		t.Fatalf("signal conditions = %s", h.Debug(result))
	}
	if deps != term.Null {
		t.Fatalf("deps = %s, want empty", h.Debug(deps))
	}
}

func TestMultipleSignalArgumentsUnion(t *testing.T) {
	e, h := newTestEvaluator()
	c1 := h.NewCustomCondition(h.NewSymbol(1), h.NewInt(1), term.Null)
	c2 := h.NewCustomCondition(h.NewSymbol(2), h.NewInt(2), term.Null)
	result, _ := e.Evaluate(add(h, h.NewSignal(c1), h.NewSignal(c2)), term.Null)
	if !h.IsSignal(result) {
		t.Fatalf("result = %s, want a signal", h.Debug(result))
	}
	leaves := h.TreeLeaves(h.SignalConditions(result))
	if len(leaves) != 2 {
		t.Fatalf("got %d conditions, want the union of both", len(leaves))
	}
}

func TestEffectResolvesFromState(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(123), h.NewInt(3), term.Null)
	expr := h.NewEffect(cond)
	state := NewState(h, [][2]term.Handle{{cond, h.NewInt(42)}})
	result, deps := e.Evaluate(expr, state)
	if !h.Equals(result, h.NewInt(42)) {
		t.Fatalf("result = %s, want 42", h.Debug(result))
	}
	leaves := h.TreeLeaves(deps)
	if len(leaves) != 1 || !h.Equals(leaves[0], cond) {
		t.Fatalf("deps = %s, want {condition}", h.Debug(deps))
	}
}

func TestEffectUnresolved(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(123), h.NewInt(3), term.Null)
	result, deps := e.Evaluate(h.NewEffect(cond), term.Null)
	if !h.IsSignal(result) {
		t.Fatalf("result = %s, want a signal", h.Debug(result))
	}
	leaves := h.TreeLeaves(h.SignalConditions(result))
	if len(leaves) != 1 || !h.Equals(leaves[0], cond) {
		t.Fatalf("signal must carry the effect condition, got %s", h.Debug(result))
	}
	depLeaves := h.TreeLeaves(deps)
	if len(depLeaves) != 1 || !h.Equals(depLeaves[0], cond) {
		t.Fatalf("deps must carry the effect condition, got %s", h.Debug(deps))
	}
}

func TestLambdaApplication(t *testing.T) {
	e, h := newTestEvaluator()
	body := h.NewApplication(h.NewBuiltin(BuiltinSubtract), h.NewList([]term.Handle{h.NewVariable(1), h.NewVariable(0)}))
	lam := h.NewLambda(2, body)
	expr := h.NewApplication(lam, h.NewList([]term.Handle{h.NewInt(3), h.NewInt(4)}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewInt(-1)) {
		t.Fatalf("result = %s, want -1", h.Debug(result))
	}
}

func TestLambdaWrongArity(t *testing.T) {
	e, h := newTestEvaluator()
	lam := h.NewLambda(2, h.NewVariable(0))
	expr := h.NewApplication(lam, h.NewList([]term.Handle{h.NewInt(1)}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.IsSignal(result) || !h.SignalHas(result, func(ct term.ConditionType) bool {
		return ct == term.ConditionInvalidFunctionArgs
	}) {
		t.Fatalf("result = %s, want invalid-function-args signal", h.Debug(result))
	}
}

func TestApplyNonFunction(t *testing.T) {
	e, h := newTestEvaluator()
	expr := h.NewApplication(h.NewInt(3), h.NewList([]term.Handle{h.NewInt(1)}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.IsSignal(result) || !h.SignalHas(result, func(ct term.ConditionType) bool {
		return ct == term.ConditionInvalidFunctionTarget
	}) {
		t.Fatalf("result = %s, want invalid-function-target signal", h.Debug(result))
	}
}

func TestApplySignalTarget(t *testing.T) {
	e, h := newTestEvaluator()
	sig := h.PendingSignal()
	expr := h.NewApplication(sig, h.NewList([]term.Handle{h.NewInt(1)}))
	result, _ := e.Evaluate(expr, term.Null)
	if result != sig {
		t.Fatalf("apply on a signal target must return the signal, got %s", h.Debug(result))
	}
}

func TestPartialApplication(t *testing.T) {
	e, h := newTestEvaluator()
	inc := h.NewPartial(h.NewBuiltin(BuiltinAdd), h.NewList([]term.Handle{h.NewInt(1)}))
	expr := h.NewApplication(inc, h.NewList([]term.Handle{h.NewInt(41)}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewInt(42)) {
		t.Fatalf("result = %s, want 42", h.Debug(result))
	}
}

func TestLetEvaluation(t *testing.T) {
	e, h := newTestEvaluator()
	// let x = 5 in x + 2
	let := h.NewLet(h.NewInt(5), add(h, h.NewVariable(0), h.NewInt(2)))
	result, _ := e.Evaluate(let, term.Null)
	if !h.Equals(result, h.NewInt(7)) {
		t.Fatalf("result = %s, want 7", h.Debug(result))
	}
}

func TestPointerEvaluation(t *testing.T) {
	e, h := newTestEvaluator()
	p := h.NewPointer(add(h, h.NewInt(1), h.NewInt(2)))
	result, _ := e.Evaluate(p, term.Null)
	if !h.Equals(result, h.NewInt(3)) {
		t.Fatalf("result = %s, want 3", h.Debug(result))
	}
	dangling := h.NewPointer(term.Null)
	result, _ = e.Evaluate(dangling, term.Null)
	if result != h.InvalidPointerSignal() {
		t.Fatalf("dangling pointer must produce the invalid-pointer signal, got %s", h.Debug(result))
	}
}

func TestConstructorApplication(t *testing.T) {
	e, h := newTestEvaluator()
	keys := h.NewList([]term.Handle{h.NewString("x"), h.NewString("y")})
	ctor := h.NewConstructor(keys)
	expr := h.NewApplication(ctor, h.NewList([]term.Handle{h.NewInt(1), add(h, h.NewInt(1), h.NewInt(1))}))
	result, _ := e.Evaluate(expr, term.Null)
	if h.TypeOf(result) != term.TagRecord {
		t.Fatalf("result = %s, want a record", h.Debug(result))
	}
	if v := h.RecordGet(result, h.NewString("y")); !h.Equals(v, h.NewInt(2)) {
		t.Fatalf("field y = %s, want 2", h.Debug(v))
	}
}

func TestIfLazyBranches(t *testing.T) {
	e, h := newTestEvaluator()
	// the untaken branch would signal if evaluated strictly
	bad := h.NewApplication(h.NewInt(0), h.NewList(nil))
	expr := h.NewApplication(h.NewBuiltin(BuiltinIf), h.NewList([]term.Handle{
		h.NewBoolean(true), h.NewInt(1), bad,
	}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewInt(1)) {
		t.Fatalf("result = %s, want 1", h.Debug(result))
	}
	// condition signals still short-circuit past the lazy branches
	expr = h.NewApplication(h.NewBuiltin(BuiltinIf), h.NewList([]term.Handle{
		h.PendingSignal(), h.NewInt(1), h.NewInt(2),
	}))
	result, _ = e.Evaluate(expr, term.Null)
	if result != h.PendingSignal() {
		t.Fatalf("result = %s, want the pending signal", h.Debug(result))
	}
}

func TestIfPendingFallback(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(9), h.NewNil(), term.Null)
	expr := h.NewApplication(h.NewBuiltin(BuiltinIfPending), h.NewList([]term.Handle{
		h.NewEffect(cond), h.NewString("fallback"),
	}))
	result, deps := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewString("fallback")) {
		t.Fatalf("result = %s, want the fallback", h.Debug(result))
	}
	leaves := h.TreeLeaves(deps)
	if len(leaves) != 1 || !h.Equals(leaves[0], cond) {
		t.Fatalf("deps must still record the unresolved condition, got %s", h.Debug(deps))
	}
	// once resolved, the primary value wins
	state := NewState(h, [][2]term.Handle{{cond, h.NewInt(5)}})
	result, _ = e.Evaluate(expr, state)
	if !h.Equals(result, h.NewInt(5)) {
		t.Fatalf("result = %s, want 5", h.Debug(result))
	}
}

func TestIfErrorFallback(t *testing.T) {
	e, h := newTestEvaluator()
	failing := h.NewApplication(h.NewBuiltin(BuiltinDivide), h.NewList([]term.Handle{h.NewInt(1), h.NewInt(0)}))
	expr := h.NewApplication(h.NewBuiltin(BuiltinIfError), h.NewList([]term.Handle{
		failing, h.NewString("recovered"),
	}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewString("recovered")) {
		t.Fatalf("result = %s, want the fallback", h.Debug(result))
	}
	// pending signals pass through if-error untouched
	expr = h.NewApplication(h.NewBuiltin(BuiltinIfError), h.NewList([]term.Handle{
		h.PendingSignal(), h.NewString("recovered"),
	}))
	result, _ = e.Evaluate(expr, term.Null)
	if result != h.PendingSignal() {
		t.Fatalf("result = %s, want the pending signal", h.Debug(result))
	}
}

func TestSequence(t *testing.T) {
	e, h := newTestEvaluator()
	expr := h.NewApplication(h.NewBuiltin(BuiltinSequence), h.NewList([]term.Handle{
		h.NewInt(1), h.NewInt(2),
	}))
	result, _ := e.Evaluate(expr, term.Null)
	if !h.Equals(result, h.NewInt(2)) {
		t.Fatalf("result = %s, want 2", h.Debug(result))
	}
	expr = h.NewApplication(h.NewBuiltin(BuiltinSequence), h.NewList([]term.Handle{
		h.PendingSignal(), h.NewInt(2),
	}))
	result, _ = e.Evaluate(expr, term.Null)
	if result != h.PendingSignal() {
		t.Fatalf("a signalling first step must abort the sequence, got %s", h.Debug(result))
	}
}

func TestEvaluationDeterministic(t *testing.T) {
	e, h := newTestEvaluator()
	cond := h.NewCustomCondition(h.NewSymbol(1), h.NewInt(1), term.Null)
	expr := add(h, h.NewEffect(cond), h.NewInt(4))
	state := NewState(h, [][2]term.Handle{{cond, h.NewInt(3)}})
	first, firstDeps := e.Evaluate(expr, state)
	for i := 0; i < 5; i++ {
		again, againDeps := e.Evaluate(expr, state)
		if !h.Equals(first, again) {
			t.Fatalf("evaluation not deterministic: %s vs %s", h.Debug(first), h.Debug(again))
		}
		if len(h.TreeLeaves(firstDeps)) != len(h.TreeLeaves(againDeps)) {
			t.Fatal("dependency sets differ across repeated evaluation")
		}
	}
}

func TestEquivalentStatesEquivalentResults(t *testing.T) {
	e, h := newTestEvaluator()
	c1 := h.NewCustomCondition(h.NewSymbol(1), h.NewInt(1), term.Null)
	c2 := h.NewCustomCondition(h.NewSymbol(2), h.NewInt(2), term.Null)
	expr := add(h, h.NewEffect(c1), h.NewInt(4))
	s1 := NewState(h, [][2]term.Handle{{c1, h.NewInt(3)}})
	// s2 differs only on conditions the expression does not depend on
	s2 := NewState(h, [][2]term.Handle{{c1, h.NewInt(3)}, {c2, h.NewInt(99)}})
	r1, _ := e.Evaluate(expr, s1)
	r2, _ := e.Evaluate(expr, s2)
	if !h.Equals(r1, r2) {
		t.Fatalf("states agreeing on the dependency set must agree on results: %s vs %s", h.Debug(r1), h.Debug(r2))
	}
}
