// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import "testing"

func TestSubstituteNoChanges(t *testing.T) {
	h := NewHeap()
	body := h.NewApplication(h.NewBuiltin(1), h.NewList([]Handle{h.NewInt(1), h.NewInt(2)}))
	if got := h.Substitute(body, h.NewList([]Handle{h.NewInt(9)}), 0); got != Null {
		t.Fatalf("expected Null (no changes), got %s", h.Debug(got))
	}
}

func TestSubstituteReverseIndexing(t *testing.T) {
	h := NewHeap()
	// scope [a, b]: the last-pushed element is offset 0
	body := h.NewList([]Handle{h.NewVariable(0), h.NewVariable(1)})
	scope := h.NewList([]Handle{h.NewString("a"), h.NewString("b")})
	got := h.Substitute(body, scope, 0)
	want := h.NewList([]Handle{h.NewString("b"), h.NewString("a")})
	if got == Null || !h.Equals(got, want) {
		t.Fatalf("got %s, want %s", h.Debug(got), h.Debug(want))
	}
}

func TestSubstituteEnclosingScopeAdjustment(t *testing.T) {
	h := NewHeap()
	// variable(2) points past a 2-element frame: it must shift down by 2
	got := h.Substitute(h.NewVariable(2), h.NewList([]Handle{h.NewInt(1), h.NewInt(2)}), 0)
	if got == Null || h.VariableOffset(got) != 0 {
		t.Fatalf("expected variable(0), got %s", h.Debug(got))
	}
}

func TestSubstituteUnderLambda(t *testing.T) {
	h := NewHeap()
	// lambda(1, variable(1)) closes over the outer frame's variable(0);
	// inside the lambda the binder shifts the reference by its arity
	lam := h.NewLambda(1, h.NewVariable(1))
	got := h.Substitute(lam, h.NewList([]Handle{h.NewInt(7)}), 0)
	if got == Null {
		t.Fatal("expected a change")
	}
	if body := h.LambdaBody(got); !h.Equals(body, h.NewInt(7)) {
		t.Fatalf("lambda body = %s, want 7", h.Debug(body))
	}
	// the lambda's own parameter stays untouched
	lam2 := h.NewLambda(1, h.NewVariable(0))
	if got := h.Substitute(lam2, h.NewList([]Handle{h.NewInt(7)}), 0); got != Null {
		t.Fatalf("bound variable must not be substituted, got %s", h.Debug(got))
	}
}

func TestSubstituteShiftsReplacementIntoDeeperScope(t *testing.T) {
	h := NewHeap()
	// substituting a term that itself contains a free variable into a
	// lambda body must shift that variable past the lambda's binder
	lam := h.NewLambda(1, h.NewVariable(1))
	replacement := h.NewVariable(3)
	got := h.Substitute(lam, h.NewList([]Handle{replacement}), 0)
	if got == Null {
		t.Fatal("expected a change")
	}
	if body := h.LambdaBody(got); h.VariableOffset(body) != 4 {
		t.Fatalf("replacement variable = %d, want 4", h.VariableOffset(body))
	}
}

func TestSubstituteScopeOffsetOnly(t *testing.T) {
	h := NewHeap()
	got := h.Substitute(h.NewVariable(1), Null, 3)
	if got == Null || h.VariableOffset(got) != 4 {
		t.Fatalf("expected variable(4), got %s", h.Debug(got))
	}
	if got := h.Substitute(h.NewVariable(1), Null, 0); got != Null {
		t.Fatal("zero offset must report no changes")
	}
	// bound variables stay put under the shift
	lam := h.NewLambda(2, h.NewVariable(1))
	if got := h.Substitute(lam, Null, 5); got != Null {
		t.Fatalf("variables bound inside the term must not shift, got %s", h.Debug(got))
	}
}

func TestSubstituteLetBody(t *testing.T) {
	h := NewHeap()
	// let binds one variable: inside the body, frame offsets start at 1
	let := h.NewLet(h.NewVariable(0), h.NewVariable(1))
	got := h.Substitute(let, h.NewList([]Handle{h.NewInt(5)}), 0)
	if got == Null {
		t.Fatal("expected a change")
	}
	if init := h.LetInitializer(got); !h.Equals(init, h.NewInt(5)) {
		t.Fatalf("initializer = %s, want 5", h.Debug(init))
	}
	if body := h.LetBody(got); !h.Equals(body, h.NewInt(5)) {
		t.Fatalf("body = %s, want 5", h.Debug(body))
	}
}
