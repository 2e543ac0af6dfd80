// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"bytes"
	"math"
	"testing"
)

func mustParse(t *testing.T, h *Heap, src string) Handle {
	t.Helper()
	v, off := h.ParseJSON([]byte(src))
	if v == Null {
		t.Fatalf("parse of %q failed at offset %d", src, off)
	}
	return v
}

func TestParseJSONScalars(t *testing.T) {
	h := NewHeap()
	for _, tc := range []struct {
		src  string
		want Handle
	}{
		{"null", h.NewNil()},
		{"true", h.NewBoolean(true)},
		{"false", h.NewBoolean(false)},
		{"0", h.NewInt(0)},
		{"-1", h.NewInt(-1)},
		{"123456789", h.NewInt(123456789)},
		{"1.5", h.NewFloat(1.5)},
		{"-2.25e2", h.NewFloat(-225)},
		{"1e3", h.NewFloat(1000)},
		{`"hello"`, h.NewString("hello")},
		{`"a\nb\t\"c\""`, h.NewString("a\nb\t\"c\"")},
	} {
		got := mustParse(t, h, tc.src)
		if !h.Equals(got, tc.want) {
			t.Fatalf("parse %q = %s, want %s", tc.src, h.Debug(got), h.Debug(tc.want))
		}
	}
}

func TestParseJSONWhitespace(t *testing.T) {
	h := NewHeap()
	got := mustParse(t, h, "  \t\n [ 1 , 2 , { \"a\" : null } ]  \r\n")
	want := h.NewList([]Handle{
		h.NewInt(1), h.NewInt(2),
		h.NewRecord(h.NewList([]Handle{h.NewString("a")}), h.NewList([]Handle{h.NewNil()})),
	})
	if !h.Equals(got, want) {
		t.Fatalf("got %s, want %s", h.Debug(got), h.Debug(want))
	}
}

func TestParseJSONSurrogatePairs(t *testing.T) {
	h := NewHeap()
	got := mustParse(t, h, `"\ud83d`+`\ude00"`)
	if s := h.StringValue(got); s != "\U0001F600" {
		t.Fatalf("surrogate pair decoded to %q", s)
	}
	// lone surrogate degrades to the replacement rune
	got = mustParse(t, h, `"\ud83d"`)
	if s := h.StringValue(got); s != "�" {
		t.Fatalf("lone surrogate decoded to %q", s)
	}
}

func TestParseJSONFailureOffset(t *testing.T) {
	h := NewHeap()
	for _, tc := range []struct {
		src string
	}{
		{""},
		{"{"},
		{"[1,]"},
		{`{"a" 1}`},
		{"tru"},
		{"1."},
		{`"unterminated`},
		{"[1] trailing"},
	} {
		if v, _ := h.ParseJSON([]byte(tc.src)); v != Null {
			t.Fatalf("parse %q unexpectedly succeeded", tc.src)
		}
	}
	_, off := h.ParseJSON([]byte(`[1, x]`))
	if off != 4 {
		t.Fatalf("failure offset = %d, want 4", off)
	}
}

func toJSON(t *testing.T, h *Heap, tm Handle) string {
	t.Helper()
	var buf bytes.Buffer
	if !h.ToJSON(tm, &buf) {
		t.Fatalf("ToJSON failed for %s", h.Debug(tm))
	}
	return buf.String()
}

func TestJSONRoundTrip(t *testing.T) {
	h := NewHeap()
	terms := []Handle{
		h.NewNil(),
		h.NewBoolean(false),
		h.NewInt(-42),
		h.NewFloat(2.5),
		h.NewFloat(1), // integral float must survive the round-trip
		h.NewString("with \"quotes\" and \n newline"),
		h.NewList([]Handle{h.NewInt(1), h.NewString("two"), h.NewList(nil)}),
		h.NewRecord(
			h.NewList([]Handle{h.NewString("a"), h.NewString("b")}),
			h.NewList([]Handle{h.NewList(nil), h.NewRecord(h.NewList(nil), h.NewList(nil))}),
		),
	}
	for _, tm := range terms {
		src := toJSON(t, h, tm)
		back, off := h.ParseJSON([]byte(src))
		if back == Null {
			t.Fatalf("re-parse of %q failed at %d", src, off)
		}
		if !h.Equals(back, tm) {
			t.Fatalf("round trip of %s via %q gave %s", h.Debug(tm), src, h.Debug(back))
		}
	}
}

func TestToJSONMinimalOutput(t *testing.T) {
	h := NewHeap()
	tm := mustParse(t, h, ` { "a" : [ 1 , 2.5 ] , "b" : "x" } `)
	if got := toJSON(t, h, tm); got != `{"a":[1,2.5],"b":"x"}` {
		t.Fatalf("output not minimal: %q", got)
	}
}

func TestToJSONNonRepresentableFloats(t *testing.T) {
	h := NewHeap()
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := toJSON(t, h, h.NewFloat(v)); got != "null" {
			t.Fatalf("float %v serialized to %q, want null", v, got)
		}
	}
}

func TestToJSONUnserializable(t *testing.T) {
	h := NewHeap()
	var buf bytes.Buffer
	for _, tm := range []Handle{
		h.NewLambda(1, h.NewVariable(0)),
		h.NewSignal(h.NewPendingCondition()),
		h.NewList([]Handle{h.NewInt(1), h.NewEffect(h.NewPendingCondition())}),
		// record with a non-string key
		h.NewRecord(h.NewList([]Handle{h.NewInt(1)}), h.NewList([]Handle{h.NewInt(2)})),
	} {
		buf.Reset()
		if h.ToJSON(tm, &buf) {
			t.Fatalf("expected failure marker for %s", h.Debug(tm))
		}
	}
}
