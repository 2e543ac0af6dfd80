// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalJSONUsesNumbers(t *testing.T) {
	var x any
	if err := UnmarshalJSON([]byte(`{"n": 12345678901234567890}`), &x); err != nil {
		t.Fatal(err)
	}
	n := x.(map[string]any)["n"]
	if _, ok := n.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", n)
	}
}

func TestUnmarshalJSONRejectsTrailingGarbage(t *testing.T) {
	var x any
	if err := UnmarshalJSON([]byte(`{} {}`), &x); err == nil {
		t.Fatal("expected an error for trailing content")
	}
}

func TestRoundTripNumbers(t *testing.T) {
	var x any = 42
	if err := RoundTrip(&x); err != nil {
		t.Fatal(err)
	}
	if n, ok := x.(json.Number); !ok || n.String() != "42" {
		t.Fatalf("got %T %v", x, x)
	}
}

func TestRoundTripSkipsStableTypes(t *testing.T) {
	var x any = "already fine"
	if err := RoundTrip(&x); err != nil {
		t.Fatal(err)
	}
	if x != "already fine" {
		t.Fatalf("got %v", x)
	}
}

func TestUnmarshalYAML(t *testing.T) {
	var x map[string]any
	if err := Unmarshal([]byte("a: 1\nb: two\n"), &x); err != nil {
		t.Fatal(err)
	}
	if x["b"] != "two" {
		t.Fatalf("got %v", x)
	}
}

func TestUnmarshalStripsBOM(t *testing.T) {
	var x map[string]any
	if err := Unmarshal([]byte("\xef\xbb\xbf{\"a\": 1}"), &x); err != nil {
		t.Fatal(err)
	}
	if _, ok := x["a"]; !ok {
		t.Fatalf("got %v", x)
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"c": 1, "a": 2, "b": 3}
	keys := SortedKeys(m)
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("got %v", keys)
	}
}
