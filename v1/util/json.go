// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// UnmarshalJSON parses the JSON encoded data and stores the result in the value
// pointed to by x.
//
// This function is intended to be used in place of the standard [json.Unmarshal]
// function when [json.Number] is required.
func UnmarshalJSON(bs []byte, x any) error {
	decoder := NewJSONDecoder(bytes.NewBuffer(bs))
	if err := decoder.Decode(x); err != nil {
		return err
	}

	// Since decoder.Decode validates only the first json structure in bytes,
	// check if decoder has more bytes to consume to validate whole input bytes.
	tok, err := decoder.Token()
	if tok != nil {
		return fmt.Errorf("error: invalid character '%s' after top-level value", tok)
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// NewJSONDecoder returns a new decoder that reads from r.
//
// This function is intended to be used in place of the standard [json.NewDecoder]
// when [json.Number] is required.
func NewJSONDecoder(r io.Reader) *json.Decoder {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	return decoder
}

// MustUnmarshalJSON parses the JSON encoded data and returns the result.
//
// If the data cannot be decoded, this function will panic. This function is for
// test purposes.
func MustUnmarshalJSON(bs []byte) any {
	var x any
	if err := UnmarshalJSON(bs, &x); err != nil {
		panic(err)
	}
	return x
}

// MustMarshalJSON returns the JSON encoding of x.
//
// If the data cannot be encoded, this function will panic. This function is for
// test purposes.
func MustMarshalJSON(x any) []byte {
	bs, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return bs
}

// RoundTrip encodes to JSON, and decodes the result again.
//
// Thereby, it is converting its argument to the representation expected by the
// term bridge: nested map[string]any / []any / json.Number values. Works with
// both references and values.
func RoundTrip(x *any) error {
	// Avoid round-tripping types that won't change as a result of
	// marshalling/unmarshalling, as even for those values, round-tripping
	// comes with a significant cost.
	if x == nil || !NeedsRoundTrip(*x) {
		return nil
	}

	// For number types, we can write the json.Number representation
	// directly into x without marshalling to bytes and back.
	if n, ok := toJSONNumber(*x); ok {
		*x = n
		return nil
	}

	buf := getBuffer()
	defer putBuffer(buf)

	encoder := json.NewEncoder(buf)
	if err := encoder.Encode(x); err != nil {
		return err
	}

	// Remove trailing newline added by Encoder.Encode
	bs := buf.Bytes()
	if len(bs) > 0 && bs[len(bs)-1] == '\n' {
		bs = bs[:len(bs)-1]
	}

	return UnmarshalJSON(bs, x)
}

// NeedsRoundTrip returns true if the value may change as a result of a
// marshalling/unmarshalling round-trip.
func NeedsRoundTrip(x any) bool {
	switch x.(type) {
	case nil, bool, string, json.Number:
		return false
	}
	return true
}

// Unmarshal decodes a YAML or JSON value into the specified type.
func Unmarshal(bs []byte, v any) error {
	if len(bs) > 2 && bs[0] == 0xef && bs[1] == 0xbb && bs[2] == 0xbf {
		bs = bs[3:] // Strip UTF-8 BOM, see https://www.rfc-editor.org/rfc/rfc8259#section-8.1
	}

	if json.Valid(bs) {
		return UnmarshalJSON(bs, v)
	}
	nbs, err := yaml.YAMLToJSON(bs)
	if err == nil {
		return UnmarshalJSON(nbs, v)
	}
	return err
}
