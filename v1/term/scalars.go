// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import "math"

// NewNil returns the nil singleton.
func (h *Heap) NewNil() Handle {
	return h.nilTerm
}

// NewBoolean returns the boolean singleton for v.
func (h *Heap) NewBoolean(v bool) Handle {
	if v {
		return h.trueTerm
	}
	return h.falseTerm
}

func (h *Heap) newBooleanRaw(v bool) Handle {
	t := h.newTerm(TagBoolean, 4)
	if v {
		h.setField(t, 0, 1)
	}
	return h.seal(t)
}

// BooleanValue returns the value of a boolean term.
func (h *Heap) BooleanValue(t Handle) bool {
	return h.field(t, 0) != 0
}

// NewInt returns an integer term. Values in the singleton range are
// reference-equal across calls.
func (h *Heap) NewInt(v int64) Handle {
	if v >= smallIntMin && v <= smallIntMax {
		return h.smallInts[v-smallIntMin]
	}
	return h.newIntRaw(v)
}

func (h *Heap) newIntRaw(v int64) Handle {
	t := h.newTerm(TagInt, 8)
	h.putU64(h.fieldsAt(t), uint64(v))
	return h.seal(t)
}

// IntValue returns the value of an integer term.
func (h *Heap) IntValue(t Handle) int64 {
	return int64(h.u64(h.fieldsAt(t)))
}

// NewFloat returns a float term.
func (h *Heap) NewFloat(v float64) Handle {
	t := h.newTerm(TagFloat, 8)
	bits := math.Float64bits(v)
	if v != v {
		bits = math.Float64bits(math.NaN())
	}
	h.putU64(h.fieldsAt(t), bits)
	return h.seal(t)
}

// FloatValue returns the value of a float term.
func (h *Heap) FloatValue(t Handle) float64 {
	return math.Float64frombits(h.u64(h.fieldsAt(t)))
}

// NewString returns a string term: a 4-byte length followed by the raw bytes
// padded to 4-byte alignment.
func (h *Heap) NewString(s string) Handle {
	t := h.newTerm(TagString, 4+align4(uint32(len(s))))
	h.setField(t, 0, uint32(len(s)))
	copy(h.buf[h.fieldsAt(t)+4:], s)
	return h.seal(t)
}

// StringValue returns the contents of a string term.
func (h *Heap) StringValue(t Handle) string {
	n := h.field(t, 0)
	return string(h.rawBytes(h.fieldsAt(t)+4, n))
}

// StringLen returns the byte length of a string term.
func (h *Heap) StringLen(t Handle) uint32 {
	return h.field(t, 0)
}

// NewSymbol returns a symbol term for the given 32-bit id.
func (h *Heap) NewSymbol(id uint32) Handle {
	t := h.newTerm(TagSymbol, 4)
	h.setField(t, 0, id)
	return h.seal(t)
}

// SymbolID returns the id of a symbol term.
func (h *Heap) SymbolID(t Handle) uint32 {
	return h.field(t, 0)
}

// NewTimestamp returns a timestamp term holding milliseconds since the Unix
// epoch.
func (h *Heap) NewTimestamp(millis int64) Handle {
	t := h.newTerm(TagTimestamp, 8)
	h.putU64(h.fieldsAt(t), uint64(millis))
	return h.seal(t)
}

// TimestampMillis returns the milliseconds of a timestamp term.
func (h *Heap) TimestampMillis(t Handle) int64 {
	return int64(h.u64(h.fieldsAt(t)))
}
