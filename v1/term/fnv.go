// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import "math"

// Streaming FNV-1a over bytes and fixed-width integers. Multi-byte values are
// folded in little-endian order so hashes are byte-order-stable across
// platforms.

const (
	fnvOffsetBasis64 uint64 = 0xcbf29ce484222325
	fnvPrime64       uint64 = 0x100000001b3
)

// NewFNV returns the 64-bit FNV-1a offset basis.
func NewFNV() uint64 {
	return fnvOffsetBasis64
}

// FNVByte folds a single byte into the hash.
func FNVByte(h uint64, b byte) uint64 {
	return (h ^ uint64(b)) * fnvPrime64
}

// FNVBytes folds a byte slice into the hash.
func FNVBytes(h uint64, bs []byte) uint64 {
	for _, b := range bs {
		h = (h ^ uint64(b)) * fnvPrime64
	}
	return h
}

// FNVUint32 folds a 32-bit value into the hash.
func FNVUint32(h uint64, v uint32) uint64 {
	h = FNVByte(h, byte(v))
	h = FNVByte(h, byte(v>>8))
	h = FNVByte(h, byte(v>>16))
	return FNVByte(h, byte(v>>24))
}

// FNVInt32 folds a signed 32-bit value into the hash.
func FNVInt32(h uint64, v int32) uint64 {
	return FNVUint32(h, uint32(v))
}

// FNVUint64 folds a 64-bit value into the hash.
func FNVUint64(h uint64, v uint64) uint64 {
	h = FNVUint32(h, uint32(v))
	return FNVUint32(h, uint32(v>>32))
}

// FNVInt64 folds a signed 64-bit value into the hash.
func FNVInt64(h uint64, v int64) uint64 {
	return FNVUint64(h, uint64(v))
}

// FNVFloat64 folds the IEEE-754 bits of v into the hash. NaN payloads and
// the sign of zero are canonicalized so that values comparing equal hash
// identically.
func FNVFloat64(h uint64, v float64) uint64 {
	bits := math.Float64bits(v)
	if v != v {
		bits = math.Float64bits(math.NaN())
	}
	if v == 0 {
		bits = 0
	}
	return FNVUint64(h, bits)
}
