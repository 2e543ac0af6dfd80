// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package term implements the immutable term heap: a bump-allocated arena of
// content-addressed terms with precomputed structural hashes, the term
// algebra (scalars, collections, functions, iterators, signals), structural
// substitution, human/lossless formatting, and a JSON codec.
//
// Terms are immutable after construction. The two exceptions are cell terms,
// which hash by identity and exist to hold rewritable slots (the memoization
// cache lives in one), and pointer terms, which forward to a rewritable
// target so that handles stay valid across cache reallocation.
package term

// Tag discriminates the term variants. The union is closed: every dispatch
// site switches exhaustively over these values.
type Tag uint32

const (
	TagNil Tag = iota
	TagBoolean
	TagInt
	TagFloat
	TagString
	TagSymbol
	TagTimestamp
	TagList
	TagRecord
	TagHashmap
	TagHashset
	TagTree
	TagBuiltin
	TagPartial
	TagLambda
	TagVariable
	TagLet
	TagApplication
	TagConstructor
	TagCondition
	TagSignal
	TagEffect
	TagCell
	TagPointer
	TagEmptyIterator
	TagOnceIterator
	TagRepeatIterator
	TagRangeIterator
	TagIntegersIterator
	TagMapIterator
	TagFilterIterator
	TagFlattenIterator
	TagZipIterator
	TagSkipIterator
	TagTakeIterator
	TagEvaluateIterator
	TagIntersperseIterator
	TagHashmapKeysIterator
	TagHashmapValuesIterator
)

const (
	// headerBytes is the fixed prefix of every term: a 4-byte precomputed
	// hash followed by a 4-byte type tag.
	headerBytes = 8

	hashOffset = 0
	tagOffset  = 4
)

// newTerm allocates a term with the given tag and payload size. The caller
// writes the payload fields and then calls seal to compute and store the
// header hash.
func (h *Heap) newTerm(tag Tag, payload uint32) Handle {
	t := h.Allocate(headerBytes + payload)
	h.putU32(t+tagOffset, uint32(tag))
	return t
}

// seal computes the structural hash of a fully-initialized term and stores
// the low 32 bits in the header.
func (h *Heap) seal(t Handle) Handle {
	h.putU32(t+hashOffset, uint32(h.hashTerm(t)))
	return t
}

// TypeOf returns the type tag of a term.
func (h *Heap) TypeOf(t Handle) Tag {
	return Tag(h.u32(t + tagOffset))
}

// TermHash returns the precomputed structural hash stored in the term header.
func (h *Heap) TermHash(t Handle) uint32 {
	return h.u32(t + hashOffset)
}

func (h *Heap) fieldsAt(t Handle) uint32 {
	return t + headerBytes
}

func (h *Heap) field(t Handle, i uint32) uint32 {
	return h.u32(t + headerBytes + 4*i)
}

func (h *Heap) setField(t Handle, i uint32, v uint32) {
	h.putU32(t+headerBytes+4*i, v)
}

// childHash returns the header hash of a child handle, with a stable sentinel
// for Null.
func (h *Heap) childHash(c Handle) uint32 {
	if c == Null {
		return Null
	}
	return h.TermHash(c)
}

// Deref follows pointer indirections until a non-pointer term is reached.
// Returns Null for a dangling pointer.
func (h *Heap) Deref(t Handle) Handle {
	for t != Null && h.TypeOf(t) == TagPointer {
		t = h.field(t, 0)
	}
	return t
}

// ImplementsEvaluate reports whether terms with the given tag reduce to
// something other than themselves.
func ImplementsEvaluate(tag Tag) bool {
	switch tag {
	case TagApplication, TagEffect, TagLet, TagPointer:
		return true
	}
	return false
}

// ImplementsApply reports whether terms with the given tag can appear in
// function position of an application.
func ImplementsApply(tag Tag) bool {
	switch tag {
	case TagBuiltin, TagPartial, TagLambda, TagConstructor, TagSignal:
		return true
	}
	return false
}

// ImplementsIterate reports whether terms with the given tag produce items.
func ImplementsIterate(tag Tag) bool {
	switch tag {
	case TagList, TagRecord, TagHashmap, TagHashset, TagTree:
		return true
	case TagEmptyIterator, TagOnceIterator, TagRepeatIterator, TagRangeIterator,
		TagIntegersIterator, TagMapIterator, TagFilterIterator, TagFlattenIterator,
		TagZipIterator, TagSkipIterator, TagTakeIterator, TagEvaluateIterator,
		TagIntersperseIterator, TagHashmapKeysIterator, TagHashmapValuesIterator:
		return true
	}
	return false
}

// IsIterator reports whether the tag is a suspended iterator (as opposed to a
// materialized collection).
func IsIterator(tag Tag) bool {
	return ImplementsIterate(tag) && !isCollection(tag)
}

func isCollection(tag Tag) bool {
	switch tag {
	case TagList, TagRecord, TagHashmap, TagHashset, TagTree:
		return true
	}
	return false
}

// IsAtomic reports whether a term evaluates to itself.
func (h *Heap) IsAtomic(t Handle) bool {
	return !ImplementsEvaluate(h.TypeOf(t))
}

// IsTruthy reports the branch polarity of a term: nil and false are falsy,
// everything else is truthy.
func (h *Heap) IsTruthy(t Handle) bool {
	switch h.TypeOf(t) {
	case TagNil:
		return false
	case TagBoolean:
		return h.field(t, 0) != 0
	}
	return true
}

// IsSignal reports whether a term is a signal.
func (h *Heap) IsSignal(t Handle) bool {
	return t != Null && h.TypeOf(t) == TagSignal
}

// SizeOf returns the allocation size of a term in bytes, including the
// header.
func (h *Heap) SizeOf(t Handle) uint32 {
	payload := uint32(0)
	switch h.TypeOf(t) {
	case TagNil, TagEmptyIterator, TagIntegersIterator:
	case TagBoolean, TagSymbol, TagBuiltin, TagVariable, TagConstructor, TagPointer:
		payload = 4
	case TagInt, TagFloat, TagTimestamp:
		payload = 8
	case TagString:
		payload = 4 + align4(h.field(t, 0))
	case TagList:
		payload = 4 + 4*h.field(t, 0)
	case TagRecord, TagTree:
		payload = 12
	case TagHashmap:
		payload = 8 + 8*h.field(t, 1)
	case TagHashset:
		payload = 8 + 4*h.field(t, 1)
	case TagPartial, TagLambda, TagLet, TagApplication, TagZipIterator,
		TagMapIterator, TagFilterIterator, TagSkipIterator, TagTakeIterator,
		TagIntersperseIterator:
		payload = 8
	case TagCondition:
		payload = 4 + 4*conditionPayloadWords(ConditionType(h.field(t, 0)))
	case TagSignal, TagEffect, TagOnceIterator, TagRepeatIterator,
		TagFlattenIterator, TagEvaluateIterator, TagHashmapKeysIterator,
		TagHashmapValuesIterator:
		payload = 4
	case TagRangeIterator:
		payload = 12
	case TagCell:
		payload = 4 + 4*h.field(t, 0)
	}
	return headerBytes + payload
}

// Clone copies a term's own bytes to a new address. Children are shared, not
// copied (they are immutable), so the
// copy is bit-identical to the original apart from its address. Cell terms
// hash by identity and are returned as-is.
func (h *Heap) Clone(t Handle) Handle {
	if t == Null || h.TypeOf(t) == TagCell {
		return t
	}
	n := h.SizeOf(t)
	c := h.Allocate(n)
	copy(h.buf[c:c+n], h.buf[t:t+n])
	return c
}

// hashTerm computes the 64-bit structural hash of a term from its tag and
// fields. Child terms contribute their precomputed header hashes.
func (h *Heap) hashTerm(t Handle) uint64 {
	tag := h.TypeOf(t)
	hash := FNVUint32(NewFNV(), uint32(tag))
	switch tag {
	case TagNil, TagEmptyIterator, TagIntegersIterator:
	case TagBoolean, TagSymbol, TagBuiltin, TagVariable:
		hash = FNVUint32(hash, h.field(t, 0))
	case TagInt, TagTimestamp:
		hash = FNVUint64(hash, h.u64(h.fieldsAt(t)))
	case TagFloat:
		hash = FNVFloat64(hash, h.FloatValue(t))
	case TagString:
		n := h.field(t, 0)
		hash = FNVUint32(hash, n)
		hash = FNVBytes(hash, h.rawBytes(h.fieldsAt(t)+4, n))
	case TagList:
		n := h.field(t, 0)
		hash = FNVUint32(hash, n)
		for i := uint32(0); i < n; i++ {
			hash = FNVUint32(hash, h.childHash(h.field(t, 1+i)))
		}
	case TagRecord:
		hash = FNVUint32(hash, h.childHash(h.field(t, 0)))
		hash = FNVUint32(hash, h.childHash(h.field(t, 1)))
	case TagHashmap:
		// Entry order is an artifact of the probe sequence; fold entries
		// commutatively so logically equal maps hash equal.
		var sum uint64
		count, capacity := h.field(t, 0), h.field(t, 1)
		for i := uint32(0); i < capacity; i++ {
			k := h.field(t, 2+2*i)
			if k == Null {
				continue
			}
			eh := FNVUint32(NewFNV(), h.TermHash(k))
			eh = FNVUint32(eh, h.childHash(h.field(t, 2+2*i+1)))
			sum += eh
		}
		hash = FNVUint32(hash, count)
		hash = FNVUint64(hash, sum)
	case TagHashset:
		var sum uint64
		count, capacity := h.field(t, 0), h.field(t, 1)
		for i := uint32(0); i < capacity; i++ {
			k := h.field(t, 2+i)
			if k == Null {
				continue
			}
			sum += FNVUint32(NewFNV(), h.TermHash(k))
		}
		hash = FNVUint32(hash, count)
		hash = FNVUint64(hash, sum)
	case TagTree:
		hash = FNVUint32(hash, h.childHash(h.field(t, 0)))
		hash = FNVUint32(hash, h.childHash(h.field(t, 1)))
		hash = FNVUint32(hash, h.field(t, 2))
	case TagPartial, TagLambda, TagLet, TagApplication, TagZipIterator,
		TagMapIterator, TagFilterIterator, TagSkipIterator, TagTakeIterator,
		TagIntersperseIterator:
		hash = h.hashTwoFields(hash, t)
	case TagConstructor, TagSignal, TagEffect, TagOnceIterator,
		TagRepeatIterator, TagFlattenIterator, TagEvaluateIterator,
		TagHashmapKeysIterator, TagHashmapValuesIterator:
		hash = FNVUint32(hash, h.childHash(h.field(t, 0)))
	case TagRangeIterator:
		hash = FNVUint64(hash, h.u64(h.fieldsAt(t)))
		hash = FNVUint32(hash, h.field(t, 2))
	case TagCondition:
		ctype := ConditionType(h.field(t, 0))
		hash = FNVUint32(hash, uint32(ctype))
		for i := uint32(0); i < conditionPayloadWords(ctype); i++ {
			hash = FNVUint32(hash, h.childHash(h.field(t, 1+i)))
		}
	case TagCell:
		// Cells are mutable; they hash their identity, not their contents.
		hash = FNVUint32(hash, t)
	case TagPointer:
		// pointers are transparent indirection: they hash as their target
		// so equality across a dereference preserves hash agreement
		if target := h.Deref(t); target != Null {
			return uint64(h.TermHash(target))
		}
		hash = FNVUint32(hash, Null)
	}
	return hash
}

// hashTwoFields folds two handle fields. Raw (non-handle) second fields are
// folded verbatim by the callers that need it.
func (h *Heap) hashTwoFields(hash uint64, t Handle) uint64 {
	f0, f1 := h.field(t, 0), h.field(t, 1)
	switch h.TypeOf(t) {
	case TagLambda:
		// arity is a raw count, body is a handle
		hash = FNVUint32(hash, f0)
		hash = FNVUint32(hash, h.childHash(f1))
	case TagSkipIterator, TagTakeIterator:
		// source handle, raw count
		hash = FNVUint32(hash, h.childHash(f0))
		hash = FNVUint32(hash, f1)
	default:
		hash = FNVUint32(hash, h.childHash(f0))
		hash = FNVUint32(hash, h.childHash(f1))
	}
	return hash
}

// Equals reports structural equality. The precomputed hashes give an O(1)
// negative; a positive always falls back to deep comparison.
func (h *Heap) Equals(a, b Handle) bool {
	if a == b {
		return true
	}
	if a == Null || b == Null {
		return false
	}
	a, b = h.Deref(a), h.Deref(b)
	if a == b {
		return true
	}
	if a == Null || b == Null {
		return false
	}
	if h.TermHash(a) != h.TermHash(b) {
		return false
	}
	tag := h.TypeOf(a)
	if tag != h.TypeOf(b) {
		return false
	}
	switch tag {
	case TagNil, TagEmptyIterator, TagIntegersIterator:
		return true
	case TagBoolean, TagSymbol, TagBuiltin, TagVariable:
		return h.field(a, 0) == h.field(b, 0)
	case TagInt, TagTimestamp:
		return h.u64(h.fieldsAt(a)) == h.u64(h.fieldsAt(b))
	case TagFloat:
		fa, fb := h.FloatValue(a), h.FloatValue(b)
		return fa == fb || (fa != fa && fb != fb)
	case TagString:
		na, nb := h.field(a, 0), h.field(b, 0)
		if na != nb {
			return false
		}
		return string(h.rawBytes(h.fieldsAt(a)+4, na)) == string(h.rawBytes(h.fieldsAt(b)+4, nb))
	case TagList:
		na, nb := h.field(a, 0), h.field(b, 0)
		if na != nb {
			return false
		}
		for i := uint32(0); i < na; i++ {
			if !h.Equals(h.field(a, 1+i), h.field(b, 1+i)) {
				return false
			}
		}
		return true
	case TagRecord:
		return h.Equals(h.field(a, 0), h.field(b, 0)) && h.Equals(h.field(a, 1), h.field(b, 1))
	case TagHashmap:
		return h.hashmapEquals(a, b)
	case TagHashset:
		return h.hashsetEquals(a, b)
	case TagTree:
		return h.field(a, 2) == h.field(b, 2) &&
			h.equalsOrNull(h.field(a, 0), h.field(b, 0)) &&
			h.equalsOrNull(h.field(a, 1), h.field(b, 1))
	case TagLambda:
		return h.field(a, 0) == h.field(b, 0) && h.Equals(h.field(a, 1), h.field(b, 1))
	case TagSkipIterator, TagTakeIterator:
		return h.field(a, 1) == h.field(b, 1) && h.Equals(h.field(a, 0), h.field(b, 0))
	case TagPartial, TagLet, TagApplication, TagZipIterator, TagMapIterator,
		TagFilterIterator, TagIntersperseIterator:
		return h.Equals(h.field(a, 0), h.field(b, 0)) && h.Equals(h.field(a, 1), h.field(b, 1))
	case TagConstructor, TagSignal, TagEffect, TagOnceIterator, TagRepeatIterator,
		TagFlattenIterator, TagEvaluateIterator, TagHashmapKeysIterator,
		TagHashmapValuesIterator:
		return h.equalsOrNull(h.field(a, 0), h.field(b, 0))
	case TagRangeIterator:
		return h.u64(h.fieldsAt(a)) == h.u64(h.fieldsAt(b)) && h.field(a, 2) == h.field(b, 2)
	case TagCondition:
		ct := ConditionType(h.field(a, 0))
		if ct != ConditionType(h.field(b, 0)) {
			return false
		}
		for i := uint32(0); i < conditionPayloadWords(ct); i++ {
			if !h.equalsOrNull(h.field(a, 1+i), h.field(b, 1+i)) {
				return false
			}
		}
		return true
	case TagCell:
		return false // identity: a != b was already established
	}
	return false
}

func (h *Heap) equalsOrNull(a, b Handle) bool {
	if a == Null || b == Null {
		return a == b
	}
	return h.Equals(a, b)
}
