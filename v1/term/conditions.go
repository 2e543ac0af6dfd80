// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// ConditionType tags the condition variants. The numeric values are part of
// the wire contract and must not be renumbered; gaps are reserved.
type ConditionType uint32

const (
	ConditionCustom                ConditionType = 0
	ConditionPending               ConditionType = 1
	ConditionError                 ConditionType = 2
	ConditionTypeError             ConditionType = 3
	ConditionInvalidFunctionTarget ConditionType = 4
	ConditionInvalidFunctionArgs   ConditionType = 5
	ConditionInvalidPointer        ConditionType = 8
)

func conditionPayloadWords(ct ConditionType) uint32 {
	switch ct {
	case ConditionCustom:
		return 3
	case ConditionError:
		return 1
	case ConditionTypeError, ConditionInvalidFunctionArgs:
		return 2
	case ConditionInvalidFunctionTarget:
		return 1
	}
	return 0
}

func (h *Heap) newConditionRaw(ct ConditionType, payload []Handle) Handle {
	words := conditionPayloadWords(ct)
	t := h.newTerm(TagCondition, 4+4*words)
	h.setField(t, 0, uint32(ct))
	for i := uint32(0); i < words; i++ {
		v := Null
		if int(i) < len(payload) {
			v = payload[i]
		}
		h.setField(t, 1+i, v)
	}
	return h.seal(t)
}

// NewCustomCondition returns the condition for a host-defined effect type
// with a payload and disambiguation token. Token may be Null.
func (h *Heap) NewCustomCondition(effectType, payload, token Handle) Handle {
	return h.newConditionRaw(ConditionCustom, []Handle{effectType, payload, token})
}

// NewPendingCondition returns the pending singleton.
func (h *Heap) NewPendingCondition() Handle {
	return h.pendingCond
}

// NewErrorCondition returns an error condition carrying a payload.
func (h *Heap) NewErrorCondition(payload Handle) Handle {
	return h.newConditionRaw(ConditionError, []Handle{payload})
}

// NewTypeErrorCondition returns a type-error condition.
func (h *Heap) NewTypeErrorCondition(expected, received Handle) Handle {
	return h.newConditionRaw(ConditionTypeError, []Handle{expected, received})
}

// NewInvalidFunctionTargetCondition returns the condition raised by applying
// a non-function.
func (h *Heap) NewInvalidFunctionTargetCondition(target Handle) Handle {
	return h.newConditionRaw(ConditionInvalidFunctionTarget, []Handle{target})
}

// NewInvalidFunctionArgsCondition returns the condition raised by applying a
// function to arguments it cannot accept.
func (h *Heap) NewInvalidFunctionArgsCondition(target, args Handle) Handle {
	return h.newConditionRaw(ConditionInvalidFunctionArgs, []Handle{target, args})
}

// NewInvalidPointerCondition returns the dangling-pointer singleton.
func (h *Heap) NewInvalidPointerCondition() Handle {
	return h.invalidPtrCond
}

// ConditionTypeOf returns the variant of a condition term.
func (h *Heap) ConditionTypeOf(t Handle) ConditionType {
	return ConditionType(h.field(t, 0))
}

// ConditionPayload returns the i-th payload field of a condition.
func (h *Heap) ConditionPayload(t Handle, i uint32) Handle {
	return h.field(t, 1+i)
}

// NewSignal returns a signal wrapping a condition aggregate: a single
// condition term or a tree of them.
func (h *Heap) NewSignal(conditions Handle) Handle {
	if conditions == h.pendingCond {
		return h.pendingSignal
	}
	if conditions == h.invalidPtrCond {
		return h.invalidPtrSignal
	}
	return h.newSignalRaw(conditions)
}

func (h *Heap) newSignalRaw(conditions Handle) Handle {
	t := h.newTerm(TagSignal, 4)
	h.setField(t, 0, conditions)
	return h.seal(t)
}

// PendingSignal returns the signal singleton carrying the pending condition.
func (h *Heap) PendingSignal() Handle {
	return h.pendingSignal
}

// InvalidPointerSignal returns the signal singleton carrying the
// invalid-pointer condition.
func (h *Heap) InvalidPointerSignal() Handle {
	return h.invalidPtrSignal
}

// SignalConditions returns the condition aggregate of a signal.
func (h *Heap) SignalConditions(t Handle) Handle {
	return h.field(t, 0)
}

// CombineSignals unions two signals into one; the condition trees
// concatenate.
func (h *Heap) CombineSignals(a, b Handle) Handle {
	if a == Null {
		return b
	}
	if b == Null || a == b {
		return a
	}
	return h.NewSignal(h.TreeUnion(h.SignalConditions(a), h.SignalConditions(b)))
}

// SignalHas reports whether any condition of the signal matches the
// predicate.
func (h *Heap) SignalHas(t Handle, pred func(ConditionType) bool) bool {
	for _, leaf := range h.TreeLeaves(h.SignalConditions(t)) {
		if h.TypeOf(leaf) == TagCondition && pred(h.ConditionTypeOf(leaf)) {
			return true
		}
	}
	return false
}

// NewEffect returns an effect term: evaluation looks its condition up in the
// state snapshot.
func (h *Heap) NewEffect(condition Handle) Handle {
	t := h.newTerm(TagEffect, 4)
	h.setField(t, 0, condition)
	return h.seal(t)
}

// EffectCondition returns the condition of an effect.
func (h *Heap) EffectCondition(t Handle) Handle {
	return h.field(t, 0)
}

// NewCell returns a mutable cell with n rewritable slots, initialized to
// zero. Cells hash by identity.
func (h *Heap) NewCell(n uint32) Handle {
	t := h.newTerm(TagCell, 4+4*n)
	h.setField(t, 0, n)
	for i := uint32(0); i < n; i++ {
		h.setField(t, 1+i, 0)
	}
	return h.seal(t)
}

// CellLen returns the slot count of a cell.
func (h *Heap) CellLen(t Handle) uint32 {
	return h.field(t, 0)
}

// CellGet reads slot i of a cell.
func (h *Heap) CellGet(t Handle, i uint32) uint32 {
	return h.field(t, 1+i)
}

// CellSet rewrites slot i of a cell. Cells and pointer terms (through
// SetPointerTarget) are the only terms whose contents may change after
// construction.
func (h *Heap) CellSet(t Handle, i uint32, v uint32) {
	h.setField(t, 1+i, v)
}

// NewPointer returns a pointer term forwarding to target.
func (h *Heap) NewPointer(target Handle) Handle {
	t := h.newTerm(TagPointer, 4)
	h.setField(t, 0, target)
	return h.seal(t)
}

// PointerTarget returns the current forwarding target.
func (h *Heap) PointerTarget(t Handle) Handle {
	return h.field(t, 0)
}

// SetPointerTarget rewrites the forwarding target. The header hash is not
// recomputed; pointer identity is stable across retargeting.
func (h *Heap) SetPointerTarget(t Handle, target Handle) {
	h.setField(t, 0, target)
}
