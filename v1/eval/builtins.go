// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"math"

	"github.com/reflow-lang/reflow/v1/term"
)

// ArgKind controls how an argument reaches a builtin implementation: strict
// arguments are evaluated first, eager arguments are evaluated and collected
// into lists when they are iterators, lazy arguments pass through
// unevaluated. A signal in a strict or eager position short-circuits the call
// before the implementation runs; the if-pending/if-error/sequence family
// opts out by declaring its arguments lazy.
type ArgKind uint8

const (
	Strict ArgKind = iota
	Eager
	Lazy
)

// Builtin describes a builtin function: identity, argument protocol, and
// implementation. Implementations receive processed arguments and return
// (result, extra dependencies).
type Builtin struct {
	UID  uint32
	Name string
	Args []ArgKind
	Impl func(e *Evaluator, args []term.Handle, state term.Handle) (term.Handle, term.Handle)
}

// Builtin ids. The values are stable identifiers carried by builtin terms.
const (
	BuiltinAdd uint32 = iota + 1
	BuiltinSubtract
	BuiltinMultiply
	BuiltinDivide
	BuiltinRemainder
	BuiltinPow
	BuiltinAbs
	BuiltinFloor
	BuiltinCeil
	BuiltinRound
	BuiltinMin
	BuiltinMax
	BuiltinEqual
	BuiltinLt
	BuiltinLte
	BuiltinGt
	BuiltinGte
	BuiltinNot
	BuiltinIf
	BuiltinIfPending
	BuiltinIfError
	BuiltinSequence
	BuiltinGet
	BuiltinLength
	BuiltinConcat
	BuiltinCollectList
	BuiltinSin
	BuiltinCos
	BuiltinTan
	BuiltinLog
	BuiltinExp
	BuiltinSqrt
	BuiltinParseDate
	BuiltinFormatDate
	BuiltinPrint
)

// RegisterBuiltin adds (or replaces) a builtin implementation.
func (e *Evaluator) RegisterBuiltin(b *Builtin) {
	e.builtins[b.UID] = b
}

// LookupBuiltin returns the registered builtin for a uid.
func (e *Evaluator) LookupBuiltin(uid uint32) *Builtin {
	return e.builtins[uid]
}

func strict2() []ArgKind { return []ArgKind{Strict, Strict} }
func strict1() []ArgKind { return []ArgKind{Strict} }

func registerDefaultBuiltins(e *Evaluator) {
	for _, b := range []*Builtin{
		{UID: BuiltinAdd, Name: "add", Args: strict2(), Impl: arith2(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })},
		{UID: BuiltinSubtract, Name: "subtract", Args: strict2(), Impl: arith2(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })},
		{UID: BuiltinMultiply, Name: "multiply", Args: strict2(), Impl: arith2(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })},
		{UID: BuiltinDivide, Name: "divide", Args: strict2(), Impl: builtinDivide},
		{UID: BuiltinRemainder, Name: "remainder", Args: strict2(), Impl: builtinRemainder},
		{UID: BuiltinPow, Name: "pow", Args: strict2(), Impl: builtinPow},
		{UID: BuiltinAbs, Name: "abs", Args: strict1(), Impl: builtinAbs},
		{UID: BuiltinFloor, Name: "floor", Args: strict1(), Impl: round1(math.Floor)},
		{UID: BuiltinCeil, Name: "ceil", Args: strict1(), Impl: round1(math.Ceil)},
		{UID: BuiltinRound, Name: "round", Args: strict1(), Impl: round1(math.Round)},
		{UID: BuiltinMin, Name: "min", Args: strict2(), Impl: arith2(func(a, b int64) int64 { return min(a, b) }, math.Min)},
		{UID: BuiltinMax, Name: "max", Args: strict2(), Impl: arith2(func(a, b int64) int64 { return max(a, b) }, math.Max)},
		{UID: BuiltinEqual, Name: "equal", Args: strict2(), Impl: builtinEqual},
		{UID: BuiltinLt, Name: "lt", Args: strict2(), Impl: compare2(func(a, b float64) bool { return a < b })},
		{UID: BuiltinLte, Name: "lte", Args: strict2(), Impl: compare2(func(a, b float64) bool { return a <= b })},
		{UID: BuiltinGt, Name: "gt", Args: strict2(), Impl: compare2(func(a, b float64) bool { return a > b })},
		{UID: BuiltinGte, Name: "gte", Args: strict2(), Impl: compare2(func(a, b float64) bool { return a >= b })},
		{UID: BuiltinNot, Name: "not", Args: strict1(), Impl: builtinNot},
		{UID: BuiltinIf, Name: "if", Args: []ArgKind{Strict, Lazy, Lazy}, Impl: builtinIf},
		{UID: BuiltinIfPending, Name: "if-pending", Args: []ArgKind{Lazy, Lazy}, Impl: builtinIfPending},
		{UID: BuiltinIfError, Name: "if-error", Args: []ArgKind{Lazy, Lazy}, Impl: builtinIfError},
		{UID: BuiltinSequence, Name: "sequence", Args: []ArgKind{Lazy, Lazy}, Impl: builtinSequence},
		{UID: BuiltinGet, Name: "get", Args: strict2(), Impl: builtinGet},
		{UID: BuiltinLength, Name: "length", Args: []ArgKind{Eager}, Impl: builtinLength},
		{UID: BuiltinConcat, Name: "concat", Args: strict2(), Impl: builtinConcat},
		{UID: BuiltinCollectList, Name: "collect-list", Args: []ArgKind{Eager}, Impl: builtinCollectList},
		{UID: BuiltinSin, Name: "sin", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Sin })},
		{UID: BuiltinCos, Name: "cos", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Cos })},
		{UID: BuiltinTan, Name: "tan", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Tan })},
		{UID: BuiltinLog, Name: "log", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Log })},
		{UID: BuiltinExp, Name: "exp", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Exp })},
		{UID: BuiltinSqrt, Name: "sqrt", Args: strict1(), Impl: hostMath(func(h *Host) func(float64) float64 { return h.Sqrt })},
		{UID: BuiltinParseDate, Name: "parse-date", Args: strict1(), Impl: builtinParseDate},
		{UID: BuiltinFormatDate, Name: "format-date", Args: strict1(), Impl: builtinFormatDate},
		{UID: BuiltinPrint, Name: "print", Args: strict1(), Impl: builtinPrint},
	} {
		e.RegisterBuiltin(b)
	}
}

// asNumber coerces an int or float term.
func asNumber(h *term.Heap, t term.Handle) (i int64, f float64, isInt, ok bool) {
	switch h.TypeOf(t) {
	case term.TagInt:
		v := h.IntValue(t)
		return v, float64(v), true, true
	case term.TagFloat:
		return 0, h.FloatValue(t), false, true
	}
	return 0, 0, false, false
}

func typeError(h *term.Heap, expected string, received term.Handle) term.Handle {
	return h.NewSignal(h.NewTypeErrorCondition(h.NewString(expected), received))
}

func errorSignal(h *term.Heap, message string) term.Handle {
	return h.NewSignal(h.NewErrorCondition(h.NewString(message)))
}

func arith2(iop func(a, b int64) int64, fop func(a, b float64) float64) func(*Evaluator, []term.Handle, term.Handle) (term.Handle, term.Handle) {
	return func(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
		h := e.heap
		ai, af, aInt, aok := asNumber(h, args[0])
		if !aok {
			return typeError(h, "Number", args[0]), term.Null
		}
		bi, bf, bInt, bok := asNumber(h, args[1])
		if !bok {
			return typeError(h, "Number", args[1]), term.Null
		}
		if aInt && bInt {
			return h.NewInt(iop(ai, bi)), term.Null
		}
		return h.NewFloat(fop(af, bf)), term.Null
	}
}

func compare2(op func(a, b float64) bool) func(*Evaluator, []term.Handle, term.Handle) (term.Handle, term.Handle) {
	return func(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
		h := e.heap
		_, af, _, aok := asNumber(h, args[0])
		if !aok {
			return typeError(h, "Number", args[0]), term.Null
		}
		_, bf, _, bok := asNumber(h, args[1])
		if !bok {
			return typeError(h, "Number", args[1]), term.Null
		}
		return h.NewBoolean(op(af, bf)), term.Null
	}
}

func builtinDivide(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	ai, af, aInt, aok := asNumber(h, args[0])
	if !aok {
		return typeError(h, "Number", args[0]), term.Null
	}
	bi, bf, bInt, bok := asNumber(h, args[1])
	if !bok {
		return typeError(h, "Number", args[1]), term.Null
	}
	if aInt && bInt {
		if bi == 0 {
			return errorSignal(h, "division by zero"), term.Null
		}
		return h.NewInt(ai / bi), term.Null
	}
	if bf == 0 {
		return errorSignal(h, "division by zero"), term.Null
	}
	return h.NewFloat(af / bf), term.Null
}

func builtinRemainder(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	ai, af, aInt, aok := asNumber(h, args[0])
	if !aok {
		return typeError(h, "Number", args[0]), term.Null
	}
	bi, bf, bInt, bok := asNumber(h, args[1])
	if !bok {
		return typeError(h, "Number", args[1]), term.Null
	}
	if aInt && bInt {
		if bi == 0 {
			return errorSignal(h, "division by zero"), term.Null
		}
		return h.NewInt(ai % bi), term.Null
	}
	return h.NewFloat(math.Mod(af, bf)), term.Null
}

func builtinPow(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	_, af, _, aok := asNumber(h, args[0])
	if !aok {
		return typeError(h, "Number", args[0]), term.Null
	}
	_, bf, _, bok := asNumber(h, args[1])
	if !bok {
		return typeError(h, "Number", args[1]), term.Null
	}
	return h.NewFloat(e.host.Pow(af, bf)), term.Null
}

func builtinAbs(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	ai, af, isInt, ok := asNumber(h, args[0])
	if !ok {
		return typeError(h, "Number", args[0]), term.Null
	}
	if isInt {
		if ai < 0 {
			ai = -ai
		}
		return h.NewInt(ai), term.Null
	}
	return h.NewFloat(math.Abs(af)), term.Null
}

func round1(op func(float64) float64) func(*Evaluator, []term.Handle, term.Handle) (term.Handle, term.Handle) {
	return func(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
		h := e.heap
		ai, af, isInt, ok := asNumber(h, args[0])
		if !ok {
			return typeError(h, "Number", args[0]), term.Null
		}
		if isInt {
			return h.NewInt(ai), term.Null
		}
		return h.NewInt(int64(op(af))), term.Null
	}
}

func builtinEqual(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	return h.NewBoolean(h.Equals(args[0], args[1])), term.Null
}

func builtinNot(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	return h.NewBoolean(!h.IsTruthy(args[0])), term.Null
}

func builtinIf(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	if e.heap.IsTruthy(args[0]) {
		return args[1], term.Null
	}
	return args[2], term.Null
}

func isUnresolvedCondition(ct term.ConditionType) bool {
	return ct == term.ConditionPending || ct == term.ConditionCustom
}

func isErrorCondition(ct term.ConditionType) bool {
	switch ct {
	case term.ConditionError, term.ConditionTypeError, term.ConditionInvalidFunctionTarget,
		term.ConditionInvalidFunctionArgs, term.ConditionInvalidPointer:
		return true
	}
	return false
}

func builtinIfPending(e *Evaluator, args []term.Handle, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	v, d := e.Evaluate(args[0], state)
	if h.IsSignal(v) && h.SignalHas(v, isUnresolvedCondition) {
		return args[1], d
	}
	return v, d
}

func builtinIfError(e *Evaluator, args []term.Handle, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	v, d := e.Evaluate(args[0], state)
	if h.IsSignal(v) && h.SignalHas(v, isErrorCondition) {
		return args[1], d
	}
	return v, d
}

func builtinSequence(e *Evaluator, args []term.Handle, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	v, d := e.Evaluate(args[0], state)
	if h.IsSignal(v) {
		return v, d
	}
	return args[1], d
}

func builtinGet(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	target, key := args[0], args[1]
	switch h.TypeOf(target) {
	case term.TagRecord:
		if v := h.RecordGet(target, key); v != term.Null {
			return v, term.Null
		}
		return h.NewSignal(h.NewErrorCondition(key)), term.Null
	case term.TagHashmap:
		if v := h.HashmapGet(target, key); v != term.Null {
			return v, term.Null
		}
		return h.NewSignal(h.NewErrorCondition(key)), term.Null
	case term.TagHashset:
		return h.NewBoolean(h.HashsetContains(target, key)), term.Null
	case term.TagList:
		if h.TypeOf(key) != term.TagInt {
			return typeError(h, "Int", key), term.Null
		}
		i := h.IntValue(key)
		if i < 0 || i >= int64(h.ListLen(target)) {
			return h.NewSignal(h.NewErrorCondition(key)), term.Null
		}
		return h.ListGet(target, uint32(i)), term.Null
	default:
		return typeError(h, "Collection", target), term.Null
	}
}

func builtinLength(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	t := args[0]
	switch h.TypeOf(t) {
	case term.TagString:
		return h.NewInt(int64(h.StringLen(t))), term.Null
	case term.TagList:
		return h.NewInt(int64(h.ListLen(t))), term.Null
	case term.TagRecord:
		return h.NewInt(int64(h.RecordLen(t))), term.Null
	case term.TagHashmap:
		return h.NewInt(int64(h.HashmapCount(t))), term.Null
	case term.TagHashset:
		return h.NewInt(int64(h.HashsetCount(t))), term.Null
	case term.TagTree:
		return h.NewInt(int64(h.TreeLen(t))), term.Null
	default:
		return typeError(h, "Collection", t), term.Null
	}
}

func builtinConcat(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	a, b := args[0], args[1]
	switch {
	case h.TypeOf(a) == term.TagString && h.TypeOf(b) == term.TagString:
		return h.NewString(h.StringValue(a) + h.StringValue(b)), term.Null
	case h.TypeOf(a) == term.TagList && h.TypeOf(b) == term.TagList:
		return h.ListConcat(a, b), term.Null
	default:
		return typeError(h, "String|List", a), term.Null
	}
}

func builtinCollectList(e *Evaluator, args []term.Handle, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	t := args[0]
	if h.TypeOf(t) == term.TagList {
		return t, term.Null
	}
	if term.ImplementsIterate(h.TypeOf(t)) {
		return e.CollectList(t, state)
	}
	return typeError(h, "Iterator", t), term.Null
}

func hostMath(sel func(*Host) func(float64) float64) func(*Evaluator, []term.Handle, term.Handle) (term.Handle, term.Handle) {
	return func(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
		h := e.heap
		_, f, _, ok := asNumber(h, args[0])
		if !ok {
			return typeError(h, "Number", args[0]), term.Null
		}
		return h.NewFloat(sel(e.host)(f)), term.Null
	}
}

func builtinParseDate(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	if h.TypeOf(args[0]) != term.TagString {
		return typeError(h, "String", args[0]), term.Null
	}
	millis, ok := e.host.DateParse([]byte(h.StringValue(args[0])))
	if !ok {
		return errorSignal(h, "invalid date"), term.Null
	}
	return h.NewTimestamp(millis), term.Null
}

func builtinFormatDate(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	if h.TypeOf(args[0]) != term.TagTimestamp {
		return typeError(h, "Timestamp", args[0]), term.Null
	}
	return h.NewString(string(e.host.DateFormatISO(h.TimestampMillis(args[0])))), term.Null
}

// builtinPrint renders its argument into the arena, streams the bytes to the
// host's output sink, releases the scratch buffer, and passes the value
// through.
func builtinPrint(e *Evaluator, args []term.Handle, _ term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	off, n := h.DisplayInto(args[0])
	if e.host.Output != nil {
		e.host.Output.Write(h.BytesAt(off, n))
		e.host.Output.Write([]byte{'\n'})
	}
	h.Shrink(h.Offset(), n)
	return args[0], term.Null
}
