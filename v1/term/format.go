// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"math"
	"strconv"
	"time"
)

// Formatting builds its output inside the arena through the unsized
// protocol: the scratch buffer is extended in place while writing and
// released (or trimmed to its final length) afterwards, so no allocation may
// happen between the first write and the release.

type arenaWriter struct {
	h     *Heap
	start uint32
	n     uint32
	cap   uint32
}

func (h *Heap) newArenaWriter() *arenaWriter {
	w := &arenaWriter{h: h, cap: 64}
	w.start = h.Allocate(w.cap)
	return w
}

func (w *arenaWriter) ensure(need uint32) {
	if need <= w.cap {
		return
	}
	grow := w.cap
	for w.cap+grow < need {
		grow *= 2
	}
	w.h.Extend(w.start+w.cap, grow)
	w.cap += grow
}

func (w *arenaWriter) writeString(s string) {
	w.ensure(w.n + uint32(len(s)))
	copy(w.h.buf[w.start+w.n:], s)
	w.n += uint32(len(s))
}

func (w *arenaWriter) writeByte(b byte) {
	w.ensure(w.n + 1)
	w.h.buf[w.start+w.n] = b
	w.n++
}

func (w *arenaWriter) bytes() []byte {
	return w.h.buf[w.start : w.start+w.n]
}

// release returns the whole scratch region to the arena.
func (w *arenaWriter) release() {
	w.h.Shrink(w.h.off, w.cap)
}

// trim keeps the written bytes and returns the unused tail to the arena.
func (w *arenaWriter) trim() {
	w.h.Shrink(w.h.off, w.cap-align4(w.n))
}

// Format renders a term for humans.
func (h *Heap) Format(t Handle) string {
	w := h.newArenaWriter()
	h.writeDisplay(w, t)
	s := string(w.bytes())
	w.release()
	return s
}

// Debug renders a term with explicit variant tags for scalars, lists,
// records, lambdas, variables, lets and applications. Every other variant,
// together with the children nested inside it, is rendered as Format renders
// it, without variant tags.
func (h *Heap) Debug(t Handle) string {
	w := h.newArenaWriter()
	h.writeDebug(w, t)
	s := string(w.bytes())
	w.release()
	return s
}

// DisplayInto writes the human rendering of t into the arena and returns the
// byte offset and length. The region is the most recent allocation; the
// caller may release it with Shrink once consumed.
func (h *Heap) DisplayInto(t Handle) (uint32, uint32) {
	w := h.newArenaWriter()
	h.writeDisplay(w, t)
	w.trim()
	return w.start, w.n
}

func formatFloat(v float64) string {
	switch {
	case v != v:
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	return s
}

func (h *Heap) writeDisplay(w *arenaWriter, t Handle) {
	if t == Null {
		w.writeString("<null>")
		return
	}
	switch h.TypeOf(t) {
	case TagNil:
		w.writeString("null")
	case TagBoolean:
		if h.BooleanValue(t) {
			w.writeString("true")
		} else {
			w.writeString("false")
		}
	case TagInt:
		w.writeString(strconv.FormatInt(h.IntValue(t), 10))
	case TagFloat:
		w.writeString(formatFloat(h.FloatValue(t)))
	case TagString:
		w.writeByte('"')
		writeEscapedString(w, h.StringValue(t))
		w.writeByte('"')
	case TagSymbol:
		id := h.SymbolID(t)
		if name, ok := h.SymbolName(id); ok {
			w.writeByte(':')
			w.writeString(name)
		} else {
			w.writeString("Symbol(")
			w.writeString(strconv.FormatUint(uint64(id), 10))
			w.writeByte(')')
		}
	case TagTimestamp:
		w.writeString("Timestamp(")
		w.writeString(time.UnixMilli(h.TimestampMillis(t)).UTC().Format("2006-01-02T15:04:05.000Z"))
		w.writeByte(')')
	case TagList:
		w.writeByte('[')
		n := h.ListLen(t)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDisplay(w, h.ListGet(t, i))
		}
		w.writeByte(']')
	case TagRecord:
		n := h.RecordLen(t)
		if n == 0 {
			w.writeString("{}")
			return
		}
		w.writeString("{ ")
		keys, values := h.RecordKeys(t), h.RecordValues(t)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDisplay(w, h.ListGet(keys, i))
			w.writeString(": ")
			h.writeDisplay(w, h.ListGet(values, i))
		}
		w.writeString(" }")
	case TagHashmap:
		w.writeString("Map(")
		first := true
		capacity := h.HashmapCapacity(t)
		for i := uint32(0); i < capacity; i++ {
			k, v := h.HashmapEntryAt(t, i)
			if k == Null {
				continue
			}
			if !first {
				w.writeString(", ")
			}
			first = false
			h.writeDisplay(w, k)
			w.writeString(" => ")
			h.writeDisplay(w, v)
		}
		w.writeByte(')')
	case TagHashset:
		w.writeString("Set(")
		first := true
		capacity := h.field(t, 1)
		for i := uint32(0); i < capacity; i++ {
			k := h.HashsetItemAt(t, i)
			if k == Null {
				continue
			}
			if !first {
				w.writeString(", ")
			}
			first = false
			h.writeDisplay(w, k)
		}
		w.writeByte(')')
	case TagTree:
		w.writeString("Tree(")
		for i, leaf := range h.TreeLeaves(t) {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDisplay(w, leaf)
		}
		w.writeByte(')')
	case TagBuiltin:
		w.writeString("<builtin:")
		w.writeString(strconv.FormatUint(uint64(h.BuiltinUID(t)), 10))
		w.writeByte('>')
	case TagPartial:
		w.writeString("<partial:")
		h.writeDisplay(w, h.PartialTarget(t))
		w.writeByte(':')
		w.writeString(strconv.FormatUint(uint64(h.ListLen(h.PartialArgs(t))), 10))
		w.writeByte('>')
	case TagLambda:
		w.writeString("<function:")
		w.writeString(strconv.FormatUint(uint64(h.LambdaArity(t)), 10))
		w.writeByte('>')
	case TagVariable:
		w.writeString("<variable:")
		w.writeString(strconv.FormatUint(uint64(h.VariableOffset(t)), 10))
		w.writeByte('>')
	case TagLet:
		w.writeString("<let:")
		h.writeDisplay(w, h.LetInitializer(t))
		w.writeByte(':')
		h.writeDisplay(w, h.LetBody(t))
		w.writeByte('>')
	case TagApplication:
		h.writeDisplay(w, h.ApplicationTarget(t))
		w.writeByte('(')
		args := h.ApplicationArgs(t)
		n := h.ListLen(args)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDisplay(w, h.ListGet(args, i))
		}
		w.writeByte(')')
	case TagConstructor:
		w.writeString("<constructor:")
		h.writeDisplay(w, h.ConstructorKeys(t))
		w.writeByte('>')
	case TagCondition:
		h.writeCondition(w, t)
	case TagSignal:
		w.writeString("<signal:[")
		for i, leaf := range h.TreeLeaves(h.SignalConditions(t)) {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDisplay(w, leaf)
		}
		w.writeString("]>")
	case TagEffect:
		w.writeString("<effect:")
		h.writeDisplay(w, h.EffectCondition(t))
		w.writeByte('>')
	case TagCell:
		w.writeString("<cell:")
		w.writeString(strconv.FormatUint(uint64(h.CellLen(t)), 10))
		w.writeByte('>')
	case TagPointer:
		w.writeString("<pointer:")
		if target := h.PointerTarget(t); target == Null {
			w.writeString("null")
		} else {
			h.writeDisplay(w, target)
		}
		w.writeByte('>')
	default:
		w.writeString("<iterator:")
		w.writeString(iteratorName(h.TypeOf(t)))
		w.writeByte('>')
	}
}

func (h *Heap) writeCondition(w *arenaWriter, t Handle) {
	switch h.ConditionTypeOf(t) {
	case ConditionCustom:
		w.writeString("<CustomCondition:")
		h.writeDisplay(w, h.ConditionPayload(t, 0))
		w.writeByte(':')
		h.writeDisplay(w, h.ConditionPayload(t, 1))
		if token := h.ConditionPayload(t, 2); token != Null {
			w.writeByte(':')
			h.writeDisplay(w, token)
		}
		w.writeByte('>')
	case ConditionPending:
		w.writeString("<PendingCondition>")
	case ConditionError:
		w.writeString("<ErrorCondition:")
		h.writeDisplay(w, h.ConditionPayload(t, 0))
		w.writeByte('>')
	case ConditionTypeError:
		w.writeString("<TypeErrorCondition:")
		h.writeDisplay(w, h.ConditionPayload(t, 0))
		w.writeByte(':')
		h.writeDisplay(w, h.ConditionPayload(t, 1))
		w.writeByte('>')
	case ConditionInvalidFunctionTarget:
		w.writeString("<InvalidFunctionTargetCondition:")
		h.writeDisplay(w, h.ConditionPayload(t, 0))
		w.writeByte('>')
	case ConditionInvalidFunctionArgs:
		w.writeString("<InvalidFunctionArgsCondition:")
		h.writeDisplay(w, h.ConditionPayload(t, 0))
		w.writeByte(':')
		h.writeDisplay(w, h.ConditionPayload(t, 1))
		w.writeByte('>')
	case ConditionInvalidPointer:
		w.writeString("<InvalidPointerCondition>")
	default:
		w.writeString("<Condition:")
		w.writeString(strconv.FormatUint(uint64(h.ConditionTypeOf(t)), 10))
		w.writeByte('>')
	}
}

func iteratorName(tag Tag) string {
	switch tag {
	case TagEmptyIterator:
		return "empty"
	case TagOnceIterator:
		return "once"
	case TagRepeatIterator:
		return "repeat"
	case TagRangeIterator:
		return "range"
	case TagIntegersIterator:
		return "integers"
	case TagMapIterator:
		return "map"
	case TagFilterIterator:
		return "filter"
	case TagFlattenIterator:
		return "flatten"
	case TagZipIterator:
		return "zip"
	case TagSkipIterator:
		return "skip"
	case TagTakeIterator:
		return "take"
	case TagEvaluateIterator:
		return "evaluate"
	case TagIntersperseIterator:
		return "intersperse"
	case TagHashmapKeysIterator:
		return "keys"
	case TagHashmapValuesIterator:
		return "values"
	}
	return "unknown"
}

func (h *Heap) writeDebug(w *arenaWriter, t Handle) {
	if t == Null {
		w.writeString("Null")
		return
	}
	switch h.TypeOf(t) {
	case TagNil:
		w.writeString("Nil")
	case TagBoolean:
		if h.BooleanValue(t) {
			w.writeString("Boolean(true)")
		} else {
			w.writeString("Boolean(false)")
		}
	case TagInt:
		w.writeString("Int(")
		w.writeString(strconv.FormatInt(h.IntValue(t), 10))
		w.writeByte(')')
	case TagFloat:
		w.writeString("Float(")
		w.writeString(formatFloat(h.FloatValue(t)))
		w.writeByte(')')
	case TagString:
		w.writeString("String(\"")
		writeEscapedString(w, h.StringValue(t))
		w.writeString("\")")
	case TagSymbol:
		w.writeString("Symbol(")
		w.writeString(strconv.FormatUint(uint64(h.SymbolID(t)), 10))
		w.writeByte(')')
	case TagTimestamp:
		w.writeString("Timestamp(")
		w.writeString(strconv.FormatInt(h.TimestampMillis(t), 10))
		w.writeByte(')')
	case TagList:
		w.writeString("List")
		w.writeByte('[')
		n := h.ListLen(t)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDebug(w, h.ListGet(t, i))
		}
		w.writeByte(']')
	case TagRecord:
		w.writeString("Record{")
		keys, values := h.RecordKeys(t), h.RecordValues(t)
		n := h.RecordLen(t)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				w.writeString(", ")
			}
			h.writeDebug(w, h.ListGet(keys, i))
			w.writeString(": ")
			h.writeDebug(w, h.ListGet(values, i))
		}
		w.writeByte('}')
	case TagLambda:
		w.writeString("Lambda(")
		w.writeString(strconv.FormatUint(uint64(h.LambdaArity(t)), 10))
		w.writeString(", ")
		h.writeDebug(w, h.LambdaBody(t))
		w.writeByte(')')
	case TagVariable:
		w.writeString("Variable(")
		w.writeString(strconv.FormatUint(uint64(h.VariableOffset(t)), 10))
		w.writeByte(')')
	case TagLet:
		w.writeString("Let(")
		h.writeDebug(w, h.LetInitializer(t))
		w.writeString(", ")
		h.writeDebug(w, h.LetBody(t))
		w.writeByte(')')
	case TagApplication:
		w.writeString("Application(")
		h.writeDebug(w, h.ApplicationTarget(t))
		w.writeString(", ")
		h.writeDebug(w, h.ApplicationArgs(t))
		w.writeByte(')')
	default:
		// remaining variants render identically in both modes
		h.writeDisplay(w, t)
	}
}

func writeEscapedString(w *arenaWriter, s string) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"':
			w.writeString("\\\"")
		case b == '\\':
			w.writeString("\\\\")
		case b == '\n':
			w.writeString("\\n")
		case b == '\r':
			w.writeString("\\r")
		case b == '\t':
			w.writeString("\\t")
		case b < 0x20:
			const hex = "0123456789abcdef"
			w.writeString("\\u00")
			w.writeByte(hex[b>>4])
			w.writeByte(hex[b&0xf])
		default:
			w.writeByte(b)
		}
	}
}
