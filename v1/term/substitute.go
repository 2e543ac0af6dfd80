// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// Variable references are De Bruijn offsets: variable(n) names the n-th
// enclosing binder, and the elements of one scope frame are indexed in
// reverse (the last-pushed variable is offset 0). Substitution descends
// structurally; lambdas raise the cutoff by their arity and lets by one.
//
// Substitute returns Null to signal "no changes"; callers must treat that as
// "use the original term".

// Substitute replaces the variables of the scope frame
// [scopeOffset, scopeOffset+len(variables)) with the frame's elements and
// shifts variables of enclosing scopes down by the frame length. When
// variables is Null the call performs scope-offsetting only, adding
// scopeOffset to every free variable.
func (h *Heap) Substitute(t Handle, variables Handle, scopeOffset uint32) Handle {
	if variables == Null {
		if scopeOffset == 0 {
			return Null
		}
		return h.shiftVars(t, scopeOffset, 0)
	}
	return h.substitute(t, variables, scopeOffset, scopeOffset)
}

// substitute replaces frame variables. offset is the current cutoff; base is
// the cutoff at entry, so offset-base is the binder depth the replacement is
// inserted under (its free variables shift by that amount).
func (h *Heap) substitute(t, vars Handle, offset, base uint32) Handle {
	count := h.ListLen(vars)
	switch h.TypeOf(t) {
	case TagVariable:
		n := h.VariableOffset(t)
		switch {
		case n < offset:
			return Null
		case n < offset+count:
			replacement := h.ListGet(vars, count-1-(n-offset))
			if delta := offset - base; delta > 0 {
				if shifted := h.shiftVars(replacement, delta, 0); shifted != Null {
					return shifted
				}
			}
			return replacement
		default:
			return h.NewVariable(n - count)
		}
	case TagLambda:
		arity := h.LambdaArity(t)
		if body := h.substitute(h.LambdaBody(t), vars, offset+arity, base); body != Null {
			return h.NewLambda(arity, body)
		}
		return Null
	case TagLet:
		init := h.substitute(h.LetInitializer(t), vars, offset, base)
		body := h.substitute(h.LetBody(t), vars, offset+1, base)
		if init == Null && body == Null {
			return Null
		}
		return h.NewLet(pick(init, h.LetInitializer(t)), pick(body, h.LetBody(t)))
	}
	return h.substituteChildren(t, func(c Handle) Handle {
		return h.substitute(c, vars, offset, base)
	})
}

// shiftVars adds shift to every variable at or above the depth cutoff.
func (h *Heap) shiftVars(t Handle, shift, depth uint32) Handle {
	switch h.TypeOf(t) {
	case TagVariable:
		if n := h.VariableOffset(t); n >= depth {
			return h.NewVariable(n + shift)
		}
		return Null
	case TagLambda:
		arity := h.LambdaArity(t)
		if body := h.shiftVars(h.LambdaBody(t), shift, depth+arity); body != Null {
			return h.NewLambda(arity, body)
		}
		return Null
	case TagLet:
		init := h.shiftVars(h.LetInitializer(t), shift, depth)
		body := h.shiftVars(h.LetBody(t), shift, depth+1)
		if init == Null && body == Null {
			return Null
		}
		return h.NewLet(pick(init, h.LetInitializer(t)), pick(body, h.LetBody(t)))
	}
	return h.substituteChildren(t, func(c Handle) Handle {
		return h.shiftVars(c, shift, depth)
	})
}

func pick(replacement, original Handle) Handle {
	if replacement != Null {
		return replacement
	}
	return original
}

// substituteChildren rebuilds a term whose children changed under fn, or
// returns Null when nothing changed. Scalars, signals, cells, pointers and
// builtins have no substitutable children.
func (h *Heap) substituteChildren(t Handle, fn func(Handle) Handle) Handle {
	sub := func(c Handle) Handle {
		if c == Null {
			return Null
		}
		return fn(c)
	}
	switch h.TypeOf(t) {
	case TagList:
		n := h.ListLen(t)
		var items []Handle
		for i := uint32(0); i < n; i++ {
			c := h.ListGet(t, i)
			if r := sub(c); r != Null {
				if items == nil {
					items = h.ListItems(t)
				}
				items[i] = r
			}
		}
		if items == nil {
			return Null
		}
		return h.NewList(items)
	case TagRecord:
		keys := sub(h.RecordKeys(t))
		values := sub(h.RecordValues(t))
		if keys == Null && values == Null {
			return Null
		}
		return h.NewRecord(pick(keys, h.RecordKeys(t)), pick(values, h.RecordValues(t)))
	case TagHashmap:
		capacity := h.HashmapCapacity(t)
		var entries [][2]Handle
		changed := false
		for i := uint32(0); i < capacity; i++ {
			k, v := h.HashmapEntryAt(t, i)
			if k == Null {
				continue
			}
			nk, nv := sub(k), sub(v)
			if nk != Null || nv != Null {
				changed = true
			}
			entries = append(entries, [2]Handle{pick(nk, k), pick(nv, v)})
		}
		if !changed {
			return Null
		}
		return h.NewHashmap(entries)
	case TagHashset:
		capacity := h.field(t, 1)
		var items []Handle
		changed := false
		for i := uint32(0); i < capacity; i++ {
			k := h.HashsetItemAt(t, i)
			if k == Null {
				continue
			}
			nk := sub(k)
			if nk != Null {
				changed = true
			}
			items = append(items, pick(nk, k))
		}
		if !changed {
			return Null
		}
		return h.NewHashset(items)
	case TagTree:
		left := sub(h.TreeLeft(t))
		right := sub(h.TreeRight(t))
		if left == Null && right == Null {
			return Null
		}
		return h.NewTree(pick(left, h.TreeLeft(t)), pick(right, h.TreeRight(t)))
	case TagPartial:
		return h.rebuildPair(t, sub, h.NewPartial)
	case TagApplication:
		return h.rebuildPair(t, sub, h.NewApplication)
	case TagConstructor:
		if keys := sub(h.ConstructorKeys(t)); keys != Null {
			return h.NewConstructor(keys)
		}
		return Null
	case TagCondition:
		ct := h.ConditionTypeOf(t)
		words := conditionPayloadWords(ct)
		var payload []Handle
		changed := false
		for i := uint32(0); i < words; i++ {
			c := h.ConditionPayload(t, i)
			r := sub(c)
			if r != Null {
				changed = true
			}
			payload = append(payload, pick(r, c))
		}
		if !changed {
			return Null
		}
		return h.newConditionRaw(ct, payload)
	case TagEffect:
		if cond := sub(h.EffectCondition(t)); cond != Null {
			return h.NewEffect(cond)
		}
		return Null
	case TagOnceIterator, TagRepeatIterator:
		if v := sub(h.field(t, 0)); v != Null {
			return h.rebuildIterator1(h.TypeOf(t), v)
		}
		return Null
	case TagFlattenIterator, TagEvaluateIterator, TagHashmapKeysIterator, TagHashmapValuesIterator:
		if v := sub(h.field(t, 0)); v != Null {
			return h.rebuildIterator1(h.TypeOf(t), v)
		}
		return Null
	case TagMapIterator, TagFilterIterator, TagZipIterator, TagIntersperseIterator:
		a := sub(h.field(t, 0))
		b := sub(h.field(t, 1))
		if a == Null && b == Null {
			return Null
		}
		return h.rebuildIterator2(h.TypeOf(t), pick(a, h.field(t, 0)), pick(b, h.field(t, 1)))
	case TagSkipIterator, TagTakeIterator:
		if src := sub(h.field(t, 0)); src != Null {
			return h.rebuildCountedIterator(h.TypeOf(t), src, h.field(t, 1))
		}
		return Null
	}
	return Null
}

func (h *Heap) rebuildPair(t Handle, sub func(Handle) Handle, build func(a, b Handle) Handle) Handle {
	a := sub(h.field(t, 0))
	b := sub(h.field(t, 1))
	if a == Null && b == Null {
		return Null
	}
	return build(pick(a, h.field(t, 0)), pick(b, h.field(t, 1)))
}
