// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

// NewBuiltin returns a builtin function term identified by uid. The
// implementation registry lives in the evaluator; the term carries identity
// only.
func (h *Heap) NewBuiltin(uid uint32) Handle {
	t := h.newTerm(TagBuiltin, 4)
	h.setField(t, 0, uid)
	return h.seal(t)
}

// BuiltinUID returns the id of a builtin term.
func (h *Heap) BuiltinUID(t Handle) uint32 {
	return h.field(t, 0)
}

// NewPartial returns a partial application: target applied to bound arguments
// first, then to the call-site arguments.
func (h *Heap) NewPartial(target, args Handle) Handle {
	t := h.newTerm(TagPartial, 8)
	h.setField(t, 0, target)
	h.setField(t, 1, args)
	return h.seal(t)
}

// PartialTarget returns the wrapped function term.
func (h *Heap) PartialTarget(t Handle) Handle {
	return h.field(t, 0)
}

// PartialArgs returns the bound argument list.
func (h *Heap) PartialArgs(t Handle) Handle {
	return h.field(t, 1)
}

// NewLambda returns a lambda term with the given arity. The body refers to
// its parameters through variable terms; parameters are indexed in reverse,
// so the last-pushed variable is offset 0.
func (h *Heap) NewLambda(arity uint32, body Handle) Handle {
	t := h.newTerm(TagLambda, 8)
	h.setField(t, 0, arity)
	h.setField(t, 1, body)
	return h.seal(t)
}

// LambdaArity returns the parameter count of a lambda.
func (h *Heap) LambdaArity(t Handle) uint32 {
	return h.field(t, 0)
}

// LambdaBody returns the body of a lambda.
func (h *Heap) LambdaBody(t Handle) Handle {
	return h.field(t, 1)
}

// NewVariable returns a variable term referring to the n-th enclosing binder.
func (h *Heap) NewVariable(offset uint32) Handle {
	t := h.newTerm(TagVariable, 4)
	h.setField(t, 0, offset)
	return h.seal(t)
}

// VariableOffset returns the binder offset of a variable.
func (h *Heap) VariableOffset(t Handle) uint32 {
	return h.field(t, 0)
}

// NewLet returns a let term binding a single initializer over a body.
func (h *Heap) NewLet(initializer, body Handle) Handle {
	t := h.newTerm(TagLet, 8)
	h.setField(t, 0, initializer)
	h.setField(t, 1, body)
	return h.seal(t)
}

// LetInitializer returns the bound value of a let.
func (h *Heap) LetInitializer(t Handle) Handle {
	return h.field(t, 0)
}

// LetBody returns the body of a let.
func (h *Heap) LetBody(t Handle) Handle {
	return h.field(t, 1)
}

// NewApplication returns an application of target to an argument list.
func (h *Heap) NewApplication(target, args Handle) Handle {
	t := h.newTerm(TagApplication, 8)
	h.setField(t, 0, target)
	h.setField(t, 1, args)
	return h.seal(t)
}

// ApplicationTarget returns the function position of an application.
func (h *Heap) ApplicationTarget(t Handle) Handle {
	return h.field(t, 0)
}

// ApplicationArgs returns the argument list of an application.
func (h *Heap) ApplicationArgs(t Handle) Handle {
	return h.field(t, 1)
}

// NewConstructor returns a record constructor over a key list: applying it to
// matching values produces a record. The empty constructor is a singleton.
func (h *Heap) NewConstructor(keys Handle) Handle {
	if h.ListLen(keys) == 0 {
		return h.emptyConstructor
	}
	return h.newConstructorRaw(keys)
}

func (h *Heap) newConstructorRaw(keys Handle) Handle {
	t := h.newTerm(TagConstructor, 4)
	h.setField(t, 0, keys)
	return h.seal(t)
}

// ConstructorKeys returns the key list of a constructor.
func (h *Heap) ConstructorKeys(t Handle) Handle {
	return h.field(t, 0)
}
