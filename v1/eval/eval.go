// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package eval implements the dependency-tracked evaluator over the term
// heap: recursive reduction with signal short-circuiting, variable
// substitution, builtin dispatch, iterator driving, and the memoization
// cache keyed by invocation fingerprints.
package eval

import (
	"github.com/reflow-lang/reflow/v1/logging"
	"github.com/reflow-lang/reflow/v1/metrics"
	"github.com/reflow-lang/reflow/v1/term"
)

// Evaluator reduces terms against a state snapshot. Evaluation is a pure
// function of (term, state) modulo the memoization cache; it never yields,
// and reactivity is expressed by returning signals for the host to resolve.
type Evaluator struct {
	heap     *term.Heap
	host     *Host
	logger   logging.Logger
	metrics  metrics.Metrics
	builtins map[uint32]*Builtin
}

// Opt is a configuration option for the evaluator.
type Opt func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Opt {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m metrics.Metrics) Opt {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// WithHost sets the host hooks.
func WithHost(h *Host) Opt {
	return func(e *Evaluator) {
		e.host = h
	}
}

// New creates an evaluator over the given heap with the default builtin
// library registered.
func New(heap *term.Heap, opts ...Opt) *Evaluator {
	e := &Evaluator{
		heap:     heap,
		host:     DefaultHost(),
		logger:   logging.NewNoOpLogger(),
		metrics:  metrics.New(),
		builtins: make(map[uint32]*Builtin),
	}
	for _, opt := range opts {
		opt(e)
	}
	registerDefaultBuiltins(e)
	return e
}

// Heap returns the evaluator's term heap.
func (e *Evaluator) Heap() *term.Heap {
	return e.heap
}

// Metrics returns the evaluator's metrics registry.
func (e *Evaluator) Metrics() metrics.Metrics {
	return e.metrics
}

// Evaluate reduces a term against a state snapshot (a hashmap from condition
// to resolved value, or Null for the empty state). It returns the reduced
// term and the dependency set: a condition aggregate recording everything the
// computation read, usable whether or not the result is a signal.
func (e *Evaluator) Evaluate(t, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	e.metrics.Counter(metrics.EvalOps).Incr()
	switch h.TypeOf(t) {
	case term.TagApplication:
		return e.evaluateApplication(t, state)
	case term.TagEffect:
		cond := h.EffectCondition(t)
		value := h.HashmapGet(state, cond)
		if value == term.Null {
			return h.NewSignal(cond), cond
		}
		return value, cond
	case term.TagLet:
		scope := h.NewList([]term.Handle{h.LetInitializer(t)})
		body := h.LetBody(t)
		if sub := h.Substitute(body, scope, 0); sub != term.Null {
			body = sub
		}
		return e.Evaluate(body, state)
	case term.TagPointer:
		target := h.Deref(t)
		if target == term.Null {
			return h.InvalidPointerSignal(), term.Null
		}
		return e.Evaluate(target, state)
	default:
		// atoms (including signals) evaluate to themselves
		return t, term.Null
	}
}

// evaluateApplication is the memoization boundary: the invocation fingerprint
// of (function identity, argument hashes) keys the cache, and the cached
// entry revalidates against the state snapshot per the two-level hash
// protocol.
func (e *Evaluator) evaluateApplication(t, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	target, args := h.ApplicationTarget(t), h.ApplicationArgs(t)
	tv, d1 := e.Evaluate(target, state)
	if h.IsSignal(tv) {
		return tv, d1
	}

	cacheable := term.ImplementsApply(h.TypeOf(tv))
	var fp uint64
	if cacheable {
		fp = e.fingerprint(tv, args)
		if entry, ok := h.CacheLookup(fp); ok {
			overall := e.stateHash(state)
			switch {
			case entry.OverallStateHash == overall:
				e.metrics.Counter(metrics.CacheHits).Incr()
				return entry.Value, h.TreeUnion(d1, entry.Dependencies)
			case e.stateFingerprint(entry.Dependencies, state) == entry.MinimalStateHash:
				// the state advanced, but not the subset this result read
				h.CacheUpdateOverall(fp, overall)
				e.metrics.Counter(metrics.CacheHits).Incr()
				return entry.Value, h.TreeUnion(d1, entry.Dependencies)
			default:
				h.CacheInvalidate(fp)
				e.metrics.Counter(metrics.CacheInvalidations).Incr()
			}
		}
		e.metrics.Counter(metrics.CacheMisses).Incr()
	}

	r, d2 := e.Apply(tv, args, state)
	r2, d3 := e.Evaluate(r, state)
	deps := h.TreeUnion(d2, d3)
	if cacheable {
		h.CacheInsert(fp, term.CacheEntry{
			Value:            r2,
			Dependencies:     deps,
			OverallStateHash: e.stateHash(state),
			MinimalStateHash: e.stateFingerprint(deps, state),
		})
	}
	return r2, h.TreeUnion(d1, deps)
}

// fingerprint hashes the function identity together with the structural
// hashes of each argument.
func (e *Evaluator) fingerprint(target, args term.Handle) uint64 {
	h := e.heap
	fp := term.FNVUint32(term.NewFNV(), h.TermHash(target))
	n := h.ListLen(args)
	fp = term.FNVUint32(fp, n)
	for i := uint32(0); i < n; i++ {
		fp = term.FNVUint32(fp, h.TermHash(h.ListGet(args, i)))
	}
	return fp
}

// Apply invokes a function term on an argument list. Arguments arrive
// unevaluated; argument handling is per-target (builtins declare argument
// kinds, lambdas substitute, signals short-circuit).
func (e *Evaluator) Apply(target, args, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	e.metrics.Counter(metrics.EvalApply).Incr()
	switch h.TypeOf(target) {
	case term.TagSignal:
		return target, term.Null
	case term.TagBuiltin:
		return e.applyBuiltin(target, args, state)
	case term.TagPartial:
		return e.Apply(h.PartialTarget(target), h.ListConcat(h.PartialArgs(target), args), state)
	case term.TagLambda:
		if h.ListLen(args) != h.LambdaArity(target) {
			return h.NewSignal(h.NewInvalidFunctionArgsCondition(target, args)), term.Null
		}
		body := h.LambdaBody(target)
		if sub := h.Substitute(body, args, 0); sub != term.Null {
			return sub, term.Null
		}
		return body, term.Null
	case term.TagConstructor:
		keys := h.ConstructorKeys(target)
		if h.ListLen(args) != h.ListLen(keys) {
			return h.NewSignal(h.NewInvalidFunctionArgsCondition(target, args)), term.Null
		}
		values, deps, sig := e.evaluateArgsStrict(args, state)
		if sig != term.Null {
			return sig, deps
		}
		return h.NewRecord(keys, h.NewList(values)), deps
	default:
		return h.NewSignal(h.NewInvalidFunctionTargetCondition(target)), term.Null
	}
}

// evaluateArgsStrict evaluates every argument, unioning dependencies. When
// any argument reduces to a signal the returned signal is the union of all
// argument signals.
func (e *Evaluator) evaluateArgsStrict(args, state term.Handle) ([]term.Handle, term.Handle, term.Handle) {
	h := e.heap
	n := h.ListLen(args)
	values := make([]term.Handle, n)
	deps := term.Null
	sig := term.Null
	for i := uint32(0); i < n; i++ {
		v, d := e.Evaluate(h.ListGet(args, i), state)
		deps = h.TreeUnion(deps, d)
		if h.IsSignal(v) {
			sig = h.CombineSignals(sig, v)
			continue
		}
		values[i] = v
	}
	return values, deps, sig
}

func (e *Evaluator) applyBuiltin(target, args, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	b := e.builtins[h.BuiltinUID(target)]
	if b == nil {
		return h.NewSignal(h.NewInvalidFunctionTargetCondition(target)), term.Null
	}
	n := h.ListLen(args)
	if n != uint32(len(b.Args)) {
		return h.NewSignal(h.NewInvalidFunctionArgsCondition(target, args)), term.Null
	}

	resolved := make([]term.Handle, n)
	deps := term.Null
	sig := term.Null
	for i := uint32(0); i < n; i++ {
		arg := h.ListGet(args, i)
		kind := b.Args[i]
		if kind == Lazy {
			resolved[i] = arg
			continue
		}
		v, d := e.Evaluate(arg, state)
		deps = h.TreeUnion(deps, d)
		if h.IsSignal(v) {
			sig = h.CombineSignals(sig, v)
			continue
		}
		if kind == Eager && term.IsIterator(h.TypeOf(v)) {
			v, d = e.CollectList(v, state)
			deps = h.TreeUnion(deps, d)
			if h.IsSignal(v) {
				sig = h.CombineSignals(sig, v)
				continue
			}
		}
		resolved[i] = v
	}
	if sig != term.Null {
		return sig, deps
	}

	e.metrics.Counter(metrics.EvalBuiltinCalls).Incr()
	r, d := b.Impl(e, resolved, state)
	return r, h.TreeUnion(deps, d)
}

// CollectList drives an iterable term to exhaustion, materializing its items
// into a list. Item-level signals union into a single signal result.
// Unbounded iterators produce an error signal instead of diverging.
func (e *Evaluator) CollectList(src, state term.Handle) (term.Handle, term.Handle) {
	h := e.heap
	hint, bounded := h.SizeHint(src)
	if !bounded && isUnbounded(h, src) {
		return h.NewSignal(h.NewErrorCondition(h.NewString("cannot collect unbounded iterator"))), term.Null
	}
	var items []term.Handle
	if bounded {
		items = make([]term.Handle, 0, hint)
	}
	istate := term.Null
	deps := term.Null
	sig := term.Null
	for {
		item, next, d := e.Next(src, istate, state)
		deps = h.TreeUnion(deps, d)
		if item == term.Null {
			break
		}
		if h.IsSignal(item) {
			sig = h.CombineSignals(sig, item)
		} else {
			items = append(items, item)
		}
		istate = next
	}
	if sig != term.Null {
		return sig, deps
	}
	return h.NewList(items), deps
}

// isUnbounded reports iterators that can never exhaust.
func isUnbounded(h *term.Heap, t Handle) bool {
	switch h.TypeOf(t) {
	case term.TagRepeatIterator, term.TagIntegersIterator:
		return true
	case term.TagMapIterator, term.TagFilterIterator, term.TagEvaluateIterator,
		term.TagIntersperseIterator, term.TagFlattenIterator:
		return isUnbounded(h, h.IteratorSource(t))
	case term.TagSkipIterator:
		return isUnbounded(h, h.IteratorSource(t))
	case term.TagZipIterator:
		// zip exhausts when either operand does
		return isUnbounded(h, h.IteratorSource(t)) && isUnbounded(h, h.IteratorSecond(t))
	}
	return false
}

// Handle is re-exported for brevity in this package's signatures.
type Handle = term.Handle
