// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package reflow is the embedding API for the reactive expression engine: a
// Runtime bundles the term heap, the evaluator, logging and metrics, and
// bridges between Go values and terms.
package reflow

import (
	"encoding/json"
	"fmt"

	"github.com/reflow-lang/reflow/v1/eval"
	"github.com/reflow-lang/reflow/v1/logging"
	"github.com/reflow-lang/reflow/v1/metrics"
	"github.com/reflow-lang/reflow/v1/term"
	"github.com/reflow-lang/reflow/v1/util"
)

// Runtime owns one evaluation universe: the arena, the singletons, the
// memoization cache, and the evaluator configured over them.
type Runtime struct {
	heap      *term.Heap
	evaluator *eval.Evaluator
	logger    logging.Logger
	metrics   metrics.Metrics
	host      *eval.Host
}

// Opt is a configuration option for the runtime.
type Opt func(*Runtime)

// WithLogger sets the logger used by the runtime and its evaluator.
func WithLogger(l logging.Logger) Opt {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m metrics.Metrics) Opt {
	return func(r *Runtime) {
		r.metrics = m
	}
}

// WithHost sets the host hooks.
func WithHost(h *eval.Host) Opt {
	return func(r *Runtime) {
		r.host = h
	}
}

// New creates a runtime with a fresh heap.
func New(opts ...Opt) *Runtime {
	r := &Runtime{
		heap:    term.NewHeap(),
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.New(),
		host:    eval.DefaultHost(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.evaluator = eval.New(r.heap,
		eval.WithLogger(r.logger),
		eval.WithMetrics(r.metrics),
		eval.WithHost(r.host),
	)
	return r
}

// Heap returns the runtime's term heap.
func (r *Runtime) Heap() *term.Heap {
	return r.heap
}

// Evaluator returns the runtime's evaluator.
func (r *Runtime) Evaluator() *eval.Evaluator {
	return r.evaluator
}

// Metrics returns the runtime's metrics registry.
func (r *Runtime) Metrics() metrics.Metrics {
	return r.metrics
}

// Collector returns a Prometheus collector over the runtime's heap and
// counters.
func (r *Runtime) Collector() *metrics.Collector {
	return metrics.NewCollector(r.heap, r.metrics)
}

// Result is the outcome of an evaluation: the reduced term and the
// dependency set recording every condition the computation read.
type Result struct {
	Value        term.Handle
	Dependencies term.Handle
}

// IsPending reports whether the result is a signal carrying unresolved
// conditions.
func (r *Runtime) IsPending(res Result) bool {
	h := r.heap
	return h.IsSignal(res.Value) && h.SignalHas(res.Value, func(ct term.ConditionType) bool {
		return ct == term.ConditionPending || ct == term.ConditionCustom
	})
}

// PendingConditions returns the unresolved conditions of a signal result for
// the host to fetch. Empty for value results and pure-error signals.
func (r *Runtime) PendingConditions(res Result) []term.Handle {
	h := r.heap
	if !h.IsSignal(res.Value) {
		return nil
	}
	var pending []term.Handle
	for _, cond := range h.TreeLeaves(h.SignalConditions(res.Value)) {
		if h.TypeOf(cond) != term.TagCondition {
			continue
		}
		switch h.ConditionTypeOf(cond) {
		case term.ConditionPending, term.ConditionCustom:
			pending = append(pending, cond)
		}
	}
	return pending
}

// Evaluate reduces an expression against a state snapshot (Null for the
// empty state).
func (r *Runtime) Evaluate(expr, state term.Handle) Result {
	value, deps := r.evaluator.Evaluate(expr, state)
	return Result{Value: value, Dependencies: deps}
}

// Format renders a term for humans.
func (r *Runtime) Format(t term.Handle) string {
	return r.heap.Format(t)
}

// FromValue converts a Go value to a term. The value is JSON round-tripped
// first so arbitrary maps, slices and numeric types normalize.
func (r *Runtime) FromValue(x any) (term.Handle, error) {
	if err := util.RoundTrip(&x); err != nil {
		return term.Null, err
	}
	return r.fromInterface(x)
}

func (r *Runtime) fromInterface(x any) (term.Handle, error) {
	h := r.heap
	switch v := x.(type) {
	case nil:
		return h.NewNil(), nil
	case bool:
		return h.NewBoolean(v), nil
	case string:
		return h.NewString(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return h.NewInt(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return term.Null, err
		}
		return h.NewFloat(f), nil
	case []any:
		items := make([]term.Handle, 0, len(v))
		for _, item := range v {
			t, err := r.fromInterface(item)
			if err != nil {
				return term.Null, err
			}
			items = append(items, t)
		}
		return h.NewList(items), nil
	case map[string]any:
		keys := make([]term.Handle, 0, len(v))
		values := make([]term.Handle, 0, len(v))
		for _, k := range util.SortedKeys(v) {
			kt := h.NewString(k)
			vt, err := r.fromInterface(v[k])
			if err != nil {
				return term.Null, err
			}
			keys = append(keys, kt)
			values = append(values, vt)
		}
		return h.NewRecord(h.NewList(keys), h.NewList(values)), nil
	default:
		return term.Null, fmt.Errorf("cannot convert %T to a term", x)
	}
}

// ToValue converts a JSON-representable term back to a Go value
// (map[string]any / []any / scalars with json.Number).
func (r *Runtime) ToValue(t term.Handle) (any, error) {
	buf := util.GetBuffer()
	defer util.PutBuffer(buf)
	if !r.heap.ToJSON(t, buf) {
		return nil, fmt.Errorf("term is not JSON-representable: %s", r.heap.Format(t))
	}
	var x any
	if err := util.UnmarshalJSON(buf.Bytes(), &x); err != nil {
		return nil, err
	}
	return x, nil
}

// ParseJSON parses a JSON document into a term.
func (r *Runtime) ParseJSON(bs []byte) (term.Handle, error) {
	t, off := r.heap.ParseJSON(bs)
	if t == term.Null {
		return term.Null, fmt.Errorf("invalid JSON at offset %d", off)
	}
	return t, nil
}
