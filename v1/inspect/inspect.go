// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package inspect serves the inspector/debugger HTTP surface: a read-only
// view of registered queries and resolved effects, and a stepping session
// over recorded evaluation events. At most one request may be in flight per
// endpoint; concurrent requests are rejected.
package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/reflow-lang/reflow/v1/eval"
	"github.com/reflow-lang/reflow/v1/logging"
	"github.com/reflow-lang/reflow/v1/reflow"
	"github.com/reflow-lang/reflow/v1/term"
)

// Error is the wire shape of inspector failures.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Error codes returned by the inspector endpoints.
const (
	ErrBusy       = "busy"
	ErrBadRequest = "bad_request"
)

// Query is a named expression registered with the inspector.
type Query struct {
	Name string
	Expr term.Handle
}

// Event is one recorded evaluation step of the debugger session.
type Event struct {
	Seq    int    `json:"seq"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Inspector exposes a runtime over HTTP.
type Inspector struct {
	rt     *reflow.Runtime
	logger logging.Logger

	mu      sync.Mutex
	queries []Query
	state   term.Handle

	events       []Event
	currentFrame int

	inspectBusy atomic.Bool
	debugBusy   atomic.Bool
}

// Opt is a configuration option for the inspector.
type Opt func(*Inspector)

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Opt {
	return func(i *Inspector) {
		i.logger = l
	}
}

// New creates an inspector over a runtime.
func New(rt *reflow.Runtime, opts ...Opt) *Inspector {
	i := &Inspector{
		rt:     rt,
		logger: logging.NewNoOpLogger(),
		state:  term.Null,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AddQuery registers a named expression.
func (i *Inspector) AddQuery(name string, expr term.Handle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.queries = append(i.queries, Query{Name: name, Expr: expr})
	i.record("query", name)
}

// ResolveEffect records a resolved condition value; subsequent query
// evaluations see it in their state snapshot.
func (i *Inspector) ResolveEffect(condition, value term.Handle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = eval.StateSet(i.rt.Heap(), i.state, condition, value)
	i.record("effect", i.rt.Heap().Format(condition))
}

// record appends a session event; callers hold i.mu.
func (i *Inspector) record(kind, detail string) {
	i.events = append(i.events, Event{Seq: len(i.events), Kind: kind, Detail: detail})
}

// Handler returns the HTTP handler serving the inspector and debugger
// endpoints.
func (i *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", i.handleInspect)
	mux.HandleFunc("/debug", i.handleDebug)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (i *Inspector) handleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, &Error{Code: ErrBadRequest, Message: "method not allowed"})
		return
	}
	if !i.inspectBusy.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusTooManyRequests, &Error{Code: ErrBusy, Message: "inspect request already in flight"})
		return
	}
	defer i.inspectBusy.Store(false)

	i.mu.Lock()
	defer i.mu.Unlock()

	h := i.rt.Heap()
	type queryResult struct {
		Name    string `json:"name"`
		Result  string `json:"result"`
		Pending bool   `json:"pending"`
	}
	queries := make([]queryResult, 0, len(i.queries))
	for _, q := range i.queries {
		res := i.rt.Evaluate(q.Expr, i.state)
		i.record("evaluate", q.Name)
		queries = append(queries, queryResult{
			Name:    q.Name,
			Result:  h.Format(res.Value),
			Pending: i.rt.IsPending(res),
		})
	}

	effects := make([][2]string, 0)
	if i.state != term.Null {
		capacity := h.HashmapCapacity(i.state)
		for s := uint32(0); s < capacity; s++ {
			k, v := h.HashmapEntryAt(i.state, s)
			if k == term.Null {
				continue
			}
			effects = append(effects, [2]string{h.Format(k), h.Format(v)})
		}
	}

	i.logger.Debug("inspect: %d queries, %d effects", len(queries), len(effects))
	writeJSON(w, http.StatusOK, map[string]any{
		"queries": queries,
		"effects": effects,
	})
}

type debugAction struct {
	Action string `json:"action"`
}

func (i *Inspector) handleDebug(w http.ResponseWriter, r *http.Request) {
	if !i.debugBusy.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusTooManyRequests, &Error{Code: ErrBusy, Message: "debug request already in flight"})
		return
	}
	defer i.debugBusy.Store(false)

	switch r.Method {
	case http.MethodGet:
		i.mu.Lock()
		defer i.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"events":       i.events,
			"currentFrame": i.currentFrame,
		})
	case http.MethodPost:
		var action debugAction
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
			writeJSON(w, http.StatusBadRequest, &Error{Code: ErrBadRequest, Message: err.Error()})
			return
		}
		i.mu.Lock()
		defer i.mu.Unlock()
		numFrames := len(i.events)
		switch action.Action {
		case "step":
			if i.currentFrame < numFrames {
				i.currentFrame++
			}
		case "continue", "end":
			i.currentFrame = numFrames
		case "reset":
			i.currentFrame = 0
		default:
			writeJSON(w, http.StatusBadRequest, &Error{Code: ErrBadRequest, Message: "unknown action: " + action.Action})
			return
		}
		i.logger.Debug("debug action %q: frame %d/%d", action.Action, i.currentFrame, numFrames)
		writeJSON(w, http.StatusOK, map[string]any{
			"currentFrame": i.currentFrame,
			"numFrames":    numFrames,
		})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, &Error{Code: ErrBadRequest, Message: "method not allowed"})
	}
}
