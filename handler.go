// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"github.com/gogama/gsclient/request"
)

// A Handler handles the occurrence of an event during a request
// execution.
type Handler interface {
	Handle(Event, *request.Execution)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}

// A HandlerGroup holds one chain of handlers per event. The zero value
// is an empty group, and a nil *HandlerGroup runs nothing.
//
// Install every handler before the client is first used. The chains are
// read concurrently by the dispatcher and by every synchronous runner
// caller, so handlers must be safe for concurrent use.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack appends h to the chain of evt. Handlers in a chain run in
// the order they were pushed.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	switch {
	case h == nil:
		panic("gsclient: nil handler")
	case evt < 0 || evt >= eventSentinel:
		panic("gsclient: invalid event")
	}
	g.chains[evt] = append(g.chains[evt], h)
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	if g == nil {
		return
	}
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}

// clone returns a copy of g whose chains can be extended without
// affecting g. A nil g yields an empty group.
func (g *HandlerGroup) clone() *HandlerGroup {
	g2 := &HandlerGroup{}
	if g != nil {
		for evt, chain := range g.chains {
			g2.chains[evt] = append([]Handler(nil), chain...)
		}
	}
	return g2
}
