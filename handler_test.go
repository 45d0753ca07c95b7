// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"fmt"
	"testing"

	"github.com/gogama/gsclient/request"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var evts []string
	var execs []*request.Execution
	h1 := &testHandler{seq: 1, evts: &evts, execs: &execs}
	h2 := &testHandler{seq: 2, evts: &evts, execs: &execs}
	g := &HandlerGroup{}
	t.Run("PushBack", func(t *testing.T) {
		assert.PanicsWithValue(t, "gsclient: nil handler", func() { g.PushBack(BeforeExecutionStart, nil) })
		assert.PanicsWithValue(t, "gsclient: invalid event", func() { g.PushBack(Event(123), h1) })
		assert.PanicsWithValue(t, "gsclient: invalid event", func() { g.PushBack(Event(-1), h1) })
		g.PushBack(BeforeExecutionStart, h1)
		g.PushBack(BeforeExecutionStart, h2)
		g.PushBack(BeforeRetry, h2)
	})
	t.Run("run", func(t *testing.T) {
		e1 := &request.Execution{Attempt: 1}
		e2 := &request.Execution{Attempt: 2}
		g.run(AfterAttempt, e1)
		assert.Empty(t, evts)
		assert.Empty(t, execs)
		g.run(BeforeExecutionStart, e1)
		assert.Equal(t, []string{"1.BeforeExecutionStart", "2.BeforeExecutionStart"}, evts)
		assert.Equal(t, []*request.Execution{e1, e1}, execs)
		evts = evts[:0]
		execs = execs[:0]
		g.run(BeforeRetry, e2)
		assert.Equal(t, []string{"2.BeforeRetry"}, evts)
		assert.Equal(t, []*request.Execution{e2}, execs)
	})
	t.Run("clone", func(t *testing.T) {
		evts = evts[:0]
		g2 := g.clone()
		g2.PushBack(BeforeRetry, h1)
		g.run(BeforeRetry, &request.Execution{})
		assert.Equal(t, []string{"2.BeforeRetry"}, evts)
		evts = evts[:0]
		g2.run(BeforeRetry, &request.Execution{})
		assert.Equal(t, []string{"2.BeforeRetry", "1.BeforeRetry"}, evts)
	})
	t.Run("nil", func(t *testing.T) {
		var nilGroup *HandlerGroup
		assert.NotPanics(t, func() { nilGroup.run(BeforeAttempt, &request.Execution{}) })
		assert.NotNil(t, nilGroup.clone())
		assert.NotPanics(t, func() { (&HandlerGroup{}).run(BeforeAttempt, &request.Execution{}) })
	})
}

type testHandler struct {
	seq   int
	evts  *[]string
	execs *[]*request.Execution
}

func (h *testHandler) Handle(evt Event, e *request.Execution) {
	*h.evts = append(*h.evts, fmt.Sprintf("%d.%s", h.seq, evt))
	*h.execs = append(*h.execs, e)
}

func TestHandlerFunc(t *testing.T) {
	var gotEvt Event
	var gotExec *request.Execution
	h := HandlerFunc(func(evt Event, e *request.Execution) {
		gotEvt = evt
		gotExec = e
	})
	e := &request.Execution{}
	h.Handle(BeforeReadBody, e)

	assert.Equal(t, BeforeReadBody, gotEvt)
	assert.Same(t, e, gotExec)
}
