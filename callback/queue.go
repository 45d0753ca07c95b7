// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package callback

import (
	"sync"
	"sync/atomic"

	"github.com/gogama/gsclient/request"
)

// A Queue is a thread-safe FIFO of pending callback invocations.
//
// Background goroutines push envelopes with Push or PushFunc, which
// never block. The application goroutine that drives the idle tick
// consumes them with Pop or Drain, so every callback runs on that
// goroutine.
//
// The zero value is an empty queue ready to use.
type Queue struct {
	lock  sync.Mutex
	items []func()
	pops  atomic.Int64
}

// Push appends an envelope which, when popped, invokes cb with r. A nil
// cb is ignored.
func (q *Queue) Push(cb request.Callback, r *request.Result) {
	if cb == nil {
		return
	}
	q.PushFunc(func() { cb(r) })
}

// PushFunc appends an envelope which, when popped, invokes fn. A nil fn
// is ignored.
//
// Use PushFunc when the work to do must be decided on the consuming
// goroutine, for example when fanning an event out to the listeners
// registered at that moment.
func (q *Queue) PushFunc(fn func()) {
	if fn == nil {
		return
	}
	q.lock.Lock()
	q.items = append(q.items, fn)
	q.lock.Unlock()
}

// Pop removes the head envelope and invokes it on the calling
// goroutine. It returns false if the queue was empty.
//
// The queue lock is not held while the envelope runs, so a callback may
// push further envelopes.
func (q *Queue) Pop() bool {
	q.pops.Add(1)
	fn := q.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Drain pops envelopes until the queue is empty and returns the number
// of envelopes invoked. This is the idle tick.
func (q *Queue) Drain() int {
	q.pops.Add(1)
	n := 0
	for {
		fn := q.take()
		if fn == nil {
			return n
		}
		fn()
		n++
	}
}

// DiscardAll drops every pending envelope without invoking it and
// returns the number dropped.
func (q *Queue) DiscardAll() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// Len returns the number of pending envelopes.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// Polled reports whether Pop or Drain has ever been called.
func (q *Queue) Polled() bool {
	return q.pops.Load() > 0
}

func (q *Queue) take() func() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	fn := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return fn
}
