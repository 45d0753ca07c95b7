// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/retry"
	"go.uber.org/zap"
)

// A Dispatcher executes asynchronous requests one at a time, in
// submission order, on a single worker goroutine. Failed attempts are
// retried according to each request's retry policy, with backoff and
// load balancer rotation, and only the final result is delivered to the
// request's callback through the client's callback queue.
type Dispatcher struct {
	client   *Client
	ctx      context.Context
	stop     context.CancelFunc
	wake     chan struct{}
	done     chan struct{}
	delegate atomic.Pointer[retry.FailureDelegate]

	lock    sync.Mutex
	pending []*request.Request
	started bool
	closed  bool

	// Owned by the worker goroutine.
	index   int
	rotated bool
	exec    *request.Execution
	failure *retry.Failure
}

func newDispatcher(c *Client) *Dispatcher {
	ctx, stop := context.WithCancel(c.ctx)
	d := &Dispatcher{
		client: c,
		ctx:    ctx,
		stop:   stop,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if c.FailureDelegate != nil {
		d.setDelegate(c.FailureDelegate)
	}
	return d
}

// Enqueue transfers ownership of r to the dispatcher and returns
// immediately. The worker goroutine is started on first use.
//
// After Shutdown, r is not executed; its callback receives a
// LogicError result through the callback queue instead.
//
// Enqueue panics if r is nil or has no callback.
func (d *Dispatcher) Enqueue(r *request.Request) {
	if r == nil {
		panic("gsclient: nil request")
	}
	if r.Callback == nil {
		panic("gsclient: nil callback")
	}

	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		d.client.queue.Push(r.Callback, request.NewLogicError("the client has been shut down"))
		return
	}
	d.pending = append(d.pending, r)
	n := len(d.pending)
	if !d.started {
		d.started = true
		go d.run()
	}
	d.lock.Unlock()

	d.client.Metrics.setPending(n)
	d.Wake()
}

// Wake cuts short the backoff wait in progress, if any, and makes the
// worker look at its queue again.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of requests waiting to complete, including
// the one being worked on.
func (d *Dispatcher) Len() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.pending)
}

// Shutdown stops the worker goroutine, aborting the attempt in flight,
// and waits for it to exit. Requests still queued are discarded without
// their callbacks being invoked. Shutdown is idempotent.
func (d *Dispatcher) Shutdown() {
	d.lock.Lock()
	d.closed = true
	started := d.started
	d.lock.Unlock()

	d.stop()
	if started {
		<-d.done
	}

	d.lock.Lock()
	n := len(d.pending)
	d.pending = nil
	d.lock.Unlock()
	d.client.Metrics.setPending(0)
	if n > 0 {
		d.client.logger.Debug("discarded queued requests", zap.Int("count", n))
	}
}

func (d *Dispatcher) setDelegate(f retry.FailureDelegate) {
	if f == nil {
		d.delegate.Store(nil)
	} else {
		d.delegate.Store(&f)
	}
	d.Wake()
}

func (d *Dispatcher) currentDelegate() retry.FailureDelegate {
	if p := d.delegate.Load(); p != nil {
		return *p
	}
	return nil
}

func (d *Dispatcher) head() *request.Request {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.pending) == 0 {
		return nil
	}
	return d.pending[0]
}

func (d *Dispatcher) pop() {
	d.lock.Lock()
	d.pending[0] = nil
	d.pending = d.pending[1:]
	n := len(d.pending)
	d.lock.Unlock()
	d.client.Metrics.setPending(n)
}

func (d *Dispatcher) run() {
	defer close(d.done)

	c := d.client
	for d.ctx.Err() == nil {
		r := d.head()
		if r == nil {
			if !d.sleep(-1) {
				return
			}
			continue
		}

		delegate := d.currentDelegate()
		if !c.networkUp.Load() && delegate == nil {
			if !d.sleep(-1) {
				return
			}
			continue
		}

		if d.exec == nil || d.exec.Request != r {
			d.exec = c.x.start(r, false)
			d.failure = nil
		}
		e := d.exec
		d.drainWake()
		res := c.x.attempt(d.ctx, e)
		if d.ctx.Err() != nil {
			return
		}

		if !retry.Decide(e) {
			if !res.Success() && retry.IsNonpermanent(res.Transport, res.StatusCode) {
				c.x.balancer.RequestRotation()
			}
			d.deliver(e, res)
			continue
		}

		d.rotated = !d.rotated
		if d.rotated {
			c.x.balancer.RequestRotation()
		}

		if d.failure == nil {
			d.failure = &retry.Failure{}
		}
		f := d.failure
		f.Reset()
		f.URL = e.URL
		f.Attempt = e.Attempt
		f.Result = res
		if delegate != nil {
			delegate(f)
		} else {
			c.table.Advance(&d.index, f)
		}

		decision, wait := f.Decision()
		if decision == retry.Undecided {
			c.logger.Error("failure delegate returned without calling Abort or RetryIn; aborting",
				zap.String("url", e.URL))
			decision = retry.Abort
		}
		if decision == retry.Abort {
			d.deliver(e, res)
			continue
		}

		c.x.handlers.run(BeforeRetry, e)
		if !d.sleep(wait) {
			return
		}
		e.Attempt++
	}
}

func (d *Dispatcher) deliver(e *request.Execution, res *request.Result) {
	d.index = 0
	d.rotated = false
	d.exec = nil
	d.failure = nil
	d.client.x.end(e, res)
	d.pop()
	d.client.queue.Push(e.Request.Callback, res)
}

func (d *Dispatcher) drainWake() {
	select {
	case <-d.wake:
	default:
	}
}

// sleep waits for wait, or indefinitely if wait is negative. It returns
// early when woken, and returns false if the dispatcher is stopping.
func (d *Dispatcher) sleep(wait time.Duration) bool {
	var timer <-chan time.Time
	if wait >= 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-d.ctx.Done():
		return false
	case <-d.wake:
		return true
	case <-timer:
		return true
	}
}
