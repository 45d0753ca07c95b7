// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gogama/gsclient/request"
	"github.com/gogama/gsclient/retry"
	"github.com/gogama/gsclient/transient"
)

// A Runner executes requests synchronously on the calling goroutine,
// with the same retry, backoff and rotation rules as the Dispatcher.
//
// A Runner remembers whether the previous call failed. If it did, the
// next call starts at the end of the backoff table, so a degraded link
// is not hammered again by every new caller. Concurrent callers share
// that memory; a lost update only affects how long they back off.
type Runner struct {
	client         *Client
	failedLastTime atomic.Bool
}

// Perform executes r and returns its final result. The callback of r,
// if any, is not invoked.
//
// After the client is shut down, Perform returns a LogicError result
// without network I/O.
//
// Perform panics if r is nil.
func (rn *Runner) Perform(r *request.Request) *request.Result {
	if r == nil {
		panic("gsclient: nil request")
	}
	c := rn.client
	if c.closed.Load() {
		return request.NewLogicError("the client has been shut down")
	}

	table := c.table
	index := 0
	if rn.failedLastTime.Load() {
		index = table.Last()
	}
	rotated := false

	e := c.x.start(r, true)
	for {
		res := c.x.attempt(c.ctx, e)

		// Only running out of table counts as a failure worth
		// remembering. Anything the policy settles clears it.
		if !retry.Decide(e) {
			rn.failedLastTime.Store(false)
			if !res.Success() && retry.IsNonpermanent(res.Transport, res.StatusCode) {
				c.x.balancer.RequestRotation()
			}
			c.x.end(e, res)
			return res
		}

		rotated = !rotated
		if rotated {
			c.x.balancer.RequestRotation()
		} else {
			index++
		}
		wait, ok := table.At(index)
		if !ok {
			rn.failedLastTime.Store(true)
			c.x.end(e, res)
			return res
		}

		c.x.handlers.run(BeforeRetry, e)
		if err := rn.sleep(r, wait); err != nil {
			res = request.NewResult(request.CancellationError)
			res.Err = urlErrorWrap(r, e.URL, err)
			res.Transport = transient.Cancelled
			c.x.end(e, res)
			return res
		}
		e.Attempt++
	}
}

// sleep waits for wait. A resume signal cuts the wait short. If the
// request is cancelled or the client shut down in the meantime, the
// cause is returned.
func (rn *Runner) sleep(r *request.Request, wait time.Duration) error {
	t := time.NewTimer(wait)
	defer t.Stop()

	var cancelled <-chan struct{}
	if r.Cancel != nil {
		cancelled = r.Cancel.Done()
	}
	select {
	case <-t.C:
	case <-rn.client.resume.wait():
	case <-cancelled:
		return context.Canceled
	case <-rn.client.ctx.Done():
		return context.Canceled
	}
	return nil
}
