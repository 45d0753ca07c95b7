// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package gsclient

import "sync"

// SetNetworkState records whether the game-services backend is
// reachable. While the network is down, the dispatcher holds its queue
// unless a failure delegate is installed. A transition from down to up
// wakes the dispatcher.
//
// The primary event loop calls SetNetworkState through the callback
// queue, so it normally runs on the application goroutine.
func (c *Client) SetNetworkState(up bool) {
	c.init()
	prev := c.networkUp.Swap(up)
	if prev == up {
		return
	}
	if up {
		c.logger.Info("network activity resumed")
		c.dispatcher.Wake()
	} else {
		c.logger.Info("network activity suspended")
	}
	if c.OnNetworkStateChange != nil {
		c.OnNetworkStateChange(up)
	}
}

// NetworkUp reports the last recorded network state. It is true until
// a network failure is observed.
func (c *Client) NetworkUp() bool {
	c.init()
	return c.networkUp.Load()
}

// Suspend parks every event loop at its next iteration, typically when
// the application goes to the background. Polls already in flight run
// to completion.
func (c *Client) Suspend() {
	c.init()
	c.suspended.Store(true)
}

// Resume releases the event loops parked by Suspend and cuts short any
// backoff wait in progress in the runner and in event loop holds.
func (c *Client) Resume() {
	c.init()
	c.suspended.Store(false)
	c.resume.notify()
}

// Suspended reports whether the client is suspended.
func (c *Client) Suspended() bool {
	return c.suspended.Load()
}

// A broadcast wakes every goroutine waiting on it at the time notify
// is called.
type broadcast struct {
	lock sync.Mutex
	ch   chan struct{}
}

func newBroadcast() *broadcast {
	return &broadcast{ch: make(chan struct{})}
}

// wait returns a channel which is closed at the next notify. Take the
// channel before checking the condition being waited for.
func (b *broadcast) wait() <-chan struct{} {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.ch
}

func (b *broadcast) notify() {
	b.lock.Lock()
	defer b.lock.Unlock()
	close(b.ch)
	b.ch = make(chan struct{})
}
